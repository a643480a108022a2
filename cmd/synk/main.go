package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "synk",
	Short:         "Find communities and events that match your interests",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")

	rootCmd.AddCommand(startCmd, stopCmd, statusCmd, mcpCmd)
	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd)
	rootCmd.AddCommand(recommendCmd, locateCmd, profileCmd, tabCmd)
	rootCmd.AddCommand(eventsCmd, communitiesCmd, threadsCmd, searchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == 401 && apiErr.Type == "authentication_error" {
			printWarning("run `synk login` to start a session")
		}
		os.Exit(1)
	}
}
