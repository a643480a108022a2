package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/synk/internal/api"
	"github.com/kalambet/synk/internal/catalog"
	"github.com/kalambet/synk/internal/config"
	"github.com/kalambet/synk/internal/genai"
	"github.com/kalambet/synk/internal/geo"
	"github.com/kalambet/synk/internal/profile"
	"github.com/kalambet/synk/internal/recommend"
	"github.com/kalambet/synk/internal/session"
	"github.com/kalambet/synk/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the synk server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running synk server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show synk system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the synk MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "synk.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func setupLogging(cfg config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
}

// newBackend builds the configured prompt backend. A local Ollama backend
// is checked and its model pulled before use; progress goes to w.
func newBackend(ctx context.Context, cfg config.Config, w io.Writer) (genai.Backend, error) {
	switch cfg.GenAI.Backend {
	case config.BackendOpenAI:
		return genai.NewOpenAI(cfg.GenAIBaseURL(), cfg.GenAI.APIKey, &http.Client{Timeout: cfg.GenAITimeout()}), nil
	default:
		o := genai.NewOllama(cfg.GenAIBaseURL())
		if err := genai.EnsureReady(ctx, o, cfg.GenAI.Model, w); err != nil {
			return nil, err
		}
		return o, nil
	}
}

func newLocator(cfg config.Config) *geo.Locator {
	return geo.NewLocator(geo.NewNominatim(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent), geo.DefaultBreakerConfig())
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "synk version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("synk is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("synk is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	tokens, err := session.NewTokens(cfg.Auth.SessionSecret, cfg.SessionTTL())
	if err != nil {
		return fmt.Errorf("initializing session tokens: %w", err)
	}
	profiles := profile.NewManager(store)
	sessions := session.NewManager(store, profiles)
	suggester := recommend.NewPromptSuggester(genai.NewClient(backend, cfg.GenAI.Model))

	handler := api.NewHandler(api.Deps{
		Accounts:      session.NewAccounts(store, sessions, profiles, tokens),
		Sessions:      sessions,
		Tokens:        tokens,
		Profiles:      profiles,
		Recommend:     recommend.NewService(suggester, store, cfg.GenAITimeout()),
		Locator:       newLocator(cfg),
		Catalog:       catalog.New(),
		CORSOrigins:   cfg.AllowedOrigins(),
		AuthRateLimit: cfg.Server.RateLimitPerMinute,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("synk listening", "addr", addr, "backend", cfg.GenAI.Backend, "model", cfg.GenAI.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// runMCP serves the agent tools on stdio. Stdout carries the protocol, so
// all diagnostics go to stderr.
func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Suggester: recommend.NewPromptSuggester(genai.NewClient(backend, cfg.GenAI.Model)),
		Catalog:   catalog.New(),
		Locator:   newLocator(cfg),
	})
	slog.Info("MCP server started (stdio transport)")

	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("synk is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop synk (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to synk (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Backend", "%s at %s", cfg.GenAI.Backend, cfg.GenAIBaseURL())
	if cfg.GenAI.Backend == config.BackendOllama {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		o := genai.NewOllama(cfg.GenAIBaseURL())
		switch {
		case !o.IsRunning(ctx):
			printStatus("Ollama", "not running")
		case o.HasModel(ctx, cfg.GenAI.Model):
			printStatus("Ollama", "running, %s available", cfg.GenAI.Model)
		default:
			printStatus("Ollama", "running, %s not pulled yet", cfg.GenAI.Model)
		}
	}
	printStatus("Model", "%s", cfg.GenAI.Model)
	printStatus("Geocoder", "%s", cfg.Geocode.BaseURL)

	if config.CLIToken() != "" {
		printStatus("CLI session", "logged in")
	} else {
		printStatus("CLI session", "logged out")
	}
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
