package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/synk/internal/catalog"
	"github.com/kalambet/synk/internal/config"
	"github.com/kalambet/synk/internal/geo"
	"github.com/kalambet/synk/internal/profile"
	"github.com/kalambet/synk/internal/recommend"
	"github.com/kalambet/synk/internal/session"
)

// --- auth ---

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		confirm, _ := cmd.Flags().GetString("confirm-password")
		if confirm == "" {
			confirm = password
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/auth/signup", session.SignupForm{
			Name:            name,
			Email:           email,
			Password:        password,
			ConfirmPassword: confirm,
		})
		if err != nil {
			return err
		}
		var res session.AuthResult
		if err := decodeJSON(resp, &res); err != nil {
			return err
		}
		if err := config.SaveCLIToken(res.Token); err != nil {
			return fmt.Errorf("saving session token: %w", err)
		}

		printSuccess("Welcome, %s! Your account has been created.", res.Account.Name)
		printWarning("Create your profile next: synk profile save --help")
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/auth/login", session.LoginForm{Email: email, Password: password})
		if err != nil {
			return err
		}
		var res session.AuthResult
		if err := decodeJSON(resp, &res); err != nil {
			return err
		}
		if err := config.SaveCLIToken(res.Token); err != nil {
			return fmt.Errorf("saving session token: %w", err)
		}

		printSuccess("Logged in as %s", res.Account.Email)
		if res.NeedsProfile {
			printWarning("You have no profile yet: synk profile save --help")
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear stored state",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/auth/logout", nil)
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			printWarning("server logout failed: %v", err)
		}
		if err := config.ClearCLIToken(); err != nil {
			return fmt.Errorf("clearing session token: %w", err)
		}
		printSuccess("Logged out")
		return nil
	},
}

func init() {
	signupCmd.Flags().String("name", "", "your name")
	signupCmd.Flags().String("email", "", "email address")
	signupCmd.Flags().String("password", "", "password (at least 6 characters)")
	signupCmd.Flags().String("confirm-password", "", "repeat the password (defaults to --password)")
	signupCmd.MarkFlagRequired("email")
	signupCmd.MarkFlagRequired("password")

	loginCmd.Flags().String("email", "", "email address")
	loginCmd.Flags().String("password", "", "password")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")
}

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Get AI-suggested communities and events",
	Long: `Get AI-suggested communities and events.

Interests default to the ones in your profile. Pass --lat and --lon to use
your current position as the location.

Examples:
  synk recommend --interests "hiking, photography" --location "Denver, Colorado"
  synk recommend --lat 52.52 --lon 13.405
  synk recommend --last`,
	RunE: func(cmd *cobra.Command, args []string) error {
		last, _ := cmd.Flags().GetBool("last")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if last {
			resp, err := client.get(ctx, "/recommendations/last")
			if err != nil {
				return err
			}
			var entry recommend.Entry
			if err := decodeJSON(resp, &entry); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "For %q near %s:\n", entry.Request.Interests, entry.Request.Location)
			printResult(entry.Result)
			return nil
		}

		req := recommend.Request{}
		req.Interests, _ = cmd.Flags().GetString("interests")
		req.Location, _ = cmd.Flags().GetString("location")
		req.PastEvents, _ = cmd.Flags().GetString("past-events")
		req.Groups, _ = cmd.Flags().GetString("groups")

		if strings.TrimSpace(req.Interests) == "" {
			if req.Interests, err = profileInterests(ctx, client); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			lat, _ := cmd.Flags().GetFloat64("lat")
			lon, _ := cmd.Flags().GetFloat64("lon")
			res, err := resolveLocation(ctx, client, map[string]any{"lat": lat, "lon": lon})
			if err != nil {
				return err
			}
			req.Location = res.Location
			printStep("%s (%s)", res.Notice, res.Location)
		}

		if err := req.Validate(); err != nil {
			return err
		}

		printStep("Asking for suggestions...")
		resp, err := client.post(ctx, "/recommendations", req)
		if err != nil {
			return err
		}
		var res recommend.Result
		if err := decodeJSON(resp, &res); err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

func init() {
	recommendCmd.Flags().String("interests", "", "comma-separated interests (default: from your profile)")
	recommendCmd.Flags().String("location", "", "city or region")
	recommendCmd.Flags().String("past-events", "", "events you attended before")
	recommendCmd.Flags().String("groups", "", "groups you already belong to")
	recommendCmd.Flags().Float64("lat", 0, "latitude of your current position")
	recommendCmd.Flags().Float64("lon", 0, "longitude of your current position")
	recommendCmd.Flags().Bool("last", false, "show the last stored suggestions instead")
}

func printResult(res recommend.Result) {
	printSection("Suggested Communities", res.SuggestedCommunities)
	printSection("Suggested Events", res.SuggestedEvents)
}

// profileInterests returns the stored profile's interests. The default
// profile is not used as a source.
func profileInterests(ctx context.Context, client *apiClient) (string, error) {
	resp, err := client.get(ctx, "/profile")
	if err != nil {
		return "", err
	}
	var got struct {
		Profile profile.UserProfile `json:"profile"`
		Stored  bool                `json:"stored"`
	}
	if err := decodeJSON(resp, &got); err != nil {
		return "", err
	}
	if !got.Stored {
		return "", nil
	}
	return got.Profile.InterestsText(), nil
}

// --- locate ---

var locateCmd = &cobra.Command{
	Use:   "locate <lat> <lon>",
	Short: "Turn coordinates into a place name",
	Long: `Turn coordinates into a place name.

Use --error to report that the position could not be read
(permission_denied, unsupported or unavailable).`,
	Args: func(cmd *cobra.Command, args []string) error {
		if kind, _ := cmd.Flags().GetString("error"); kind != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{}
		if kind, _ := cmd.Flags().GetString("error"); kind != "" {
			body["error"] = kind
		} else {
			var lat, lon float64
			if _, err := fmt.Sscanf(args[0]+" "+args[1], "%g %g", &lat, &lon); err != nil {
				return fmt.Errorf("invalid coordinates %q %q", args[0], args[1])
			}
			body["lat"], body["lon"] = lat, lon
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		res, err := resolveLocation(cmd.Context(), client, body)
		if err != nil {
			return err
		}
		if res.Failure != "" {
			printWarning("%s", res.Notice)
			return nil
		}
		fmt.Fprintln(stdout, res.Location)
		if res.Fallback {
			printWarning("%s", res.Notice)
		} else {
			printSuccess("%s", res.Notice)
		}
		return nil
	},
}

func init() {
	locateCmd.Flags().String("error", "", "report a geolocation failure instead of coordinates")
}

type locateResult struct {
	geo.Resolution
	Failure geo.PositionErrorKind `json:"error"`
}

func resolveLocation(ctx context.Context, client *apiClient, body map[string]any) (locateResult, error) {
	resp, err := client.post(ctx, "/location/resolve", body)
	if err != nil {
		return locateResult{}, err
	}
	var res locateResult
	if err := decodeJSON(resp, &res); err != nil {
		return locateResult{}, err
	}
	return res, nil
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or save your profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}
		var got struct {
			Profile profile.UserProfile `json:"profile"`
			Stored  bool                `json:"stored"`
		}
		if err := decodeJSON(resp, &got); err != nil {
			return err
		}
		if !got.Stored {
			printWarning("No saved profile, showing the default one")
		}
		return printJSON(got.Profile)
	},
}

var profileSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create or replace your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		var form profile.Form
		form.Name, _ = cmd.Flags().GetString("name")
		form.AvatarURL, _ = cmd.Flags().GetString("avatar")
		form.Organization, _ = cmd.Flags().GetString("organization")
		form.Bio, _ = cmd.Flags().GetString("bio")
		form.Interests, _ = cmd.Flags().GetString("interests")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/profile", form)
		if err != nil {
			return err
		}
		var res profile.SaveResult
		if err := decodeJSON(resp, &res); err != nil {
			return err
		}

		printSuccess("Profile saved for %s", res.Profile.Name)
		if res.CommunityHint != "" {
			printStep("You may want to join %s", res.CommunityHint)
		}
		return nil
	},
}

func init() {
	profileSaveCmd.Flags().String("name", "", "display name")
	profileSaveCmd.Flags().String("avatar", "", "avatar image URL")
	profileSaveCmd.Flags().String("organization", "", "organization")
	profileSaveCmd.Flags().String("bio", "", "short bio (10-200 characters)")
	profileSaveCmd.Flags().String("interests", "", "comma-separated interests")
	profileCmd.AddCommand(profileShowCmd, profileSaveCmd)
}

// --- tab ---

var tabCmd = &cobra.Command{
	Use:       "tab <discover|events|communities>",
	Short:     "Set the home tab remembered for your session",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(session.TabDiscover), string(session.TabEvents), string(session.TabCommunities)},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/session/tab", map[string]string{"tab": args[0]})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Home tab set to %s", args[0])
		return nil
	},
}

// --- events ---

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Browse and create events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List upcoming events",
	RunE: func(cmd *cobra.Command, args []string) error {
		var events []catalog.Event
		if err := getJSON(cmd.Context(), "/events", &events); err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(stdout, "No events found.")
			return nil
		}
		for _, e := range events {
			printEvent(e)
		}
		return nil
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ev catalog.Event
		if err := getJSON(cmd.Context(), "/events/"+url.PathEscape(args[0]), &ev); err != nil {
			return err
		}
		return printJSON(ev)
	},
}

var eventsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an event",
	RunE: func(cmd *cobra.Command, args []string) error {
		var form catalog.EventForm
		form.Name, _ = cmd.Flags().GetString("name")
		form.Description, _ = cmd.Flags().GetString("description")
		form.Date, _ = cmd.Flags().GetString("date")
		form.Time, _ = cmd.Flags().GetString("time")
		form.Location, _ = cmd.Flags().GetString("location")
		form.ImageURL, _ = cmd.Flags().GetString("image")
		form.Community, _ = cmd.Flags().GetString("community")
		if cmd.Flags().Changed("capacity") {
			capacity, _ := cmd.Flags().GetInt("capacity")
			form.Capacity = &capacity
		}

		var ev catalog.Event
		if err := postJSON(cmd.Context(), "/events", form, &ev); err != nil {
			return err
		}
		printSuccess("Event %q created (id %s)", ev.Name, ev.ID)
		return nil
	},
}

func init() {
	f := eventsCreateCmd.Flags()
	f.String("name", "", "event name")
	f.String("description", "", "what the event is about")
	f.String("date", "", "date, e.g. 2024-09-01")
	f.String("time", "", "start time, e.g. 18:30")
	f.String("location", "", "where it takes place")
	f.String("image", "", "image URL")
	f.String("community", "", "hosting community name")
	f.Int("capacity", 0, "maximum attendees")
	eventsCmd.AddCommand(eventsListCmd, eventsShowCmd, eventsCreateCmd)
}

func printEvent(e catalog.Event) {
	detail := fmt.Sprintf("%s %s · %s · %d going", e.Date, e.Time, e.Location, e.Attendees)
	if e.Capacity != nil {
		detail += fmt.Sprintf(" of %d", *e.Capacity)
	}
	printItem(e.ID, e.Name, detail)
}

// --- communities ---

var communitiesCmd = &cobra.Command{
	Use:   "communities",
	Short: "Browse and create communities",
}

var communitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List communities",
	RunE: func(cmd *cobra.Command, args []string) error {
		var comms []catalog.Community
		if err := getJSON(cmd.Context(), "/communities", &comms); err != nil {
			return err
		}
		if len(comms) == 0 {
			fmt.Fprintln(stdout, "No communities found.")
			return nil
		}
		for _, c := range comms {
			printItem(c.ID, c.Name, fmt.Sprintf("%d members", c.MemberCount))
		}
		return nil
	},
}

var communitiesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a community and its discussions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var d catalog.CommunityDetail
		if err := getJSON(cmd.Context(), "/communities/"+url.PathEscape(args[0]), &d); err != nil {
			return err
		}
		printItem(d.Community.ID, d.Community.Name, d.Community.Description)
		titles := make([]string, len(d.Threads))
		for i, t := range d.Threads {
			titles[i] = fmt.Sprintf("%s (%s, %d replies)", t.Title, t.Author, t.Replies)
		}
		printSection("Discussions", titles)
		return nil
	},
}

var communitiesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a community",
	RunE: func(cmd *cobra.Command, args []string) error {
		var form catalog.CommunityForm
		form.Name, _ = cmd.Flags().GetString("name")
		form.Description, _ = cmd.Flags().GetString("description")
		form.ImageURL, _ = cmd.Flags().GetString("image")

		var c catalog.Community
		if err := postJSON(cmd.Context(), "/communities", form, &c); err != nil {
			return err
		}
		printSuccess("Community %q created (id %s)", c.Name, c.ID)
		return nil
	},
}

func init() {
	communitiesCreateCmd.Flags().String("name", "", "community name")
	communitiesCreateCmd.Flags().String("description", "", "what the community is about")
	communitiesCreateCmd.Flags().String("image", "", "image URL")
	communitiesCmd.AddCommand(communitiesListCmd, communitiesShowCmd, communitiesCreateCmd)
}

// --- threads ---

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "Browse and start discussions",
}

var threadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent discussions",
	RunE: func(cmd *cobra.Command, args []string) error {
		var threads []catalog.ForumThread
		if err := getJSON(cmd.Context(), "/threads", &threads); err != nil {
			return err
		}
		for _, t := range threads {
			printItem(t.ID, t.Title, fmt.Sprintf("%s · %s · %d replies", t.Author, t.LastActivity, t.Replies))
		}
		return nil
	},
}

var threadsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a discussion",
	RunE: func(cmd *cobra.Command, args []string) error {
		var form catalog.ThreadForm
		form.Title, _ = cmd.Flags().GetString("title")
		form.Content, _ = cmd.Flags().GetString("content")
		form.CommunityID, _ = cmd.Flags().GetString("community")

		var t catalog.ForumThread
		if err := postJSON(cmd.Context(), "/threads", form, &t); err != nil {
			return err
		}
		printSuccess("Discussion %q started (id %s)", t.Title, t.ID)
		return nil
	},
}

func init() {
	threadsCreateCmd.Flags().String("title", "", "discussion title")
	threadsCreateCmd.Flags().String("content", "", "opening post")
	threadsCreateCmd.Flags().String("community", "", "community id to post in")
	threadsCmd.AddCommand(threadsListCmd, threadsCreateCmd)
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search events, discussions and communities",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		var res catalog.Results
		if err := getJSON(cmd.Context(), "/search?q="+url.QueryEscape(query), &res); err != nil {
			return err
		}

		if len(res.Events)+len(res.Threads)+len(res.Communities) == 0 {
			fmt.Fprintf(stdout, "No results found for %q.\n", query)
			return nil
		}
		for _, e := range res.Events {
			printEvent(e)
		}
		for _, t := range res.Threads {
			printItem(t.ID, t.Title, "discussion by "+t.Author)
		}
		for _, c := range res.Communities {
			printItem(c.ID, c.Name, "community")
		}
		return nil
	},
}

func getJSON(ctx context.Context, path string, v any) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	resp, err := client.get(ctx, path)
	if err != nil {
		return err
	}
	return decodeJSON(resp, v)
}

func postJSON(ctx context.Context, path string, body, v any) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	resp, err := client.post(ctx, path, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, v)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(stdout, "  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "$"+k.EnvVar))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: fmt.Sprintf(`Set a configuration value.

Valid keys: %s

The genai API key is a secret: set it with "synk config set-api-key".`, strings.Join(config.ValidKeys(), ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetAPIKeyCmd = &cobra.Command{
	Use:   "set-api-key <key>",
	Short: "Store the API key for the openai backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetAPIKey(args[0]); err != nil {
			return err
		}
		printSuccess("API key saved")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configSetAPIKeyCmd)
}
