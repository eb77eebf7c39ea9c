package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylla/famboard/internal/adapters/llm"
	"github.com/hylla/famboard/internal/adapters/metrics"
	serveradapter "github.com/hylla/famboard/internal/adapters/server"
	servercommon "github.com/hylla/famboard/internal/adapters/server/common"
	"github.com/hylla/famboard/internal/adapters/storage/sqlite"
	"github.com/hylla/famboard/internal/adapters/weather"
	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/config"
	"github.com/hylla/famboard/internal/domain"
	"github.com/hylla/famboard/internal/platform"
	"github.com/hylla/famboard/internal/state"
	"github.com/hylla/famboard/internal/tui"
)

// version is stamped at build time.
var version = "dev"

// program is the part of tea.Program the CLI drives.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests replace it.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// clock is the wall clock used for "today"; tests pin it.
var clock = time.Now

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stderr)
	if err := fang.Execute(ctx, root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run executes one command line against the given streams.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true
	return root.ExecuteContext(ctx)
}

// cliOptions holds the persistent flags shared by every command.
type cliOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	debug      bool

	stderr io.Writer
}

// newRootCommand builds the command tree. The bare command starts the TUI.
func newRootCommand(stderr io.Writer) *cobra.Command {
	opts := &cliOptions{stderr: stderr}

	root := &cobra.Command{
		Use:     "famboard",
		Short:   "Family coordination board for school runs, recipes and shopping",
		Long:    `famboard plans who drives the kids each day, keeps the family recipe box, and shares one shopping list.`,
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	appName := platform.DefaultAppName
	if v := strings.TrimSpace(os.Getenv("FAMBOARD_APP_NAME")); v != "" {
		appName = v
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", version == "dev", "use dev mode paths (<app>-dev)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug intents and the debug panel")

	root.AddCommand(
		newTUICommand(opts),
		newServeCommand(opts),
		newPathsCommand(opts),
		newWeekCommand(opts),
		newExtractCommand(opts),
		newIntentsCommand(opts),
	)
	return root
}

func newTUICommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func newServeCommand(opts *cliOptions) *cobra.Command {
	var httpBind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, MCP tools and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, "serve", func(ctx context.Context, rt *runtime) error {
				serveCfg := serveradapter.Config{
					HTTPBind:      rt.cfg.Server.HTTPBind,
					APIEndpoint:   rt.cfg.Server.APIEndpoint,
					MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
					MetricsPath:   rt.cfg.Server.MetricsPath,
					ServerName:    rt.appName,
					ServerVersion: version,
				}
				if cmd.Flags().Changed("http") {
					serveCfg.HTTPBind = httpBind
				}
				if cmd.Flags().Changed("api-endpoint") {
					serveCfg.APIEndpoint = apiEndpoint
				}
				if cmd.Flags().Changed("mcp-endpoint") {
					serveCfg.MCPEndpoint = mcpEndpoint
				}
				rt.logger.Info("serve endpoints resolved", "http", serveCfg.HTTPBind, "api", serveCfg.APIEndpoint, "mcp", serveCfg.MCPEndpoint)
				return serveCommandRunner(ctx, serveCfg, serveradapter.Dependencies{
					Store:   servercommon.NewStoreAdapter(rt.store, servercommon.StoreAdapterConfig{Now: clock}),
					Metrics: rt.observer.Handler(),
					Ready:   rt.repo.Ping,
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint (default from config)")
	return cmd
}

func newPathsCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and log paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rs, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", rs.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", rs.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", rs.configPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", rs.paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", rs.dbPath)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", rs.paths.LogDir)
			return nil
		},
	}
}

func newWeekCommand(opts *cliOptions) *cobra.Command {
	var offset int
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the driver plan and open warnings for a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, "week", func(_ context.Context, rt *runtime) error {
				if err := rt.signIn(); err != nil {
					return err
				}
				today := domain.DateOf(clock())
				rt.store.Dispatch(state.LoadHome{Today: today})
				rt.store.Wait()
				if offset != 0 {
					start := today.StartOfWeek(rt.weekStartsOn).AddDays(offset * domain.DaysPerWeek)
					rt.store.Dispatch(state.LoadWeekAssignments{WeekStart: start})
					rt.store.Wait()
				}
				return printWeek(cmd.OutOrStdout(), rt.store.State(), today)
			})
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "weeks relative to the current one")
	return cmd
}

func newExtractCommand(opts *cliOptions) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "extract [url]",
		Short: "Import a recipe from a web page and print it as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, "extract", func(_ context.Context, rt *runtime) error {
				if err := rt.signIn(); err != nil {
					return err
				}
				rt.store.Dispatch(state.ExtractRecipe{URL: strings.TrimSpace(args[0])})
				rt.store.Wait()
				recipe := rt.store.State().Recipe
				if recipe.Error != "" || recipe.Current == nil {
					return fmt.Errorf("extract recipe: %s", firstNonEmpty(recipe.Error, "no recipe returned"))
				}
				if save {
					rt.store.Dispatch(state.SaveRecipe{})
					rt.store.Wait()
					if msg := rt.store.State().Recipe.Error; msg != "" {
						return fmt.Errorf("save recipe: %s", msg)
					}
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), recipe.Current.Markdown())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "save the recipe to the family recipe box")
	return cmd
}

func newIntentsCommand(opts *cliOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "intents",
		Short: "List the intents the store accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := state.Catalog(opts.debug)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			for _, entry := range entries {
				suffix := ""
				if entry.Debug {
					suffix = " (debug)"
				}
				_, _ = fmt.Fprintf(out, "%s%s\n", entry.Name, suffix)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

// resolved is the outcome of flag, env and path resolution.
type resolved struct {
	appName      string
	devMode      bool
	paths        platform.Paths
	configPath   string
	dbPath       string
	dbOverridden bool
	env          config.EnvOverrides
}

func (o *cliOptions) resolve(cmd *cobra.Command) (resolved, error) {
	env, err := config.ParseEnv()
	if err != nil {
		return resolved{}, err
	}
	flags := cmd.Flags()
	devMode := o.devMode
	if env.DevMode != nil && !flags.Changed("dev") {
		devMode = *env.DevMode
	}
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: devMode,
	})
	if err != nil {
		return resolved{}, err
	}

	out := resolved{
		appName:    o.appName,
		devMode:    devMode,
		paths:      paths,
		configPath: o.configPath,
		dbPath:     o.dbPath,
		env:        env,
	}
	if out.configPath == "" {
		out.configPath = firstNonEmpty(strings.TrimSpace(env.ConfigPath), paths.ConfigPath)
	}
	out.dbOverridden = strings.TrimSpace(out.dbPath) != ""
	if !out.dbOverridden {
		out.dbPath = paths.DBPath
	}
	return out, nil
}

// runtime is one wired process: storage, adapters, orchestrator and store.
type runtime struct {
	appName      string
	cfg          config.Config
	logger       *runtimeLogger
	repo         *sqlite.Repository
	store        *app.Store
	observer     *metrics.Observer
	weekStartsOn time.Weekday
	closers      []func()
}

// withRuntime wires a runtime for command, runs fn, and tears everything down in reverse order.
func withRuntime(cmd *cobra.Command, opts *cliOptions, command string, fn func(context.Context, *runtime) error) error {
	rt, err := openRuntime(cmd, opts, command)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("command flow start", "command", command)
	if err := fn(cmd.Context(), rt); err != nil {
		rt.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	rt.logger.Info("command flow complete", "command", command)
	return nil
}

func openRuntime(cmd *cobra.Command, opts *cliOptions, command string) (*runtime, error) {
	rs, err := opts.resolve(cmd)
	if err != nil {
		return nil, err
	}

	defaultCfg := config.Default(rs.dbPath)
	cfg, err := config.Load(rs.configPath, defaultCfg)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", rs.configPath, err)
	}
	cfg = rs.env.Apply(cfg)
	if rs.dbOverridden {
		cfg.Database.Path = rs.dbPath
	}
	if cmd.Flags().Changed("debug") {
		cfg.Features.Debug = opts.debug
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %q: %w", rs.configPath, err)
	}
	weekStartsOn, err := cfg.Week.Weekday()
	if err != nil {
		return nil, err
	}

	logger, err := newRuntimeLogger(opts.stderr, rs.appName, rs.devMode, cfg.Logging, rs.paths.LogDir, clock)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// Runtime logs stay in the dev-file sink while the board owns the terminal.
		logger.SetConsoleEnabled(false)
	}
	rt := &runtime{appName: rs.appName, cfg: cfg, logger: logger, weekStartsOn: weekStartsOn}
	rt.closers = append(rt.closers, func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(opts.stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	})

	logger.Info("startup configuration resolved", "app", rs.appName, "dev_mode", rs.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", rs.configPath, "data_dir", rs.paths.DataDir, "db_path", rs.dbPath)
	logger.Info("configuration loaded", "config_path", rs.configPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level, "debug", cfg.Features.Debug)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		rt.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	rt.repo = repo
	rt.closers = append(rt.closers, func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
		}
	})
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")

	ports := app.Ports{
		Repo:         repo,
		Weather:      weather.New(weather.Config{BaseURL: cfg.Weather.BaseURL, Timeout: cfg.Weather.Timeout.Duration, RequestsPerSecond: cfg.Weather.RequestsPerSecond}),
		Entitlements: sqlite.NewEntitlements(repo, cfg.Subscription.Products),
		Sharing:      sqlite.NewSharing(repo, cfg.Sharing.InviteBaseURL),
	}
	client, err := llm.New(llm.Config{
		APIKey:            cfg.Extraction.APIKey(os.Getenv),
		BaseURL:           cfg.Extraction.BaseURL,
		Model:             cfg.Extraction.Model,
		Timeout:           cfg.Extraction.Timeout.Duration,
		RequestsPerSecond: cfg.Extraction.RequestsPerSecond,
		Now:               clock,
	})
	switch {
	case err == nil:
		ports.Extractor = client
		ports.Transformer = client
		logger.Debug("recipe extraction configured", "model", cfg.Extraction.Model)
	case errors.Is(err, app.ErrNotConfigured):
		logger.Warn("recipe extraction disabled", "api_key_env", cfg.Extraction.APIKeyEnv)
	default:
		rt.Close()
		return nil, fmt.Errorf("configure recipe extraction: %w", err)
	}

	orchestrator := app.NewOrchestrator(ports, uuid.NewString, clock, logger, app.OrchestratorConfig{
		Locations:    cfg.Weather.Locations,
		WeekStartsOn: weekStartsOn,
	})
	rt.store = app.NewStore(state.New(), orchestrator, app.StoreConfig{DebugEnabled: cfg.Features.Debug})
	rt.observer = metrics.NewObserver()
	detach := rt.observer.Attach(rt.store)
	rt.closers = append(rt.closers, detach, rt.store.Close)
	logger.Debug("store initialized", "debug", cfg.Features.Debug, "locations", len(cfg.Weather.Locations))
	return rt, nil
}

// signIn authenticates the configured identity and waits for the group load to settle.
func (rt *runtime) signIn() error {
	rt.store.Dispatch(state.AuthCompleted{UserID: rt.cfg.Identity.UserID, DisplayName: rt.cfg.Identity.DisplayName})
	rt.store.Wait()
	session := rt.store.State().Session
	switch {
	case session.Screen == state.ScreenMain:
		return nil
	case session.Error != "":
		return fmt.Errorf("load groups: %s", session.Error)
	default:
		return fmt.Errorf("user %s has no family group", rt.cfg.Identity.UserID)
	}
}

// Close releases resources in reverse acquisition order.
func (rt *runtime) Close() {
	if rt == nil {
		return
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

func runTUI(cmd *cobra.Command, opts *cliOptions) error {
	return withRuntime(cmd, opts, "tui", func(_ context.Context, rt *runtime) error {
		m := tui.NewModel(
			rt.store,
			tui.WithNow(clock),
			tui.WithWeekStart(rt.weekStartsOn),
			tui.WithProducts(rt.cfg.Subscription.Products),
		)
		defer m.Close()
		rt.store.Dispatch(state.AuthCompleted{UserID: rt.cfg.Identity.UserID, DisplayName: rt.cfg.Identity.DisplayName})

		rt.logger.Info("starting tui program loop")
		if _, err := programFactory(m).Run(); err != nil {
			rt.logger.Error("tui program terminated with error", "err", err)
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

func printWeek(out io.Writer, st state.State, today domain.Date) error {
	group, _ := st.Session.SelectedGroup()
	as := st.Assignments
	if as.Error != "" {
		return fmt.Errorf("load week: %s", as.Error)
	}
	names := st.DisplayNames()
	_, _ = fmt.Fprintf(out, "%s: week of %s\n", group.Name, as.WeekStart)
	_, _ = fmt.Fprintf(out, "%-12s %-20s %-20s\n", "day", "drop-off", "pick-up")
	for _, day := range as.Days {
		label := day.Date.Time().Format("Mon 01-02")
		if day.Date.Compare(today) == 0 {
			label += " *"
		}
		cells := make([]string, 0, len(domain.Slots))
		for _, slot := range domain.Slots {
			cells = append(cells, slotText(day.SlotStatus(slot, names)))
		}
		_, _ = fmt.Fprintf(out, "%-12s %-20s %-20s\n", label, cells[0], cells[1])
	}
	warnings := st.Home.Warnings
	if len(warnings) == 0 {
		_, _ = fmt.Fprintln(out, "no open warnings")
		return nil
	}
	_, _ = fmt.Fprintf(out, "warnings (%d):\n", len(warnings))
	for _, w := range warnings {
		_, _ = fmt.Fprintf(out, "  [%s] %s\n", w.Severity, w.Message())
	}
	return nil
}

func slotText(status domain.SlotStatus) string {
	switch status.Kind {
	case domain.SlotConfirmed:
		return status.Name + " (confirmed)"
	case domain.SlotUnconfirmed:
		return status.Name + " (unconfirmed)"
	default:
		return "unassigned"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
