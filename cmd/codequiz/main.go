package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codequiz/internal/app"
	"codequiz/internal/catalog"
	"codequiz/internal/devtools"
	"codequiz/internal/telemetry"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "codequiz:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	envFile     string
	apiURL      string
	timeout     time.Duration
	dataDir     string
	logPath     string
	catalogPath string
	ascii       bool
	debugLayout bool
	style       string
	motion      string
	ephemeral   bool
	mockBackend bool
	idToken     string
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	cmd := &cobra.Command{
		Use:           "codequiz",
		Short:         "Practice generated programming questions in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errors.New("codequiz needs an interactive terminal")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file with CODEQUIZ_* settings")
	pf.StringVar(&f.dataDir, "data-dir", "", "directory for the session store")
	pf.StringVar(&f.logPath, "log", "", "append JSON logs to this file")

	fl := cmd.Flags()
	fl.StringVar(&f.apiURL, "api-url", "", "quiz backend base URL")
	fl.DurationVar(&f.timeout, "timeout", 0, "per-request timeout")
	fl.StringVar(&f.catalogPath, "catalog", "", "language and topic catalog override (YAML)")
	fl.BoolVar(&f.ascii, "ascii", false, "draw borders and marks with ASCII only")
	fl.BoolVar(&f.debugLayout, "debug-layout", false, "show terminal size and UI debug logs")
	fl.StringVar(&f.style, "style", "", "color scheme: midnight, paper or terminal")
	fl.StringVar(&f.motion, "motion", "", "animation level: off, reduced or full")
	fl.BoolVar(&f.ephemeral, "ephemeral", false, "keep the session token in memory only")
	fl.BoolVar(&f.mockBackend, "mock-backend", false, "run against an in-process mock backend")
	fl.StringVar(&f.idToken, "id-token", "", "use this Google ID token instead of the browser sign-in")

	cmd.AddCommand(newLogoutCmd(&f), newMockBackendCmd(&f))
	return cmd
}

// loadConfig applies flags the user set over dotenv and environment values.
func loadConfig(cmd *cobra.Command, f rootFlags) (app.Config, error) {
	cfg, err := app.LoadConfig(f.envFile)
	if err != nil {
		return cfg, err
	}
	set := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if set("api-url") {
		cfg.APIBaseURL = f.apiURL
	}
	if set("timeout") {
		cfg.RequestTimeout = f.timeout
	}
	if set("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if set("log") {
		cfg.LogPath = f.logPath
	}
	if set("catalog") {
		cfg.CatalogPath = f.catalogPath
	}
	if set("ascii") {
		cfg.ASCIIOnly = f.ascii
	}
	if set("debug-layout") {
		cfg.DebugLayout = f.debugLayout
	}
	if set("style") {
		cfg.UI.StyleVariant = f.style
	}
	if set("motion") {
		cfg.UI.MotionLevel = f.motion
	}
	if set("ephemeral") {
		cfg.Ephemeral = f.ephemeral
	}
	if set("mock-backend") {
		cfg.MockBackend = f.mockBackend
	}
	if set("id-token") {
		cfg.IDToken = f.idToken
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogoutCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			if err := app.Logout(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newMockBackendCmd(f *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mock-backend",
		Short: "Serve the development mock of the quiz API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			logger := telemetry.NewWriterLogger(cmd.ErrOrStderr())
			if cfg.LogPath != "" {
				if logger, err = telemetry.NewJSONLogger(cfg.LogPath); err != nil {
					return err
				}
			}
			defer logger.Close()
			cat, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			srv, err := devtools.NewServer(devtools.Options{Catalog: cat, Logger: logger})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			_, err = srv.Serve(ctx, addr)
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	return cmd
}
