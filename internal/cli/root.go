package cli

import (
	"context"

	"github.com/spf13/cobra"

	"moneymanager/internal/config"
	applog "moneymanager/internal/log"
)

// Runner carries the state shared by every command of one invocation.
type Runner struct {
	build    AppBuilder
	format   string
	envFile  string
	logLevel string

	cfg     *config.Config
	app     *App
	printer *Printer
}

// NewRootCommand returns the moneymanager command tree. build is called at
// most once per invocation, on the first command that needs the adapters.
func NewRootCommand(build AppBuilder) *cobra.Command {
	if build == nil {
		build = NewApp
	}
	r := &Runner{build: build}

	cmd := &cobra.Command{
		Use:   "moneymanager",
		Short: "Track personal expenses grouped by month",
		Long: `moneymanager records expenses with optional receipt images, groups
them by calendar month and summarises spending per year.

Configuration is read from the environment and from a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			p, err := NewPrinter(cmd.OutOrStdout(), r.format)
			if err != nil {
				return err
			}
			r.printer = p
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&r.format, "output", "o", FormatTable, "Output format (table, json, yaml)")
	cmd.PersistentFlags().StringVar(&r.envFile, "env-file", "", "Load environment from this file instead of ./.env")
	cmd.PersistentFlags().StringVar(&r.logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(
		r.loginCommand(),
		r.signupCommand(),
		r.logoutCommand(),
		r.whoamiCommand(),
		r.expensesCommand(),
		r.receiptsCommand(),
		r.dashboardCommand(),
		r.ratesCommand(),
	)
	r.closeAfter(cmd)
	return cmd
}

// closeAfter wraps every RunE in the tree so the app is released whether or
// not the command succeeds; cobra skips post-run hooks on error.
func (r *Runner) closeAfter(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			if err := run(c, args); err != nil {
				_ = r.Close()
				return err
			}
			return r.Close()
		}
	}
	for _, sub := range cmd.Commands() {
		r.closeAfter(sub)
	}
}

// App loads configuration and builds the adapters on first use. It also
// puts the app logger, tagged with the command path, on cmd's context.
func (r *Runner) App(cmd *cobra.Command) (*App, error) {
	if r.app == nil {
		if err := r.buildApp(cmd.Context()); err != nil {
			return nil, err
		}
	}
	logger := r.app.Logger.With("command", cmd.CommandPath())
	cmd.SetContext(applog.WithLogger(cmd.Context(), logger))
	return r.app, nil
}

func (r *Runner) buildApp(ctx context.Context) error {
	if err := LoadEnvFile(r.envFile); err != nil {
		return err
	}
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if r.logLevel != "" {
		cfg.LogLevel = r.logLevel
	}
	r.cfg = cfg
	app, err := r.build(ctx, cfg, SetupLogger(cfg))
	if err != nil {
		return err
	}
	r.app = app
	return nil
}

// signedIn builds the app, requires a session and loads the expenses.
func (r *Runner) signedIn(cmd *cobra.Command) (*App, error) {
	app, err := r.App(cmd)
	if err != nil {
		return nil, err
	}
	if err := app.RequireSession(cmd.Context()); err != nil {
		return nil, err
	}
	return app, nil
}

// Close releases the app, if one was built.
func (r *Runner) Close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}
