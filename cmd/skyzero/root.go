package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/config"
)

// cli holds state shared by every subcommand. It is filled in by the root
// command's PersistentPreRunE.
type cli struct {
	configPath string
	port       int
	dbPath     string
	logLevel   string

	cfg    config.Config
	logger zerolog.Logger
}

// newRootCmd creates the root command. Flags override the config file and
// SKYZERO_* environment variables.
func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "skyzero",
		Short:         "SkyZero airport emissions dashboard backend",
		Long:          "SkyZero: airport emissions telemetry and carbon offset planning",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "YAML config file (default: $SKYZERO_CONFIG)")
	flags.IntVar(&c.port, "port", 0, "HTTP server port (overrides config)")
	flags.StringVar(&c.dbPath, "db", "", `SQLite database path, ":memory:" for in-memory (overrides config)`)
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(
		newServeCmd(c),
		newSummaryCmd(c),
		newExportCmd(c),
		newStrategyCmd(c),
	)
	return cmd
}

func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = c.port
	}
	if flags.Changed("db") {
		cfg.Server.DBPath = c.dbPath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.cfg = cfg
	c.logger = config.NewLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	return nil
}
