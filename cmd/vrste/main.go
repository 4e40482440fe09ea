// Command vrste runs the species catalog.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/vrste/internal/config"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{closeLog: func() {}}

	var (
		dbPath    string
		logPath   string
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:          "vrste",
		Short:        "A catalog of species",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("db") {
				cfg.DBPath = dbPath
			}
			if flags.Changed("log") {
				cfg.LogPath = logPath
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = logFormat
			}
			if flags.Lookup("addr") != nil && flags.Changed("addr") {
				cfg.Addr, _ = flags.GetString("addr")
			}
			if flags.Lookup("user") != nil && flags.Changed("user") {
				cfg.AdminUser, _ = flags.GetString("user")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closeLog, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			a.cfg, a.logger, a.closeLog = cfg, logger, closeLog
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.closeLog()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&dbPath, "db", "d", "vrste.sqlite3", "SQLite database path")
	pf.StringVarP(&logPath, "log", "l", "", "log file path (default: stdout/stderr only)")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(
		newServeCmd(a),
		newInitCmd(a),
		newUserCmd(a),
		newSeedCmd(a),
	)

	return root
}
