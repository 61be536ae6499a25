// Command wm scans, formats, lints and edits waymarks in a workspace.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/outfitter-dev/waymark/internal"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "wm",
		Usage:   "Find, format, lint and edit waymarks (// todo ::: like this)",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default .waymark/config.yaml, then the user config)",
				Sources: cli.EnvVars("WM_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"C"},
				Usage:   "Workspace root, overriding scan.root",
				Sources: cli.EnvVars("WM_ROOT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("WM_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Write machine-readable JSON",
			},
		},
		Commands: []*cli.Command{
			scanCommand(),
			fmtCommand(),
			lintCommand(),
			addCommand(),
			rmCommand(),
			editCommand(),
			indexCommand(),
			findCommand(),
			graphCommand(),
			watchCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

func main() {
	cmd := newApp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		stop()
		os.Exit(1)
	}
}

// loadConfig resolves and loads the config, then applies flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg, _, err := internal.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Scan.Root = root
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
		cfg.App.LogLevel = level
	}
	return cfg, nil
}

// openWorkspace loads the config and builds the workspace. CLI logs go to
// stderr so stdout stays clean for results.
func openWorkspace(cmd *cli.Command) (*internal.Workspace, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)
	return internal.NewWorkspace(cfg, logger)
}
