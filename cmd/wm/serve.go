package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/outfitter-dev/waymark/internal"
	"github.com/outfitter-dev/waymark/internal/index"
)

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Bring the waymark cache up to date",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			db, err := ws.Cache()
			if err != nil {
				return err
			}
			stats, err := index.Sync(ctx, db, ws.Store, ws.Scanner, ws.Logger)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return writeJSON(os.Stdout, stats)
			}
			fmt.Printf("%s %d indexed, %d removed, %d unchanged",
				successStyle.Render("synced"), stats.Indexed, stats.Removed, stats.Unchanged)
			if stats.Failed > 0 {
				fmt.Print(", " + warnStyle.Render(fmt.Sprintf("%d failed", stats.Failed)))
			}
			fmt.Println()
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the cache current as files change",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			db, err := ws.Cache()
			if err != nil {
				return err
			}
			if _, err := index.Sync(ctx, db, ws.Store, ws.Scanner, ws.Logger); err != nil {
				return err
			}
			fmt.Println(titleStyle.Render("watching") + " " + ws.Store.Root())

			asJSON := cmd.Bool("json")
			err = index.Watch(ctx, db, ws.Store, ws.Scanner, ws.Logger, func(kind, path string) {
				if asJSON {
					_ = writeJSON(os.Stdout, map[string]string{"kind": kind, "path": path})
					return
				}
				style := successStyle
				if kind == index.EventRemoved {
					style = warnStyle
				}
				fmt.Println(style.Render(kind) + " " + path)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API and event stream while watching the workspace",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP port, overriding app.http.port", Sources: cli.EnvVars("WM_PORT")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.IsSet("port") {
				cfg.App.HTTP.Port = int(cmd.Int("port"))
				if err := cfg.App.HTTP.Validate(); err != nil {
					return fmt.Errorf("invalid --port: %w", err)
				}
			}
			if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve waymark tools over the Model Context Protocol on stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
		},
	}
}
