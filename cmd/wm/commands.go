package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/outfitter-dev/waymark/internal"
	"github.com/outfitter-dev/waymark/internal/format"
	"github.com/outfitter-dev/waymark/internal/index"
	"github.com/outfitter-dev/waymark/internal/lint"
	"github.com/outfitter-dev/waymark/internal/markservice"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Parse files live and print their waymarks",
		ArgsUsage: "[path...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			results, err := scanArgs(ctx, ws, cmd.Args().Slice())
			if err != nil {
				return err
			}
			return printRecords(os.Stdout, collect(results), cmd.Bool("json"))
		},
	}
}

func fmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "Re-render waymarks in canonical form",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "Write changes back to files"},
			&cli.BoolFlag{Name: "diff", Aliases: []string{"d"}, Usage: "Print a unified diff of the changes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			results, err := scanArgs(ctx, ws, cmd.Args().Slice())
			if err != nil {
				return err
			}

			var changed []string
			for _, res := range results {
				if res.Err != nil || len(res.Records) == 0 {
					continue
				}
				data, err := ws.Store.Read(res.Path)
				if err != nil {
					return err
				}
				before := string(data)
				after, ok := format.FormatText(before, ws.Scanner.Options(res.Path), ws.Format)
				if !ok {
					continue
				}
				changed = append(changed, res.Path)
				if cmd.Bool("diff") {
					fmt.Print(format.Diff(res.Path, before, after))
				}
				if cmd.Bool("write") {
					if err := ws.Store.Write(res.Path, []byte(after)); err != nil {
						return err
					}
				}
			}

			if cmd.Bool("json") {
				return writeJSON(os.Stdout, map[string]any{"changed": nonNil(changed), "written": cmd.Bool("write")})
			}
			if cmd.Bool("diff") {
				return nil
			}
			verb := "would format"
			if cmd.Bool("write") {
				verb = "formatted"
			}
			for _, p := range changed {
				fmt.Println(successStyle.Render(verb) + " " + p)
			}
			if len(changed) == 0 {
				fmt.Println(dimStyle.Render("all waymarks are formatted"))
			}
			return nil
		},
	}
}

func lintCommand() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Check waymarks against workspace conventions",
		ArgsUsage: "[path...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			results, err := scanArgs(ctx, ws, cmd.Args().Slice())
			if err != nil {
				return err
			}
			issues := ws.Linter.Lint(collect(results))

			if cmd.Bool("json") {
				if err := writeJSON(os.Stdout, nonNil(issues)); err != nil {
					return err
				}
			} else {
				for _, is := range issues {
					sev := warnStyle.Render(string(is.Severity))
					if is.Severity == lint.SeverityError {
						sev = errorStyle.Render(string(is.Severity))
					}
					loc := dimStyle.Render(fmt.Sprintf("%s:%d", is.File, is.Line))
					fmt.Printf("%s  %s  %s %s\n", loc, sev, is.Message, dimStyle.Render("["+is.Rule+"]"))
				}
			}
			if lint.HasErrors(issues) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func findCommand() *cli.Command {
	return &cli.Command{
		Name:  "find",
		Usage: "Query cached waymarks (the cache is synced first)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Marker type; aliases fold to the canonical name"},
			&cli.StringFlag{Name: "tag", Usage: "Tag, with or without #"},
			&cli.StringFlag{Name: "mention", Aliases: []string{"m"}, Usage: "Mention, with or without @"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "File path or directory prefix ending in /"},
			&cli.BoolFlag{Name: "flagged", Usage: "Only flagged (~) waymarks"},
			&cli.BoolFlag{Name: "starred", Usage: "Only starred (*) waymarks"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of results"},
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Full-text search instead of filtering"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			svc, err := syncedService(ctx, ws, false)
			if err != nil {
				return err
			}

			if q := cmd.String("search"); q != "" {
				limit := int(cmd.Int("limit"))
				if limit <= 0 {
					limit = 20
				}
				hits, err := svc.Search(ctx, q, limit)
				if err != nil {
					return err
				}
				if cmd.Bool("json") {
					return writeJSON(os.Stdout, nonNil(hits))
				}
				for _, h := range hits {
					fmt.Printf("%s  %s  %s\n", dimStyle.Render(fmt.Sprintf("%s:%d", h.File, h.Line)), typeStyle(h.Type).Render(h.Type), h.Snippet)
				}
				return nil
			}

			recs, err := svc.Find(ctx, index.Filter{
				Type:    cmd.String("type"),
				Tag:     cmd.String("tag"),
				Mention: cmd.String("mention"),
				File:    cmd.String("file"),
				Flagged: cmd.Bool("flagged"),
				Starred: cmd.Bool("starred"),
				Limit:   int(cmd.Int("limit")),
			})
			if err != nil {
				return err
			}
			return printRecords(os.Stdout, recs, cmd.Bool("json"))
		},
	}
}

func graphCommand() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "Print relation edges between waymarks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", Usage: "Only edges pointing at this #token"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			svc, err := syncedService(ctx, ws, false)
			if err != nil {
				return err
			}

			g, err := svc.Graph(ctx)
			if err != nil {
				return err
			}
			if tok := cmd.String("token"); tok != "" {
				edges, err := svc.Backlinks(ctx, tok)
				if err != nil {
					return err
				}
				g.Edges = edges
			}
			if cmd.Bool("json") {
				return writeJSON(os.Stdout, g)
			}

			anchors := make(map[string]string, len(g.Anchors))
			for _, a := range g.Anchors {
				anchors[a.Token] = fmt.Sprintf("%s:%d", a.File, a.Line)
			}
			for _, e := range g.Edges {
				target := anchors[e.Token]
				if target == "" {
					target = warnStyle.Render("(no anchor)")
				}
				fmt.Printf("%s  %s %s  %s\n",
					dimStyle.Render(fmt.Sprintf("%s:%d", e.File, e.Line)),
					titleStyle.Render(e.Kind), e.Token, dimStyle.Render("-> ")+target)
			}
			return nil
		},
	}
}

// syncedService brings the cache up to date and returns the service over it.
func syncedService(ctx context.Context, ws *internal.Workspace, withIDs bool) (*markservice.Service, error) {
	svc, err := ws.Service(withIDs)
	if err != nil {
		return nil, err
	}
	db, err := ws.Cache()
	if err != nil {
		return nil, err
	}
	stats, err := index.Sync(ctx, db, ws.Store, ws.Scanner, ws.Logger)
	if err != nil {
		return nil, err
	}
	ws.Logger.Debug("cache synced", "indexed", stats.Indexed, "removed", stats.Removed, "unchanged", stats.Unchanged)
	return svc, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// joinContent joins positional words into waymark content.
func joinContent(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
