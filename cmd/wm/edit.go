package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/outfitter-dev/waymark/internal/edit"
	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/ids"
)

func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "line", Aliases: []string{"l"}, Usage: "Any line of the waymark block"},
		&cli.StringFlag{Name: "id", Usage: "Embedded waymark id"},
	}
}

func targetFrom(cmd *cli.Command) (edit.Target, error) {
	t := edit.Target{Line: int(cmd.Int("line")), ID: cmd.String("id")}
	if t.Line <= 0 && t.ID == "" {
		return t, fmt.Errorf("--line or --id is required")
	}
	return t, nil
}

func printEdit(cmd *cli.Command, verb string, res *edit.Result) error {
	if cmd.Bool("json") {
		return writeJSON(os.Stdout, res)
	}
	fmt.Println(successStyle.Render(verb) + " " + recordLine(res.Record))
	return nil
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Insert a waymark using the file's comment syntax",
		ArgsUsage: "<file> <type> <content...>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "line", Aliases: []string{"l"}, Usage: "1-based line to insert before (default: append)"},
			&cli.BoolFlag{Name: "flagged", Usage: "Add the ~ signal"},
			&cli.BoolFlag{Name: "starred", Usage: "Add the * signal"},
			&cli.BoolFlag{Name: "id", Usage: "Embed a stable [[id]]"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 3 {
				return fmt.Errorf("usage: wm add <file> <type> <content...>")
			}
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			path, err := resolvePath(ws, cmd.Args().Get(0))
			if err != nil {
				return err
			}
			svc, err := ws.Service(cmd.Bool("id"))
			if err != nil {
				return err
			}
			res, err := svc.Add(ctx, path, edit.InsertSpec{
				Line:    int(cmd.Int("line")),
				Type:    cmd.Args().Get(1),
				Signals: grammar.Signals{Flagged: cmd.Bool("flagged"), Starred: cmd.Bool("starred")},
				Content: joinContent(cmd.Args().Slice()[2:]),
				WithID:  cmd.Bool("id"),
			})
			if err != nil {
				return err
			}
			return printEdit(cmd, "added", res)
		},
	}
}

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Remove a waymark block",
		ArgsUsage: "<file>",
		Flags:     targetFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("usage: wm rm <file> --line N | --id ID")
			}
			target, err := targetFrom(cmd)
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			path, err := resolvePath(ws, cmd.Args().First())
			if err != nil {
				return err
			}
			svc, err := ws.Service(false)
			if err != nil {
				return err
			}
			res, err := svc.Remove(ctx, path, target)
			if err != nil {
				return err
			}
			return printEdit(cmd, "removed", res)
		},
	}
}

func editCommand() *cli.Command {
	flags := append(targetFlags(),
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "New marker type"},
		&cli.StringFlag{Name: "content", Usage: "New content"},
		&cli.BoolFlag{Name: "flagged", Usage: "Set or clear (--flagged=false) the ~ signal"},
		&cli.BoolFlag{Name: "starred", Usage: "Set or clear (--starred=false) the * signal"},
	)
	return &cli.Command{
		Name:      "edit",
		Usage:     "Rewrite a waymark's type, signals or content",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("usage: wm edit <file> --line N | --id ID [--type T] [--content C]")
			}
			target, err := targetFrom(cmd)
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.Close()

			path, err := resolvePath(ws, cmd.Args().First())
			if err != nil {
				return err
			}
			svc, err := ws.Service(false)
			if err != nil {
				return err
			}

			var patch edit.Patch
			if cmd.IsSet("type") {
				t := cmd.String("type")
				patch.Type = &t
			}
			if cmd.IsSet("content") {
				c := cmd.String("content")
				patch.Content = &c
			}
			if cmd.IsSet("flagged") || cmd.IsSet("starred") {
				detail, err := svc.ScanFile(ctx, path)
				if err != nil {
					return err
				}
				sig := currentSignals(detail.Waymarks, target)
				if cmd.IsSet("flagged") {
					sig.Flagged = cmd.Bool("flagged")
				}
				if cmd.IsSet("starred") {
					sig.Starred = cmd.Bool("starred")
				}
				patch.Signals = &sig
			}
			if patch.Type == nil && patch.Content == nil && patch.Signals == nil {
				return fmt.Errorf("nothing to change: pass --type, --content, --flagged or --starred")
			}

			res, err := svc.Update(ctx, path, target, patch)
			if err != nil {
				return err
			}
			return printEdit(cmd, "updated", res)
		},
	}
}

// currentSignals returns the signals of the waymark target selects, so a
// flag that was not passed keeps its value.
func currentSignals(recs []grammar.Record, target edit.Target) grammar.Signals {
	id := strings.ToLower(strings.Trim(target.ID, "[]"))
	for _, r := range recs {
		if id != "" {
			if got, ok := ids.Find(r.ContentText); ok && got == id {
				return r.Signals
			}
			continue
		}
		if target.Line >= r.StartLine && target.Line <= r.EndLine {
			return r.Signals
		}
	}
	return grammar.Signals{}
}
