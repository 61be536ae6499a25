package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/outfitter-dev/waymark/internal"
	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/scan"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// recordLine renders one record as "file:line  ~*type  first content line".
func recordLine(r grammar.Record) string {
	loc := dimStyle.Render(fmt.Sprintf("%s:%d", r.File, r.StartLine))
	first, _, more := strings.Cut(r.ContentText, "\n")
	if more {
		first += dimStyle.Render(" …")
	}
	return fmt.Sprintf("%s  %s%s  %s", loc, signalStyle.Render(r.Signals.Prefix()), typeStyle(r.Type).Render(r.Type), first)
}

func printRecords(w io.Writer, recs []grammar.Record, asJSON bool) error {
	if asJSON {
		if recs == nil {
			recs = []grammar.Record{}
		}
		return writeJSON(w, recs)
	}
	for _, r := range recs {
		fmt.Fprintln(w, recordLine(r))
	}
	return nil
}

// resolvePath turns a command-line path into a workspace path.
func resolvePath(ws *internal.Workspace, arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	return ws.Store.Rel(abs)
}

// scanArgs scans every file named by args, walking directories. No args
// means the whole workspace.
func scanArgs(ctx context.Context, ws *internal.Workspace, args []string) ([]scan.FileResult, error) {
	if len(args) == 0 {
		return ws.Scanner.ScanWorkspace(ctx, ws.Store, "")
	}
	var (
		out   []scan.FileResult
		files []string
	)
	for _, arg := range args {
		rel, err := resolvePath(ws, arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			if rel == "." {
				rel = ""
			}
			res, err := ws.Scanner.ScanWorkspace(ctx, ws.Store, rel)
			if err != nil {
				return nil, err
			}
			out = append(out, res...)
			continue
		}
		files = append(files, rel)
	}
	res, err := ws.Scanner.ScanPaths(ctx, ws.Store, files)
	if err != nil {
		return nil, err
	}
	return append(out, res...), nil
}

// collect flattens scan results, reporting unreadable files on stderr.
func collect(results []scan.FileResult) []grammar.Record {
	var recs []grammar.Record
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintln(os.Stderr, warnStyle.Render("skip ")+res.Path+": "+res.Err.Error())
			continue
		}
		recs = append(recs, res.Records...)
	}
	return recs
}
