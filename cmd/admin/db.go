package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"terrania.game/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	gameID := fs.String("game", "", "game id (required for activity and achievements)")
	limit := fs.Int("limit", 20, "result limit (activity)")
	_ = fs.Parse(args)

	q := "saves"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "terrania.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if q != "saves" && q != "catalogs" && strings.TrimSpace(*gameID) == "" {
		fmt.Fprintln(os.Stderr, "missing -game")
		os.Exit(2)
	}

	var rows any
	switch q {
	case "saves":
		rows, err = idx.Saves(ctx, *gameID)
	case "activity":
		rows, err = idx.Activity(ctx, *gameID, *limit)
	case "achievements":
		rows, err = idx.Achievements(ctx, *gameID)
	case "catalogs":
		digests := map[string]string{}
		for _, name := range []string{"biomes", "structures", "events", "achievements", "tuning"} {
			var d string
			if d, err = idx.CatalogDigest(ctx, name); err != nil {
				break
			}
			digests[name] = d
		}
		rows = digests
	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (saves, activity, achievements, catalogs)\n", q)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	printJSON(rows)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
