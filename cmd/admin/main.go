// Command admin inspects saves, journals and the sqlite index offline.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "terrania.game/internal/persistence/log"
	"terrania.game/internal/persistence/snapshot"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/tables"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "rewind":
			rewindCmd(os.Args[2:])
			return
		case "tables":
			tablesCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "bootstrap":
			bootstrapCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints the header of every save under the data directory.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	gameID := fs.String("game", "", "game id (optional)")
	_ = fs.Parse(args)

	paths, err := findSaves(*dataDir, *gameID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, p := range paths {
		h, err := snapshot.ReadHeader(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", p, err)
			continue
		}
		printJSON(struct {
			Path string `json:"path"`
			snapshot.Header
		}{p, h})
	}
}

func findSaves(dataDir, gameID string) ([]string, error) {
	pattern := filepath.Join(dataDir, "games", "*", "saves", "*.snap.zst")
	if gameID != "" {
		pattern = filepath.Join(dataDir, "games", gameID, "saves", "*.snap.zst")
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

type playerSummary struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	VictoryPoints int      `json:"victory_points"`
	Regions       []int    `json:"regions"`
	Resources     string   `json:"resources"`
	Unlocked      []string `json:"unlocked,omitempty"`
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	savePath := fs.String("save", "", "save path")
	full := fs.Bool("full", false, "print the whole state")
	_ = fs.Parse(args)

	if strings.TrimSpace(*savePath) == "" {
		fmt.Fprintln(os.Stderr, "missing -save")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(*savePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read save:", err)
		os.Exit(1)
	}
	if *full {
		printJSON(snap)
		return
	}
	st := snap.State
	out := struct {
		Header  snapshot.Header `json:"header"`
		Seed    int64           `json:"seed"`
		Seq     uint64          `json:"seq"`
		Digest  string          `json:"digest"`
		Event   string          `json:"event,omitempty"`
		Pending int             `json:"pending_proposals"`
		Players []playerSummary `json:"players"`
	}{Header: snap.Header, Seed: snap.Seed, Seq: snap.Seq, Digest: game.StateDigest(st), Pending: len(st.Pending)}
	if st.CurrentEvent != nil {
		out.Event = fmt.Sprintf("%s (%d rounds left)", st.CurrentEvent.Name, st.EventTurnsLeft)
	}
	for _, p := range st.Players {
		out.Players = append(out.Players, playerSummary{
			ID:            p.ID,
			Name:          p.Name,
			VictoryPoints: p.VictoryPoints,
			Regions:       p.Regions,
			Resources:     p.Resources.String(),
			Unlocked:      p.Unlocked,
		})
	}
	printJSON(out)
	if out.Digest != snap.Header.Digest {
		fmt.Fprintf(os.Stderr, "warning: header digest %s does not match state digest %s\n", snap.Header.Digest, out.Digest)
		os.Exit(1)
	}
}

// rewindCmd replays a journal up to a sequence number and writes the
// resulting state as a new save.
func rewindCmd(args []string) {
	fs := flag.NewFlagSet("rewind", flag.ExitOnError)
	journalPath := fs.String("journal", "", "journal file or directory")
	configDir := fs.String("configs", "", "catalog directory (default: built-in catalogs)")
	toSeq := fs.Uint64("to_seq", 0, "last request seq to keep (required)")
	outPath := fs.String("out", "", "output save path (required)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*journalPath) == "" || strings.TrimSpace(*outPath) == "" || *toSeq == 0 {
		fmt.Fprintln(os.Stderr, "usage: admin rewind -journal <path> -to_seq <n> -out <save>")
		os.Exit(2)
	}
	cats, err := loadCatalogs(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	entries, err := persistlog.ReadJournal(*journalPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read journal:", err)
		os.Exit(1)
	}
	kept := game.Truncate(entries, *toSeq)
	g, n, err := game.Replay(kept, cats, snapshot.ReadSnapshot)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	h, err := g.Save(*outPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "write save:", err)
		os.Exit(1)
	}
	fmt.Printf("rewind ok: game=%s requests=%d seq=%d turn=%d digest=%s out=%s\n", h.GameID, n, g.Seq(), h.Turn, h.Digest, *outPath)
}

func tablesCmd(args []string) {
	fs := flag.NewFlagSet("tables", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	infos, err := tables.LoadManifest(filepath.Join(*dataDir, "tables.json"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read manifest:", err)
		os.Exit(1)
	}
	for _, info := range infos {
		printJSON(info)
	}
}

func loadCatalogs(dir string) (*catalogs.Catalogs, error) {
	if strings.TrimSpace(dir) == "" {
		return catalogs.Default(), nil
	}
	return catalogs.Load(dir)
}
