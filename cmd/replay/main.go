// Command replay re-executes a game journal and verifies the recorded
// state digests.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	persistlog "terrania.game/internal/persistence/log"
	"terrania.game/internal/persistence/snapshot"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game"
)

func main() {
	var (
		journalPath = flag.String("journal", "", "journal file or directory of journal-*.jsonl.zst segments")
		configDir   = flag.String("configs", "", "catalog directory (default: built-in catalogs)")
		toSeq       = flag.Uint64("to_seq", 0, "stop after this request seq (optional)")
		savePath    = flag.String("save", "", "save whose digest the final state must match (optional)")
	)
	flag.Parse()

	if strings.TrimSpace(*journalPath) == "" {
		fmt.Fprintln(os.Stderr, "missing -journal")
		os.Exit(2)
	}
	if err := run(*journalPath, *configDir, *toSeq, *savePath); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
}

func run(journalPath, configDir string, toSeq uint64, savePath string) error {
	cats := catalogs.Default()
	if strings.TrimSpace(configDir) != "" {
		var err error
		if cats, err = catalogs.Load(configDir); err != nil {
			return fmt.Errorf("load catalogs: %w", err)
		}
	}
	entries, err := persistlog.ReadJournal(journalPath)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if toSeq != 0 {
		entries = game.Truncate(entries, toSeq)
	}
	g, n, err := game.Replay(entries, cats, snapshot.ReadSnapshot)
	if err != nil {
		var mm game.Mismatch
		if errors.As(err, &mm) {
			return fmt.Errorf("digest mismatch at seq %d: got=%s want=%s (after %d requests)", mm.Seq, mm.Got, mm.Want, n)
		}
		return err
	}
	st := g.State()
	fmt.Printf("replay ok: game=%s requests=%d seq=%d turn=%d phase=%s digest=%s\n", g.ID(), n, g.Seq(), st.Turn, st.Phase, g.Digest())

	if strings.TrimSpace(savePath) == "" {
		return nil
	}
	h, err := snapshot.ReadHeader(savePath)
	if err != nil {
		return fmt.Errorf("read save: %w", err)
	}
	if h.Digest != g.Digest() {
		return fmt.Errorf("save %s digest %s != replayed %s", savePath, h.Digest, g.Digest())
	}
	fmt.Printf("save matches: %s\n", savePath)
	return nil
}
