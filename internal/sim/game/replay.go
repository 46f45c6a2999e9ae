package game

import (
	"fmt"

	"terrania.game/internal/persistence/snapshot"
	"terrania.game/internal/sim/catalogs"
)

// Mismatch is a journal entry whose recorded digest differs from the
// re-executed state.
type Mismatch struct {
	Seq  uint64
	Want string
	Got  string
}

func (m Mismatch) Error() string {
	return fmt.Sprintf("seq %d: digest %s, journal says %s", m.Seq, m.Got, m.Want)
}

// Replay re-executes a journal from its header. loadSave resolves the
// header's FromSave path for journals that started from a save; it may
// be nil when none do. Replay stops at the first digest mismatch.
func Replay(entries []JournalEntry, cats *catalogs.Catalogs, loadSave func(path string) (snapshot.SnapshotV1, error)) (*Game, int, error) {
	if len(entries) == 0 || entries[0].Header == nil {
		return nil, 0, fmt.Errorf("replay: journal does not start with a header")
	}
	h := entries[0].Header
	var g *Game
	var err error
	if h.FromSave != "" {
		if loadSave == nil {
			return nil, 0, fmt.Errorf("replay: journal starts from save %s", h.FromSave)
		}
		snap, lerr := loadSave(h.FromSave)
		if lerr != nil {
			return nil, 0, fmt.Errorf("replay: %w", lerr)
		}
		g, err = FromSnapshot(snap, cats, nil)
	} else {
		g, err = New(Config{ID: h.GameID, Seed: h.Seed, Tuning: h.Tuning}, cats, nil)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("replay: %w", err)
	}
	if d := g.Digest(); h.Digest != "" && d != h.Digest {
		return g, 0, Mismatch{Seq: h.Seq, Want: h.Digest, Got: d}
	}

	n := 0
	for _, e := range entries[1:] {
		if e.Header != nil {
			// A later header marks a resumed segment; the state must
			// already match it.
			if d := g.Digest(); e.Header.Digest != "" && d != e.Header.Digest {
				return g, n, Mismatch{Seq: e.Header.Seq, Want: e.Header.Digest, Got: d}
			}
			continue
		}
		if e.Request == nil {
			continue
		}
		if _, err := g.Handle(*e.Request); err != nil {
			return g, n, fmt.Errorf("replay seq %d: %w", e.Seq, err)
		}
		n++
		if d := g.Digest(); e.Digest != "" && d != e.Digest {
			return g, n, Mismatch{Seq: e.Seq, Want: e.Digest, Got: d}
		}
	}
	return g, n, nil
}

// Truncate keeps the journal prefix up to and including request seq.
// Segment headers recorded after seq are dropped too.
func Truncate(entries []JournalEntry, seq uint64) []JournalEntry {
	out := make([]JournalEntry, 0, len(entries))
	for _, e := range entries {
		at := e.Seq
		if e.Header != nil {
			at = e.Header.Seq
		}
		if at > seq {
			break
		}
		out = append(out, e)
	}
	return out
}
