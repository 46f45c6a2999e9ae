// Package game is the explicit session object of one match. It owns the
// state, the seeded random source and the notification port; every UI
// call runs to completion before returning.
//
// A Game is not safe for concurrent use. internal/sim/tables serializes
// access when several goroutines share one.
package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"terrania.game/internal/persistence/snapshot"
	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game/feature/actions"
	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/rng"
	"terrania.game/internal/sim/tuning"
)

type Config struct {
	ID     string
	Seed   int64
	Tuning tuning.Tuning
}

// Hooks receives every user-visible outcome. Implementations must not
// call back into the Game.
type Hooks interface {
	OnNotice(n protocol.Notice)
	OnActivity(e model.ActivityEntry)
	OnAchievement(playerID int, def catalogs.AchievementDef)
}

// NopHooks discards everything.
type NopHooks struct{}

func (NopHooks) OnNotice(protocol.Notice)                     {}
func (NopHooks) OnActivity(model.ActivityEntry)               {}
func (NopHooks) OnAchievement(int, catalogs.AchievementDef) {}

// HookFuncs adapts plain functions; nil fields are skipped.
type HookFuncs struct {
	Notice      func(protocol.Notice)
	Activity    func(model.ActivityEntry)
	Achievement func(int, catalogs.AchievementDef)
}

func (h HookFuncs) OnNotice(n protocol.Notice) {
	if h.Notice != nil {
		h.Notice(n)
	}
}

func (h HookFuncs) OnActivity(e model.ActivityEntry) {
	if h.Activity != nil {
		h.Activity(e)
	}
}

func (h HookFuncs) OnAchievement(playerID int, def catalogs.AchievementDef) {
	if h.Achievement != nil {
		h.Achievement(playerID, def)
	}
}

// ActivityLogger persists activity entries. Implemented in
// internal/persistence/log.
type ActivityLogger interface {
	WriteActivity(rec ActivityRecord) error
}

// Journal persists handled requests for replay. Implemented in
// internal/persistence/log.
type Journal interface {
	WriteCommand(entry JournalEntry) error
}

type ActivityRecord struct {
	GameID string `json:"game_id"`
	Seq    uint64 `json:"seq"`
	model.ActivityEntry
}

// JournalHeader opens a journal: it pins everything a replay needs to
// rebuild the starting point.
type JournalHeader struct {
	GameID   string        `json:"game_id"`
	Seed     int64         `json:"seed"`
	Tuning   tuning.Tuning `json:"tuning"`
	FromSave string        `json:"from_save,omitempty"`
	Seq      uint64        `json:"seq"`
	Digest   string        `json:"digest"`
}

type JournalEntry struct {
	Header  *JournalHeader    `json:"header,omitempty"`
	Seq     uint64            `json:"seq,omitempty"`
	Request *protocol.Request `json:"request,omitempty"`
	OK      bool              `json:"ok,omitempty"`
	Code    string            `json:"code,omitempty"`
	Digest  string            `json:"digest,omitempty"`
}

// Unlock is one achievement granted during a call.
type Unlock struct {
	PlayerID int
	Def      catalogs.AchievementDef
}

// Result answers one UI call. Error is reserved for internal
// inconsistencies; rule violations are reported as OK=false with a code.
type Result struct {
	OK         bool
	Code       string
	Message    string
	Warning    string
	Notices    []protocol.Notice
	Unlocked   []Unlock
	ProposalID string
}

type Game struct {
	id   string
	seed int64
	seq  uint64

	cats *catalogs.Catalogs
	tune tuning.Tuning
	rnd  *rng.Rand

	state *model.GameState

	hooks  Hooks
	logger *log.Logger

	// Optional sinks (may be nil).
	activityLog ActivityLogger
	journal     Journal
}

func New(cfg Config, cats *catalogs.Catalogs, hooks Hooks) (*Game, error) {
	if cats == nil {
		return nil, fmt.Errorf("new game: nil catalogs")
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Game{
		id:     cfg.ID,
		seed:   cfg.Seed,
		cats:   cats,
		tune:   cfg.Tuning,
		rnd:    rng.New(cfg.Seed),
		state:  &model.GameState{Winner: -1, SelectedRegion: model.NoRegion, NegotiationTarget: -1},
		hooks:  hooks,
		logger: log.New(io.Discard, "", 0),
	}, nil
}

// FromSnapshot resumes a saved game, continuing its random sequence.
func FromSnapshot(snap snapshot.SnapshotV1, cats *catalogs.Catalogs, hooks Hooks) (*Game, error) {
	if want := DigestsOf(cats); snap.Catalogs != want {
		return nil, fmt.Errorf("resume %s: catalogs differ from the save", snap.Header.GameID)
	}
	g, err := New(Config{ID: snap.Header.GameID, Seed: snap.Seed, Tuning: snap.Tuning}, cats, hooks)
	if err != nil {
		return nil, err
	}
	if len(snap.RNG) > 0 {
		if err := g.rnd.UnmarshalBinary(snap.RNG); err != nil {
			return nil, fmt.Errorf("resume %s: %w", snap.Header.GameID, err)
		}
	}
	if err := snap.State.CheckConsistency(); err != nil {
		return nil, fmt.Errorf("resume %s: %w", snap.Header.GameID, err)
	}
	g.state = snap.State.Clone()
	g.seq = snap.Seq
	return g, nil
}

func DigestsOf(cats *catalogs.Catalogs) snapshot.CatalogDigests {
	return snapshot.CatalogDigests{
		Biomes:       cats.Biomes.Digest,
		Structures:   cats.Structures.Digest,
		Events:       cats.Events.Digest,
		Achievements: cats.Achievements.Digest,
	}
}

// Snapshot captures everything needed to resume the game.
func (g *Game) Snapshot() (snapshot.SnapshotV1, error) {
	rs, err := g.rnd.MarshalBinary()
	if err != nil {
		return snapshot.SnapshotV1{}, fmt.Errorf("snapshot %s: %w", g.id, err)
	}
	st := g.state.Clone()
	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			GameID:  g.id,
			Turn:    st.Turn,
			Phase:   string(st.Phase),
			Players: len(st.Players),
			Winner:  st.Winner,
			Digest:  g.Digest(),
		},
		Seed:     g.seed,
		RNG:      rs,
		Seq:      g.seq,
		Tuning:   g.tune,
		Catalogs: DigestsOf(g.cats),
		State:    st,
	}, nil
}

func (g *Game) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	g.logger = l
}

func (g *Game) SetActivityLogger(l ActivityLogger) { g.activityLog = l }

// SetJournal attaches j and writes its header. fromSave names the save
// the game was resumed from, if any.
func (g *Game) SetJournal(j Journal, fromSave string) error {
	g.journal = j
	if j == nil {
		return nil
	}
	return j.WriteCommand(JournalEntry{Header: &JournalHeader{
		GameID:   g.id,
		Seed:     g.seed,
		Tuning:   g.tune,
		FromSave: fromSave,
		Seq:      g.seq,
		Digest:   g.Digest(),
	}})
}

func (g *Game) ID() string                   { return g.id }
func (g *Game) Seed() int64                  { return g.seed }
func (g *Game) Seq() uint64                  { return g.seq }
func (g *Game) Tuning() tuning.Tuning        { return g.tune }
func (g *Game) Catalogs() *catalogs.Catalogs { return g.cats }
func (g *Game) Started() bool                { return len(g.state.Players) > 0 }

// State returns a deep copy of the current state.
func (g *Game) State() *model.GameState { return g.state.Clone() }

// Digest is the sha256 of the canonical JSON encoding of the state.
func (g *Game) Digest() string { return StateDigest(g.state) }

func StateDigest(st *model.GameState) string {
	b, err := json.Marshal(st)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (g *Game) env() actions.Env {
	return actions.Env{Cats: g.cats, Tuning: g.tune, Rand: g.rnd}
}

func (g *Game) notify(res *Result, sev protocol.Severity, code, msg string) {
	n := protocol.Notice{Severity: sev, Code: code, Message: msg}
	res.Notices = append(res.Notices, n)
	g.hooks.OnNotice(n)
}

func (g *Game) fail(res Result, code, msg string) Result {
	if code == protocol.ErrGameOver {
		if w, ok := g.state.Player(g.state.Winner); ok {
			msg = fmt.Sprintf("the game is over: %s won with %d PV", w.Name, w.VictoryPoints)
		}
	}
	res.OK = false
	res.Code = code
	res.Message = msg
	g.notify(&res, protocol.SeverityError, code, msg)
	return res
}

func (g *Game) internal(res Result, err error) (Result, error) {
	g.logger.Printf("game %s: internal error: %v", g.id, err)
	res.OK = false
	res.Code = protocol.ErrInternal
	res.Message = "internal error"
	g.notify(&res, protocol.SeverityError, protocol.ErrInternal, res.Message)
	return res, err
}

func (g *Game) activity(kind string, p *model.Player, action, details string) {
	e := model.ActivityEntry{Type: kind, Action: action, Details: details, Turn: g.state.Turn}
	if p != nil {
		e.PlayerName = p.Name
	}
	g.state.PushActivity(e, g.tune.ActivityLogSize)
	g.hooks.OnActivity(e)
	if g.activityLog != nil {
		if err := g.activityLog.WriteActivity(ActivityRecord{GameID: g.id, Seq: g.seq, ActivityEntry: e}); err != nil {
			g.logger.Printf("game %s: activity log: %v", g.id, err)
		}
	}
}
