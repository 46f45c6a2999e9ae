// Package indexdb keeps a queryable sqlite read model of games: activity
// lines, unlocked achievements, saves and the catalogs in use. The JSONL
// logs and saves remain the source of truth; the index may drop writes.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"terrania.game/internal/persistence/snapshot"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/tuning"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropActivity    atomic.Uint64
	dropAchievement atomic.Uint64
	dropSave        atomic.Uint64
}

type reqKind int

const (
	reqActivity reqKind = iota + 1
	reqAchievement
	reqSave
	reqFlush
)

type req struct {
	kind reqKind

	activity    game.ActivityRecord
	achievement AchievementRow
	save        SaveRow
	done        chan struct{}
}

// AchievementRow is one unlock.
type AchievementRow struct {
	GameID        string `json:"game_id"`
	PlayerID      int    `json:"player_id"`
	PlayerName    string `json:"player_name"`
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Turn          int    `json:"turn"`
}

// SaveRow describes one written save.
type SaveRow struct {
	GameID  string `json:"game_id"`
	Path    string `json:"path"`
	Turn    int    `json:"turn"`
	Phase   string `json:"phase"`
	Players int    `json:"players"`
	Winner  int    `json:"winner"`
	Digest  string `json:"digest"`
	SavedAt string `json:"saved_at"`
}

// ActivityRow is a stored activity line.
type ActivityRow struct {
	GameID     string `json:"game_id"`
	Seq        uint64 `json:"seq"`
	Idx        int    `json:"idx"`
	Turn       int    `json:"turn"`
	Type       string `json:"type"`
	PlayerName string `json:"player_name,omitempty"`
	Action     string `json:"action"`
	Details    string `json:"details,omitempty"`
}

type Stats struct {
	QueueDepth      int    `json:"queue_depth"`
	QueueCapacity   int    `json:"queue_capacity"`
	DropActivity    uint64 `json:"drop_activity_total"`
	DropAchievement uint64 `json:"drop_achievement_total"`
	DropSave        uint64 `json:"drop_save_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS activity (
			game_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			turn INTEGER NOT NULL,
			type TEXT NOT NULL,
			player_name TEXT,
			action TEXT NOT NULL,
			details TEXT,
			PRIMARY KEY (game_id, seq, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_player ON activity(game_id, player_name, turn);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			game_id TEXT NOT NULL,
			player_id INTEGER NOT NULL,
			achievement_id TEXT NOT NULL,
			player_name TEXT NOT NULL,
			name TEXT NOT NULL,
			turn INTEGER NOT NULL,
			PRIMARY KEY (game_id, player_id, achievement_id)
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			path TEXT PRIMARY KEY,
			game_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			phase TEXT NOT NULL,
			players INTEGER NOT NULL,
			winner INTEGER NOT NULL,
			digest TEXT NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_game_turn ON saves(game_id, turn);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:      len(s.ch),
		QueueCapacity:   cap(s.ch),
		DropActivity:    s.dropActivity.Load(),
		DropAchievement: s.dropAchievement.Load(),
		DropSave:        s.dropSave.Load(),
	}
}

// WriteActivity queues one activity line. It never blocks the game.
func (s *SQLiteIndex) WriteActivity(rec game.ActivityRecord) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqActivity, activity: rec}:
	default:
		s.dropActivity.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordAchievement(row AchievementRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqAchievement, achievement: row}:
	default:
		s.dropAchievement.Add(1)
	}
}

func (s *SQLiteIndex) RecordSave(path string, h snapshot.Header) {
	if s == nil || s.closed.Load() || path == "" {
		return
	}
	row := SaveRow{
		GameID:  h.GameID,
		Path:    path,
		Turn:    h.Turn,
		Phase:   h.Phase,
		Players: h.Players,
		Winner:  h.Winner,
		Digest:  h.Digest,
		SavedAt: h.SavedAt,
	}
	select {
	case s.ch <- req{kind: reqSave, save: row}:
	default:
		s.dropSave.Add(1)
	}
}

// Flush waits until every write queued before it is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpsertCatalogs stores canonical JSON for each catalog and the tuning
// actually applied.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	add := func(name, digest string, v any) {
		b, err := json.Marshal(v)
		if err != nil || len(b) == 0 {
			return
		}
		if digest == "" {
			sum := sha256.Sum256(b)
			digest = hex.EncodeToString(sum[:])
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	if cats != nil {
		biomes := make([]catalogs.BiomeDef, 0, len(cats.Biomes.Order))
		for _, id := range cats.Biomes.Order {
			biomes = append(biomes, cats.Biomes.ByID[id])
		}
		add("biomes", cats.Biomes.Digest, biomes)

		structures := make([]catalogs.StructureDef, 0, len(cats.Structures.Order))
		for _, id := range cats.Structures.Order {
			structures = append(structures, cats.Structures.ByID[id])
		}
		add("structures", cats.Structures.Digest, structures)

		evs := make([]catalogs.EventDef, 0, len(cats.Events.Order))
		for _, id := range cats.Events.Order {
			evs = append(evs, cats.Events.ByID[id])
		}
		add("events", cats.Events.Digest, evs)

		achs := make([]catalogs.AchievementDef, 0, len(cats.Achievements.Order))
		for _, id := range cats.Achievements.Order {
			achs = append(achs, cats.Achievements.ByID[id])
		}
		add("achievements", cats.Achievements.Digest, achs)
	}
	add("tuning", "", tune)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type activityCursor struct {
	seq uint64
	idx int
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertActivity, _ := s.db.Prepare(`INSERT OR REPLACE INTO activity(game_id,seq,idx,turn,type,player_name,action,details) VALUES(?,?,?,?,?,?,?,?)`)
	insertAchievement, _ := s.db.Prepare(`INSERT OR IGNORE INTO achievements(game_id,player_id,achievement_id,player_name,name,turn) VALUES(?,?,?,?,?,?)`)
	insertSave, _ := s.db.Prepare(`INSERT OR REPLACE INTO saves(path,game_id,turn,phase,players,winner,digest,saved_at) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertActivity, insertAchievement, insertSave} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second

		// Several activity lines may share one request seq.
		cursor = map[string]activityCursor{}
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	// Queries share the single connection, so an idle transaction must
	// not stay open.
	tick := time.NewTicker(commitMaxWait)
	defer tick.Stop()

	for {
		var r req
		select {
		case <-tick.C:
			commit()
			continue
		case rr, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			r = rr
		}
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqActivity:
			a := r.activity
			c := cursor[a.GameID]
			if c.seq != a.Seq {
				c = activityCursor{seq: a.Seq}
			}
			exec(insertActivity, a.GameID, int64(a.Seq), c.idx, a.Turn, a.Type, a.PlayerName, a.Action, a.Details)
			c.idx++
			cursor[a.GameID] = c
		case reqAchievement:
			a := r.achievement
			exec(insertAchievement, a.GameID, a.PlayerID, a.AchievementID, a.PlayerName, a.Name, a.Turn)
		case reqSave:
			sv := r.save
			exec(insertSave, sv.Path, sv.GameID, sv.Turn, sv.Phase, sv.Players, sv.Winner, sv.Digest, sv.SavedAt)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}
}
