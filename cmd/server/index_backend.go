package main

import (
	"context"
	"path/filepath"

	"terrania.game/internal/persistence/indexdb"
	"terrania.game/internal/persistence/snapshot"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/tuning"
)

type runtimeIndex interface {
	game.ActivityLogger
	Close() error
	Flush(ctx context.Context) error
	Stats() indexdb.Stats
	UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error
	RecordAchievement(row indexdb.AchievementRow)
	RecordSave(path string, h snapshot.Header)
}

// openRuntimeIndex opens the sqlite read model under dataDir. The index
// never affects game determinism.
func openRuntimeIndex(dataDir string, disable bool) (runtimeIndex, error) {
	if disable {
		return nil, nil
	}
	idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index", "terrania.sqlite"))
	if err != nil {
		return nil, err
	}
	return idx, nil
}

var readHeader = snapshot.ReadHeader
