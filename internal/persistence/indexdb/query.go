package indexdb

import (
	"context"
	"database/sql"
)

// Activity returns up to limit activity lines of a game, newest first.
func (s *SQLiteIndex) Activity(ctx context.Context, gameID string, limit int) ([]ActivityRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id,seq,idx,turn,type,COALESCE(player_name,''),action,COALESCE(details,'')
		 FROM activity WHERE game_id=? ORDER BY seq DESC, idx DESC LIMIT ?`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ActivityRow
	for rows.Next() {
		var r ActivityRow
		if err := rows.Scan(&r.GameID, &r.Seq, &r.Idx, &r.Turn, &r.Type, &r.PlayerName, &r.Action, &r.Details); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Achievements lists the unlocks of a game in unlock order.
func (s *SQLiteIndex) Achievements(ctx context.Context, gameID string) ([]AchievementRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id,player_id,player_name,achievement_id,name,turn
		 FROM achievements WHERE game_id=? ORDER BY turn, player_id, achievement_id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AchievementRow
	for rows.Next() {
		var r AchievementRow
		if err := rows.Scan(&r.GameID, &r.PlayerID, &r.PlayerName, &r.AchievementID, &r.Name, &r.Turn); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Saves lists indexed saves; an empty gameID lists every game.
func (s *SQLiteIndex) Saves(ctx context.Context, gameID string) ([]SaveRow, error) {
	var (
		rows *sql.Rows
		err  error
	)
	const cols = `SELECT path,game_id,turn,phase,players,winner,digest,saved_at FROM saves`
	if gameID == "" {
		rows, err = s.db.QueryContext(ctx, cols+` ORDER BY game_id, turn, saved_at`)
	} else {
		rows, err = s.db.QueryContext(ctx, cols+` WHERE game_id=? ORDER BY turn, saved_at`, gameID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SaveRow
	for rows.Next() {
		var r SaveRow
		if err := rows.Scan(&r.Path, &r.GameID, &r.Turn, &r.Phase, &r.Players, &r.Winner, &r.Digest, &r.SavedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CatalogDigest returns the stored digest of a catalog, or "" if absent.
func (s *SQLiteIndex) CatalogDigest(ctx context.Context, name string) (string, error) {
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM catalogs WHERE name=?`, name).Scan(&d)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return d, err
}
