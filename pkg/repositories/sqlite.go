package repositories

import (
	"context"
	"database/sql"
	"fmt"

	gametypes "github.com/shiftline/emergency/pkg/game/types"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	q := `
	CREATE TABLE IF NOT EXISTS player_snapshots (
		session_id TEXT NOT NULL,
		player_id TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		snapshot BLOB NOT NULL,
		PRIMARY KEY (session_id, player_id)
	);
	`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create snapshot table: %v", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SavePlayerState(ctx context.Context, sessionID, playerID string, timestamp int64, state *gametypes.PlayerGameState) error {
	blob, err := encodeSnapshot(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %v", err)
	}

	q := `
	INSERT OR REPLACE INTO player_snapshots (session_id, player_id, updated_at, snapshot)
	VALUES (?, ?, ?, ?);
	`
	if _, err := r.db.ExecContext(ctx, q, sessionID, playerID, timestamp, blob); err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) LoadPlayerState(ctx context.Context, sessionID, playerID string) (*gametypes.PlayerGameState, error) {
	q := `
	SELECT snapshot FROM player_snapshots WHERE session_id = ? AND player_id = ?;
	`
	var blob []byte
	if err := r.db.QueryRowContext(ctx, q, sessionID, playerID).Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan snapshot: %v", err)
	}

	return decodeSnapshot(blob)
}

func (r *SQLiteRepository) SaveAllPlayerStates(ctx context.Context, sessionID string, timestamp int64, states map[string]*gametypes.PlayerGameState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	for playerID, state := range states {
		blob, err := encodeSnapshot(state)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot for %s: %v", playerID, err)
		}
		q := `
		INSERT OR REPLACE INTO player_snapshots (session_id, player_id, updated_at, snapshot)
		VALUES (?, ?, ?, ?);
		`
		if _, err := tx.ExecContext(ctx, q, sessionID, playerID, timestamp, blob); err != nil {
			return fmt.Errorf("failed to insert snapshot for %s: %v", playerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}
