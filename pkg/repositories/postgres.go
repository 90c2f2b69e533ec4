package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	gametypes "github.com/shiftline/emergency/pkg/game/types"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository creates a Repository backed by postgres. The caller
// is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	q := `
	CREATE TABLE IF NOT EXISTS player_snapshots (
		session_id TEXT NOT NULL,
		player_id TEXT NOT NULL,
		updated_at BIGINT NOT NULL,
		snapshot BYTEA NOT NULL,
		PRIMARY KEY (session_id, player_id)
	);
	`
	if _, err := conn.Exec(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create snapshot table: %v", err)
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SavePlayerState(ctx context.Context, sessionID, playerID string, timestamp int64, state *gametypes.PlayerGameState) error {
	blob, err := encodeSnapshot(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %v", err)
	}

	q := `
	INSERT INTO player_snapshots (session_id, player_id, updated_at, snapshot) VALUES ($1, $2, $3, $4)
	ON CONFLICT (session_id, player_id) DO UPDATE SET updated_at = $3, snapshot = $4;
	`
	if _, err := r.conn.Exec(ctx, q, sessionID, playerID, timestamp, blob); err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}

	return nil
}

func (r *PostgresRepository) LoadPlayerState(ctx context.Context, sessionID, playerID string) (*gametypes.PlayerGameState, error) {
	q := `
	SELECT snapshot FROM player_snapshots WHERE session_id = $1 AND player_id = $2;
	`
	var blob []byte
	if err := r.conn.QueryRow(ctx, q, sessionID, playerID).Scan(&blob); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan snapshot: %v", err)
	}

	return decodeSnapshot(blob)
}

func (r *PostgresRepository) SaveAllPlayerStates(ctx context.Context, sessionID string, timestamp int64, states map[string]*gametypes.PlayerGameState) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	for playerID, state := range states {
		blob, err := encodeSnapshot(state)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot for %s: %v", playerID, err)
		}
		q := `
		INSERT INTO player_snapshots (session_id, player_id, updated_at, snapshot) VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, player_id) DO UPDATE SET updated_at = $3, snapshot = $4;
		`
		if _, err := tx.Exec(ctx, q, sessionID, playerID, timestamp, blob); err != nil {
			return fmt.Errorf("failed to insert snapshot for %s: %v", playerID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}
