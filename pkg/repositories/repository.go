package repositories

import (
	"context"

	gametypes "github.com/shiftline/emergency/pkg/game/types"
)

// Repository persists player-state snapshots for after-session review and
// export. It is a write-behind sink; the replicated store remains the
// source of truth while a session runs.
type Repository interface {
	Close(ctx context.Context) error
	SavePlayerState(ctx context.Context, sessionID, playerID string, timestamp int64, state *gametypes.PlayerGameState) error
	LoadPlayerState(ctx context.Context, sessionID, playerID string) (*gametypes.PlayerGameState, error)
	SaveAllPlayerStates(ctx context.Context, sessionID string, timestamp int64, states map[string]*gametypes.PlayerGameState) error
}
