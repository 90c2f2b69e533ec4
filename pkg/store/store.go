// Package store defines the replicated document store the turn engine and
// reconciler are written against. Implementations deliver every remote
// mutation to subscribers, including the caller's own echoed writes.
package store

import (
	"context"

	"github.com/shiftline/emergency/pkg/game/types"
)

// FieldUpdate addresses part of a document by dotted path, e.g.
// {Path: "currentPhase", Value: "waiting"}. Partial writes let rescue and
// force-advance operations touch a few fields without clobbering
// concurrent substructure.
type FieldUpdate struct {
	Path  string
	Value interface{}
}

// PlayerStateHandler receives player-state snapshots.
type PlayerStateHandler func(state *types.PlayerGameState)

// SessionHandler receives session snapshots.
type SessionHandler func(session *types.Session)

// DocumentStore is the abstract replicated store contract.
type DocumentStore interface {
	GetPlayerState(ctx context.Context, playerID string) (*types.PlayerGameState, error)
	PutPlayerState(ctx context.Context, playerID string, state *types.PlayerGameState) error
	UpdatePlayerState(ctx context.Context, playerID string, updates []FieldUpdate) error
	// SubscribePlayerState fires the handler on every mutation of the
	// player's document, echoed writes included. The returned function
	// cancels the subscription.
	SubscribePlayerState(ctx context.Context, playerID string, handler PlayerStateHandler) (func(), error)
	ListPlayerStates(ctx context.Context) (map[string]*types.PlayerGameState, error)

	GetSession(ctx context.Context) (*types.Session, error)
	PutSession(ctx context.Context, session *types.Session) error
	UpdateSession(ctx context.Context, updates []FieldUpdate) error
	SubscribeSession(ctx context.Context, handler SessionHandler) (func(), error)

	Close() error
}

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}
