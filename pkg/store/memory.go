package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/shiftline/emergency/pkg/game/types"
)

// InMemoryStore implements DocumentStore for single-process sessions and
// tests. Subscribers receive a deep copy of every written document on a
// separate goroutine, so a writer observes its own echo the same way a
// Firestore client does.
type InMemoryStore struct {
	lock sync.RWMutex

	session *types.Session
	players map[string]*types.PlayerGameState

	nextSubID   int
	playerSubs  map[string]map[int]PlayerStateHandler
	sessionSubs map[int]SessionHandler
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		players:     make(map[string]*types.PlayerGameState),
		playerSubs:  make(map[string]map[int]PlayerStateHandler),
		sessionSubs: make(map[int]SessionHandler),
	}
}

func (m *InMemoryStore) GetPlayerState(_ context.Context, playerID string) (*types.PlayerGameState, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	state, ok := m.players[playerID]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return state.Copy(), nil
}

func (m *InMemoryStore) PutPlayerState(_ context.Context, playerID string, state *types.PlayerGameState) error {
	if state == nil {
		return fmt.Errorf("player state is nil")
	}
	m.lock.Lock()
	m.players[playerID] = state.Copy()
	handlers, snapshot := m.playerNotification(playerID)
	m.lock.Unlock()

	notifyPlayerSubs(handlers, snapshot)
	return nil
}

func (m *InMemoryStore) UpdatePlayerState(_ context.Context, playerID string, updates []FieldUpdate) error {
	m.lock.Lock()
	state, ok := m.players[playerID]
	if !ok {
		m.lock.Unlock()
		return &ErrNotFound{}
	}
	updated := state.Copy()
	if err := applyFieldUpdates(updated, updates); err != nil {
		m.lock.Unlock()
		return fmt.Errorf("failed to update player state: %v", err)
	}
	m.players[playerID] = updated
	handlers, snapshot := m.playerNotification(playerID)
	m.lock.Unlock()

	notifyPlayerSubs(handlers, snapshot)
	return nil
}

func (m *InMemoryStore) SubscribePlayerState(_ context.Context, playerID string, handler PlayerStateHandler) (func(), error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.playerSubs[playerID] == nil {
		m.playerSubs[playerID] = make(map[int]PlayerStateHandler)
	}
	id := m.nextSubID
	m.nextSubID++
	m.playerSubs[playerID][id] = handler

	return func() {
		m.lock.Lock()
		defer m.lock.Unlock()
		delete(m.playerSubs[playerID], id)
	}, nil
}

func (m *InMemoryStore) ListPlayerStates(_ context.Context) (map[string]*types.PlayerGameState, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	states := make(map[string]*types.PlayerGameState, len(m.players))
	for playerID, state := range m.players {
		states[playerID] = state.Copy()
	}
	return states, nil
}

func (m *InMemoryStore) GetSession(_ context.Context) (*types.Session, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.session == nil {
		return nil, &ErrNotFound{}
	}
	return m.session.Copy(), nil
}

func (m *InMemoryStore) PutSession(_ context.Context, session *types.Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}
	m.lock.Lock()
	m.session = session.Copy()
	handlers, snapshot := m.sessionNotification()
	m.lock.Unlock()

	notifySessionSubs(handlers, snapshot)
	return nil
}

func (m *InMemoryStore) UpdateSession(_ context.Context, updates []FieldUpdate) error {
	m.lock.Lock()
	if m.session == nil {
		m.lock.Unlock()
		return &ErrNotFound{}
	}
	updated := m.session.Copy()
	if err := applyFieldUpdates(updated, updates); err != nil {
		m.lock.Unlock()
		return fmt.Errorf("failed to update session: %v", err)
	}
	m.session = updated
	handlers, snapshot := m.sessionNotification()
	m.lock.Unlock()

	notifySessionSubs(handlers, snapshot)
	return nil
}

func (m *InMemoryStore) SubscribeSession(_ context.Context, handler SessionHandler) (func(), error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.sessionSubs[id] = handler

	return func() {
		m.lock.Lock()
		defer m.lock.Unlock()
		delete(m.sessionSubs, id)
	}, nil
}

func (m *InMemoryStore) Close() error {
	return nil
}

// playerNotification collects the handlers and a snapshot to deliver.
// Callers must hold the lock.
func (m *InMemoryStore) playerNotification(playerID string) ([]PlayerStateHandler, *types.PlayerGameState) {
	handlers := make([]PlayerStateHandler, 0, len(m.playerSubs[playerID]))
	for _, handler := range m.playerSubs[playerID] {
		handlers = append(handlers, handler)
	}
	return handlers, m.players[playerID].Copy()
}

func (m *InMemoryStore) sessionNotification() ([]SessionHandler, *types.Session) {
	handlers := make([]SessionHandler, 0, len(m.sessionSubs))
	for _, handler := range m.sessionSubs {
		handlers = append(handlers, handler)
	}
	return handlers, m.session.Copy()
}

func notifyPlayerSubs(handlers []PlayerStateHandler, snapshot *types.PlayerGameState) {
	for _, handler := range handlers {
		go func(h PlayerStateHandler) {
			h(snapshot.Copy())
		}(handler)
	}
}

func notifySessionSubs(handlers []SessionHandler, snapshot *types.Session) {
	for _, handler := range handlers {
		go func(h SessionHandler) {
			h(snapshot.Copy())
		}(handler)
	}
}
