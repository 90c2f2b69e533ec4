package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/shiftline/emergency/pkg/game/types"
	"github.com/shiftline/emergency/pkg/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// FirestoreStore implements DocumentStore on Cloud Firestore. The session
// lives at sessions/{sessionID} and player states in its players
// subcollection. Firestore's snapshot listeners deliver the caller's own
// echoed writes, which is exactly the contract subscribers here expect.
type FirestoreStore struct {
	client    *firestore.Client
	sessionID string
}

type NewFirestoreStoreOptions struct {
	ProjectID       string
	CredentialsFile string
	SessionID       string
}

func NewFirestoreStore(ctx context.Context, opts NewFirestoreStoreOptions) (*FirestoreStore, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: opts.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase app: %v", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %v", err)
	}
	return &FirestoreStore{
		client:    client,
		sessionID: opts.SessionID,
	}, nil
}

func (f *FirestoreStore) sessionDoc() *firestore.DocumentRef {
	return f.client.Collection("sessions").Doc(f.sessionID)
}

func (f *FirestoreStore) playerDoc(playerID string) *firestore.DocumentRef {
	return f.sessionDoc().Collection("players").Doc(playerID)
}

func (f *FirestoreStore) GetPlayerState(ctx context.Context, playerID string) (*types.PlayerGameState, error) {
	snap, err := f.playerDoc(playerID).Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, &ErrNotFound{}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player state: %v", err)
	}
	state := &types.PlayerGameState{}
	if err := snap.DataTo(state); err != nil {
		return nil, fmt.Errorf("failed to decode player state: %v", err)
	}
	return state, nil
}

func (f *FirestoreStore) PutPlayerState(ctx context.Context, playerID string, state *types.PlayerGameState) error {
	if _, err := f.playerDoc(playerID).Set(ctx, state); err != nil {
		return fmt.Errorf("failed to put player state: %v", err)
	}
	return nil
}

func (f *FirestoreStore) UpdatePlayerState(ctx context.Context, playerID string, updates []FieldUpdate) error {
	fsUpdates := make([]firestore.Update, 0, len(updates))
	for _, update := range updates {
		fsUpdates = append(fsUpdates, firestore.Update{Path: update.Path, Value: update.Value})
	}
	if _, err := f.playerDoc(playerID).Update(ctx, fsUpdates); err != nil {
		return fmt.Errorf("failed to update player state: %v", err)
	}
	return nil
}

func (f *FirestoreStore) SubscribePlayerState(ctx context.Context, playerID string, handler PlayerStateHandler) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	iter := f.playerDoc(playerID).Snapshots(ctx)

	go func() {
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil {
					log.Error("Player state snapshot listener for %s stopped: %v", playerID, err)
				}
				return
			}
			if !snap.Exists() {
				continue
			}
			state := &types.PlayerGameState{}
			if err := snap.DataTo(state); err != nil {
				log.Error("Failed to decode player state snapshot for %s: %v", playerID, err)
				continue
			}
			handler(state)
		}
	}()

	return cancel, nil
}

func (f *FirestoreStore) ListPlayerStates(ctx context.Context) (map[string]*types.PlayerGameState, error) {
	states := make(map[string]*types.PlayerGameState)
	iter := f.sessionDoc().Collection("players").Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list player states: %v", err)
		}
		state := &types.PlayerGameState{}
		if err := snap.DataTo(state); err != nil {
			return nil, fmt.Errorf("failed to decode player state %s: %v", snap.Ref.ID, err)
		}
		states[snap.Ref.ID] = state
	}
	return states, nil
}

func (f *FirestoreStore) GetSession(ctx context.Context) (*types.Session, error) {
	snap, err := f.sessionDoc().Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, &ErrNotFound{}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %v", err)
	}
	session := &types.Session{}
	if err := snap.DataTo(session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %v", err)
	}
	return session, nil
}

func (f *FirestoreStore) PutSession(ctx context.Context, session *types.Session) error {
	if _, err := f.sessionDoc().Set(ctx, session); err != nil {
		return fmt.Errorf("failed to put session: %v", err)
	}
	return nil
}

func (f *FirestoreStore) UpdateSession(ctx context.Context, updates []FieldUpdate) error {
	fsUpdates := make([]firestore.Update, 0, len(updates))
	for _, update := range updates {
		fsUpdates = append(fsUpdates, firestore.Update{Path: update.Path, Value: update.Value})
	}
	if _, err := f.sessionDoc().Update(ctx, fsUpdates); err != nil {
		return fmt.Errorf("failed to update session: %v", err)
	}
	return nil
}

func (f *FirestoreStore) SubscribeSession(ctx context.Context, handler SessionHandler) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	iter := f.sessionDoc().Snapshots(ctx)

	go func() {
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil {
					log.Error("Session snapshot listener stopped: %v", err)
				}
				return
			}
			if !snap.Exists() {
				continue
			}
			session := &types.Session{}
			if err := snap.DataTo(session); err != nil {
				log.Error("Failed to decode session snapshot: %v", err)
				continue
			}
			handler(session)
		}
	}()

	return cancel, nil
}

func (f *FirestoreStore) Close() error {
	return f.client.Close()
}
