package workers

import (
	"context"
	"time"

	"github.com/shiftline/emergency/pkg/game/types"
	"github.com/shiftline/emergency/pkg/log"
	"github.com/shiftline/emergency/pkg/repositories"
	"github.com/shiftline/emergency/pkg/store"
)

type SaveStateWorker struct {
	repository    repositories.Repository
	store         store.DocumentStore
	sessionID     string
	saveStateChan <-chan SavePlayerStateRequest
	interval      time.Duration
}

type NewSaveStateWorkerOptions struct {
	Repository    repositories.Repository
	Store         store.DocumentStore
	SessionID     string
	SaveStateChan <-chan SavePlayerStateRequest
	Interval      time.Duration
}

type SavePlayerStateRequest struct {
	Timestamp int64
	PlayerID  string
	State     *types.PlayerGameState
}

// NewSaveStateWorker creates a new SaveStateWorker. The worker processes
// save requests from the turn flow and periodically snapshots every
// player's replicated state to the repository.
func NewSaveStateWorker(opts NewSaveStateWorkerOptions) *SaveStateWorker {
	return &SaveStateWorker{
		repository:    opts.Repository,
		store:         opts.Store,
		sessionID:     opts.SessionID,
		saveStateChan: opts.SaveStateChan,
		interval:      opts.Interval,
	}
}

func (w *SaveStateWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case saveRequest := <-w.saveStateChan:
			w.savePlayerState(ctx, saveRequest)
		case t := <-ticker.C:
			states, err := w.store.ListPlayerStates(ctx)
			if err != nil {
				log.Error("Failed to list player states: %v", err)
				continue
			}
			w.saveAllPlayerStates(ctx, t.UnixMilli(), states)
		}
	}
}

func (w *SaveStateWorker) savePlayerState(ctx context.Context, saveRequest SavePlayerStateRequest) {
	err := w.repository.SavePlayerState(ctx, w.sessionID, saveRequest.PlayerID, saveRequest.Timestamp, saveRequest.State)
	if err != nil {
		log.Error("Failed to save player state: %v", err)
	}
}

func (w *SaveStateWorker) saveAllPlayerStates(ctx context.Context, timestamp int64, states map[string]*types.PlayerGameState) {
	err := w.repository.SaveAllPlayerStates(ctx, w.sessionID, timestamp, states)
	if err != nil {
		log.Error("Failed to save player states: %v", err)
	}
}
