package handlers

import (
	"net/http"

	"github.com/shiftline/emergency/pkg/game/types"
	"github.com/shiftline/emergency/pkg/log"
	"github.com/shiftline/emergency/pkg/store"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// WatchEvent is one update pushed to a monitor websocket.
type WatchEvent struct {
	Kind     string                 `json:"kind"` // "session" or "player"
	PlayerID string                 `json:"playerId,omitempty"`
	Session  *types.Session         `json:"session,omitempty"`
	State    *types.PlayerGameState `json:"state,omitempty"`
}

// HandleWatch streams session and player-state updates over a websocket.
// Every store mutation, echoed writes included, produces one event.
func HandleWatch(documents store.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Error("failed to accept websocket: %v", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		events := make(chan WatchEvent, 64)

		unsubSession, err := documents.SubscribeSession(ctx, func(session *types.Session) {
			select {
			case events <- WatchEvent{Kind: "session", Session: session}:
			default:
				log.Warn("Dropping session event for slow watcher")
			}
		})
		if err != nil {
			log.Error("failed to subscribe to session: %v", err)
			return
		}
		defer unsubSession()

		states, err := documents.ListPlayerStates(ctx)
		if err != nil {
			log.Error("failed to list player states: %v", err)
			return
		}
		for playerID, state := range states {
			if err := wsjson.Write(ctx, conn, WatchEvent{Kind: "player", PlayerID: playerID, State: state}); err != nil {
				log.Debug("Watcher write failed: %v", err)
				return
			}
			unsubPlayer, err := documents.SubscribePlayerState(ctx, playerID, func(playerID string) store.PlayerStateHandler {
				return func(state *types.PlayerGameState) {
					select {
					case events <- WatchEvent{Kind: "player", PlayerID: playerID, State: state}:
					default:
						log.Warn("Dropping player event for slow watcher")
					}
				}
			}(playerID))
			if err != nil {
				log.Error("failed to subscribe to player %s: %v", playerID, err)
				return
			}
			defer unsubPlayer()
		}

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case event := <-events:
				if err := wsjson.Write(ctx, conn, event); err != nil {
					log.Debug("Watcher write failed: %v", err)
					return
				}
			}
		}
	}
}
