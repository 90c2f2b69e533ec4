package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shiftline/emergency/pkg/log"
	"github.com/shiftline/emergency/pkg/store"
)

// Advancer accepts advancement triggers for a player. The monitor's
// force-advance button is just one more concurrent caller of the same
// idempotent path the player's own client uses.
type Advancer interface {
	TriggerAdvance(playerID, source string) error
}

func HandleGetSession(documents store.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := documents.GetSession(r.Context())
		if err != nil {
			if store.IsNotFound(err) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get session: %v", err)
			http.Error(w, "Failed to get session", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if err := json.NewEncoder(w).Encode(session); err != nil {
			log.Error("failed to encode session: %v", err)
			http.Error(w, "Failed to encode session", http.StatusInternalServerError)
			return
		}
	}
}

func HandleListPlayers(documents store.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states, err := documents.ListPlayerStates(r.Context())
		if err != nil {
			log.Error("failed to list player states: %v", err)
			http.Error(w, "Failed to list player states", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if err := json.NewEncoder(w).Encode(states); err != nil {
			log.Error("failed to encode player states: %v", err)
			http.Error(w, "Failed to encode player states", http.StatusInternalServerError)
			return
		}
	}
}

func HandleGetPlayer(documents store.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := mux.Vars(r)["playerID"]
		state, err := documents.GetPlayerState(r.Context(), playerID)
		if err != nil {
			if store.IsNotFound(err) {
				http.Error(w, "Player not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get player state: %v", err)
			http.Error(w, "Failed to get player state", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if err := json.NewEncoder(w).Encode(state); err != nil {
			log.Error("failed to encode player state: %v", err)
			http.Error(w, "Failed to encode player state", http.StatusInternalServerError)
			return
		}
	}
}

func HandleAdvancePlayer(documents store.DocumentStore, advancer Advancer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := mux.Vars(r)["playerID"]
		if _, err := documents.GetPlayerState(r.Context(), playerID); err != nil {
			if store.IsNotFound(err) {
				http.Error(w, "Player not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get player state: %v", err)
			http.Error(w, "Failed to get player state", http.StatusInternalServerError)
			return
		}

		if err := advancer.TriggerAdvance(playerID, "monitor"); err != nil {
			log.Error("failed to enqueue advance trigger: %v", err)
			http.Error(w, "Failed to enqueue advance trigger", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusAccepted)
	}
}
