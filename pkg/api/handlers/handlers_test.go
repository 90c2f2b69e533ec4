package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shiftline/emergency/pkg/game/types"
	"github.com/shiftline/emergency/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdvancer struct {
	triggers []string
}

func (f *fakeAdvancer) TriggerAdvance(playerID, source string) error {
	f.triggers = append(f.triggers, playerID+"/"+source)
	return nil
}

func newTestRouter(documents store.DocumentStore, advancer Advancer) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/session", HandleGetSession(documents)).Methods(http.MethodGet)
	router.HandleFunc("/players", HandleListPlayers(documents)).Methods(http.MethodGet)
	router.HandleFunc("/players/{playerID}", HandleGetPlayer(documents)).Methods(http.MethodGet)
	router.HandleFunc("/players/{playerID}/advance", HandleAdvancePlayer(documents, advancer)).Methods(http.MethodPost)
	return router
}

func TestHandleGetSession(t *testing.T) {
	documents := store.NewInMemoryStore()
	router := newTestRouter(documents, &fakeAdvancer{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/session", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	require.NoError(t, documents.PutSession(context.Background(), &types.Session{
		ID:          "session-1",
		Status:      types.SessionStatusSequencing,
		CurrentHour: 5,
		Params:      types.DefaultGameParameters(),
	}))

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	session := &types.Session{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(session))
	assert.Equal(t, "session-1", session.ID)
	assert.Equal(t, 5, session.CurrentHour)
}

func TestHandleGetPlayer(t *testing.T) {
	documents := store.NewInMemoryStore()
	router := newTestRouter(documents, &fakeAdvancer{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/players/player-1", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	state := types.NewPlayerGameState("player-1")
	state.TotalRevenue = 1200
	require.NoError(t, documents.PutPlayerState(context.Background(), "player-1", state))

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/players/player-1", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	got := &types.PlayerGameState{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(got))
	assert.Equal(t, int64(1200), got.TotalRevenue)
}

func TestHandleListPlayers(t *testing.T) {
	documents := store.NewInMemoryStore()
	router := newTestRouter(documents, &fakeAdvancer{})
	ctx := context.Background()

	require.NoError(t, documents.PutPlayerState(ctx, "player-1", types.NewPlayerGameState("player-1")))
	require.NoError(t, documents.PutPlayerState(ctx, "player-2", types.NewPlayerGameState("player-2")))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/players", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	states := map[string]*types.PlayerGameState{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&states))
	assert.Len(t, states, 2)
}

func TestHandleAdvancePlayer(t *testing.T) {
	documents := store.NewInMemoryStore()
	advancer := &fakeAdvancer{}
	router := newTestRouter(documents, advancer)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/players/player-1/advance", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Empty(t, advancer.triggers)

	require.NoError(t, documents.PutPlayerState(context.Background(), "player-1", types.NewPlayerGameState("player-1")))

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/players/player-1/advance", nil))
	assert.Equal(t, http.StatusAccepted, recorder.Code)
	assert.Equal(t, []string{"player-1/monitor"}, advancer.triggers)
}
