package session

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shiftline/emergency/pkg/game/types"
	"github.com/shiftline/emergency/pkg/queue"
	"github.com/shiftline/emergency/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *store.InMemoryStore) {
	t.Helper()
	documents := store.NewInMemoryStore()
	coordinator := NewCoordinator(NewCoordinatorOptions{
		Store:        documents,
		AdvanceQueue: queue.NewInMemoryQueue(100),
		RNG:          rand.New(rand.NewSource(42)),
		TickInterval: time.Millisecond,
		Dwell:        0,
		StuckTimeout: time.Hour,
	})
	return coordinator, documents
}

func readyState(playerID string, hour int) *types.PlayerGameState {
	return &types.PlayerGameState{
		PlayerID:           playerID,
		StaffingComplete:   true,
		CurrentPhase:       types.PhaseWaiting,
		HourComplete:       true,
		LastArrivalsHour:   hour,
		LastSequencingHour: hour,
		LastTreatmentHour:  hour,
		LastCompletedHour:  hour,
	}
}

func TestReadyForHour(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*types.PlayerGameState)
		want   bool
	}{
		{"fully caught up", func(s *types.PlayerGameState) {}, true},
		{"ahead of the hour", func(s *types.PlayerGameState) {
			s.LastArrivalsHour = 6
			s.LastSequencingHour = 6
			s.LastTreatmentHour = 6
			s.LastCompletedHour = 6
		}, true},
		{"wrong phase", func(s *types.PlayerGameState) { s.CurrentPhase = types.PhaseReview }, false},
		{"hour not acknowledged", func(s *types.PlayerGameState) { s.HourComplete = false }, false},
		{"arrivals behind", func(s *types.PlayerGameState) { s.LastArrivalsHour = 4 }, false},
		{"sequencing behind", func(s *types.PlayerGameState) { s.LastSequencingHour = 4 }, false},
		{"treatment behind", func(s *types.PlayerGameState) { s.LastTreatmentHour = 4 }, false},
		{"completion behind", func(s *types.PlayerGameState) { s.LastCompletedHour = 4 }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state := readyState("player-1", 5)
			tc.mutate(state)
			assert.Equal(t, tc.want, ReadyForHour(state, 5))
		})
	}
}

func TestTickStartsHourOneWhenAllStaffed(t *testing.T) {
	coordinator, documents := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, documents.PutSession(ctx, &types.Session{
		ID:     "session-1",
		Status: types.SessionStatusStaffing,
		Params: types.DefaultGameParameters(),
	}))

	unstaffed := types.NewPlayerGameState("player-1")
	require.NoError(t, documents.PutPlayerState(ctx, "player-1", unstaffed))
	require.NoError(t, coordinator.tick(ctx))

	session, err := documents.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.SessionStatusStaffing, session.Status)

	staffed := types.NewPlayerGameState("player-1")
	staffed.StaffingComplete = true
	require.NoError(t, documents.PutPlayerState(ctx, "player-1", staffed))
	require.NoError(t, coordinator.tick(ctx))

	session, err = documents.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.SessionStatusSequencing, session.Status)
	assert.Equal(t, 1, session.CurrentHour)
}

func TestTickAdvancesWhenAllReady(t *testing.T) {
	coordinator, documents := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, documents.PutSession(ctx, &types.Session{
		ID:          "session-1",
		Status:      types.SessionStatusSequencing,
		CurrentHour: 3,
		Params:      types.DefaultGameParameters(),
	}))
	require.NoError(t, documents.PutPlayerState(ctx, "player-1", readyState("player-1", 3)))

	lagging := readyState("player-2", 3)
	lagging.HourComplete = false
	require.NoError(t, documents.PutPlayerState(ctx, "player-2", lagging))

	// One player lagging holds the hour.
	require.NoError(t, coordinator.tick(ctx))
	session, err := documents.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, session.CurrentHour)

	require.NoError(t, documents.PutPlayerState(ctx, "player-2", readyState("player-2", 3)))
	require.NoError(t, coordinator.tick(ctx))
	session, err = documents.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, session.CurrentHour)
}

func TestTickCompletesSessionAfterFinalHour(t *testing.T) {
	coordinator, documents := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, documents.PutSession(ctx, &types.Session{
		ID:          "session-1",
		Status:      types.SessionStatusSequencing,
		CurrentHour: 24,
		Params:      types.DefaultGameParameters(),
	}))
	require.NoError(t, documents.PutPlayerState(ctx, "player-1", readyState("player-1", 24)))

	require.NoError(t, coordinator.tick(ctx))
	session, err := documents.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.SessionStatusCompleted, session.Status)
}

func TestTryAdvanceRescuesStuckPlayer(t *testing.T) {
	coordinator, documents := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, documents.PutSession(ctx, &types.Session{
		ID:          "session-1",
		Status:      types.SessionStatusSequencing,
		CurrentHour: 2,
		Params:      types.DefaultGameParameters(),
	}))

	// A player abandoned mid-roll at hour 2 with one patient still waiting.
	stuck := types.NewPlayerGameState("player-1")
	stuck.StaffingComplete = true
	stuck.CurrentPhase = types.PhaseRolling
	stuck.LastArrivalsHour = 2
	stuck.LastSequencingHour = 2
	stuck.LastTreatmentHour = 1
	stuck.LastCompletedHour = 1
	stuck.Version = 4
	stuck.WaitingQueue = []*types.Patient{
		{ID: "patient-1", Type: types.PatientTypeC, ArrivalHour: 2, Status: types.PatientStatusWaiting},
	}
	require.NoError(t, documents.PutPlayerState(ctx, "player-1", stuck))

	require.NoError(t, coordinator.TryAdvance(ctx, "player-1"))

	rescued, err := documents.GetPlayerState(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, types.PhaseWaiting, rescued.CurrentPhase)
	assert.True(t, rescued.HourComplete)
	assert.Equal(t, 2, rescued.LastTreatmentHour)
	assert.Equal(t, 2, rescued.LastCompletedHour)
	assert.Equal(t, int64(5), rescued.Version)
	assert.True(t, ReadyForHour(rescued, 2))
}

func TestTryAdvanceIgnoresPlayersMidSequencing(t *testing.T) {
	coordinator, documents := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, documents.PutSession(ctx, &types.Session{
		ID:          "session-1",
		Status:      types.SessionStatusSequencing,
		CurrentHour: 2,
		Params:      types.DefaultGameParameters(),
	}))

	sequencing := types.NewPlayerGameState("player-1")
	sequencing.CurrentPhase = types.PhaseSequencing
	sequencing.LastArrivalsHour = 2
	sequencing.Version = 4
	require.NoError(t, documents.PutPlayerState(ctx, "player-1", sequencing))

	require.NoError(t, coordinator.TryAdvance(ctx, "player-1"))

	state, err := documents.GetPlayerState(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, types.PhaseSequencing, state.CurrentPhase)
	assert.Equal(t, int64(4), state.Version)
}

func TestTriggerAdvanceFlowsThroughQueue(t *testing.T) {
	coordinator, documents := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, documents.PutSession(ctx, &types.Session{
		ID:          "session-1",
		Status:      types.SessionStatusSequencing,
		CurrentHour: 1,
		Params:      types.DefaultGameParameters(),
	}))

	stuck := types.NewPlayerGameState("player-1")
	stuck.StaffingComplete = true
	stuck.CurrentPhase = types.PhaseReview
	stuck.LastArrivalsHour = 1
	stuck.LastSequencingHour = 1
	stuck.LastTreatmentHour = 1
	require.NoError(t, documents.PutPlayerState(ctx, "player-1", stuck))

	require.NoError(t, coordinator.TriggerAdvance("player-1", "monitor"))
	coordinator.processAdvanceTriggers(ctx)

	state, err := documents.GetPlayerState(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, types.PhaseWaiting, state.CurrentPhase)
	assert.True(t, state.HourComplete)
}
