package repositories

import (
	"testing"

	"github.com/shiftline/emergency/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCodec(t *testing.T) {
	state := types.NewPlayerGameState("player-1")
	state.TotalRevenue = 4200
	state.LastArrivalsHour = 7
	state.CurrentPhase = types.PhaseReview
	state.Rooms = []*types.Room{
		{ID: "room-1", Tier: types.RoomTierHigh, Position: 3, IsOccupied: true,
			Patient: &types.Patient{ID: "patient-1", Type: types.PatientTypeA, Status: types.PatientStatusTreating}},
	}
	state.WaitingQueue = []*types.Patient{
		{ID: "patient-2", Type: types.PatientTypeC, WaitingTime: 2, Status: types.PatientStatusWaiting},
	}
	state.Stats.TreatedByType = types.TypeCounts{A: 1, B: 2, C: 3}

	data, err := encodeSnapshot(state)
	require.NoError(t, err)

	decoded, err := decodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestDecodeSnapshotGarbage(t *testing.T) {
	_, err := decodeSnapshot([]byte("not a snapshot"))
	assert.Error(t, err)
}
