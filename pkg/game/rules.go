package game

import (
	"math/rand"

	"github.com/shiftline/emergency/pkg/game/types"
)

// canTreatMatrix encodes the capability superset ordering: high rooms host
// any acuity, medium rooms host B/C, low rooms host C only.
var canTreatMatrix = map[types.RoomTier]map[types.PatientType]bool{
	types.RoomTierHigh:   {types.PatientTypeA: true, types.PatientTypeB: true, types.PatientTypeC: true},
	types.RoomTierMedium: {types.PatientTypeB: true, types.PatientTypeC: true},
	types.RoomTierLow:    {types.PatientTypeC: true},
}

// CanTreat returns true if a room of the given tier can legally host a
// patient of the given type.
func CanTreat(patientType types.PatientType, roomTier types.RoomTier) bool {
	return canTreatMatrix[roomTier][patientType]
}

// PrimaryTier returns the designated room tier for a patient type.
func PrimaryTier(patientType types.PatientType) types.RoomTier {
	switch patientType {
	case types.PatientTypeA:
		return types.RoomTierHigh
	case types.PatientTypeB:
		return types.RoomTierMedium
	default:
		return types.RoomTierLow
	}
}

// IsMismatch returns true unless the room tier is the patient's primary tier.
func IsMismatch(patientType types.PatientType, roomTier types.RoomTier) bool {
	return PrimaryTier(patientType) != roomTier
}

// TreatmentTime returns the configured treatment duration in hours.
func TreatmentTime(patientType types.PatientType, params *types.GameParameters) int {
	return params.TreatmentDuration[patientType]
}

// StaffingCost sums the per-room cost by tier.
func StaffingCost(rooms []*types.Room, params *types.GameParameters) int64 {
	var total int64
	for _, room := range rooms {
		total += params.RoomCost[room.Tier]
	}
	return total
}

// RollD20 returns a uniform roll in 1..20.
func RollD20(rng *rand.Rand) int {
	return rng.Intn(20) + 1
}

// IsRiskRoll reports whether a roll triggers a risk event for the patient
// type. With the time-sensitive option enabled, every configured trigger v
// also matches v-1 .. v-waitingTime (clamped at 1), so risk escalates the
// longer the patient has waited. This is the exact predicate used for both
// simulation and risk highlighting.
func IsRiskRoll(patientType types.PatientType, roll int, params *types.GameParameters, waitingTime int, timeSensitive bool) bool {
	widening := 0
	if timeSensitive {
		widening = waitingTime
	}
	for _, trigger := range params.RiskTriggers[patientType] {
		low := trigger - widening
		if low < 1 {
			low = 1
		}
		if roll >= low && roll <= trigger {
			return true
		}
	}
	return false
}
