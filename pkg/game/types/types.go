package types

// PatientType is a patient acuity class. Type A is the highest acuity,
// type C the lowest.
type PatientType string

const (
	PatientTypeA PatientType = "A"
	PatientTypeB PatientType = "B"
	PatientTypeC PatientType = "C"
)

// PatientTypes lists all acuity classes in priority order (A before B before C).
var PatientTypes = []PatientType{PatientTypeA, PatientTypeB, PatientTypeC}

// RoomTier is a room capability class. Higher tiers can treat lower-acuity
// patients, not the other way around.
type RoomTier string

const (
	RoomTierHigh   RoomTier = "high"
	RoomTierMedium RoomTier = "medium"
	RoomTierLow    RoomTier = "low"
)

type PatientStatus string

const (
	PatientStatusArriving      PatientStatus = "arriving"
	PatientStatusWaiting       PatientStatus = "waiting"
	PatientStatusTreating      PatientStatus = "treating"
	PatientStatusTreated       PatientStatus = "treated"
	PatientStatusLWBS          PatientStatus = "lwbs"
	PatientStatusCardiacArrest PatientStatus = "cardiac_arrest"
	PatientStatusTurnedAway    PatientStatus = "turned_away"
)

// Terminal returns true for statuses that are never mutated again.
func (s PatientStatus) Terminal() bool {
	switch s {
	case PatientStatusTreated, PatientStatusLWBS, PatientStatusCardiacArrest, PatientStatusTurnedAway:
		return true
	}
	return false
}

// Phase is the turn-resolution state a player's game state is in.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseArriving   Phase = "arriving"
	PhaseSequencing Phase = "sequencing"
	PhaseRolling    Phase = "rolling"
	PhaseTreating   Phase = "treating"
	PhaseReview     Phase = "review"
)

// phaseOrder is the canonical ordering used to detect phase regressions
// within the same hour.
var phaseOrder = map[Phase]int{
	PhaseWaiting:    0,
	PhaseArriving:   1,
	PhaseSequencing: 2,
	PhaseRolling:    3,
	PhaseTreating:   4,
	PhaseReview:     5,
}

// Order returns the canonical position of the phase, or -1 for an
// unrecognized phase.
func (p Phase) Order() int {
	order, ok := phaseOrder[p]
	if !ok {
		return -1
	}
	return order
}

// TypeCounts is a per-acuity-type count triple.
type TypeCounts struct {
	A int `json:"a" firestore:"a"`
	B int `json:"b" firestore:"b"`
	C int `json:"c" firestore:"c"`
}

// Get returns the count for the given patient type.
func (c TypeCounts) Get(t PatientType) int {
	switch t {
	case PatientTypeA:
		return c.A
	case PatientTypeB:
		return c.B
	case PatientTypeC:
		return c.C
	}
	return 0
}

// Add increments the count for the given patient type.
func (c *TypeCounts) Add(t PatientType, n int) {
	switch t {
	case PatientTypeA:
		c.A += n
	case PatientTypeB:
		c.B += n
	case PatientTypeC:
		c.C += n
	}
}

// Total returns the sum across all types.
func (c TypeCounts) Total() int {
	return c.A + c.B + c.C
}
