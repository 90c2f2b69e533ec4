package game

// RejectReason says why a turn transition did nothing.
type RejectReason string

const (
	RejectStaleWatermark   RejectReason = "stale_watermark"
	RejectWrongPhase       RejectReason = "wrong_phase"
	RejectUnknownPatient   RejectReason = "unknown_patient"
	RejectUnknownRoom      RejectReason = "unknown_room"
	RejectRoomOccupied     RejectReason = "room_occupied"
	RejectIncompatibleTier RejectReason = "incompatible_tier"
	RejectTreatmentStarted RejectReason = "treatment_started"
	RejectOverBudget       RejectReason = "over_budget"
	RejectPositionTaken    RejectReason = "position_taken"
	RejectStaffingClosed   RejectReason = "staffing_closed"
)

// Result is the tagged outcome of a turn transition. Guard violations and
// validation failures are behavioral no-ops for the caller, but the result
// records why a call did nothing so tests and logs can assert on it.
type Result struct {
	Applied bool
	// Fixup is set when ProcessTreatment degenerated to the consistency
	// fixup path instead of reprocessing the hour.
	Fixup  bool
	Reason RejectReason
}

func applied() Result {
	return Result{Applied: true}
}

func appliedFixup() Result {
	return Result{Applied: true, Fixup: true}
}

func rejected(reason RejectReason) Result {
	return Result{Reason: reason}
}
