package game

import (
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/shiftline/emergency/pkg/game/types"
)

// TurnEngine advances one player's game state through the hourly turn
// phases: arriving, sequencing, rolling, treating, review, waiting. Every
// transition is guarded by the state's watermarks so duplicate or
// out-of-order triggers converge to the same state instead of
// double-applying effects.
//
// The engine is not safe for concurrent use; each player's engine runs
// single-threaded and publishes through the replicated store.
type TurnEngine struct {
	state  *types.PlayerGameState
	params *types.GameParameters
	rng    *rand.Rand
}

type NewTurnEngineOptions struct {
	State  *types.PlayerGameState
	Params *types.GameParameters
	RNG    *rand.Rand
}

func NewTurnEngine(opts NewTurnEngineOptions) *TurnEngine {
	return &TurnEngine{
		state:  opts.State,
		params: opts.Params,
		rng:    opts.RNG,
	}
}

// State returns the engine's underlying state.
func (e *TurnEngine) State() *types.PlayerGameState {
	return e.state
}

// AddRoom creates a room during the staffing phase, bounded by the
// staffing budget. Board positions are 0..15 and unique per player.
func (e *TurnEngine) AddRoom(tier types.RoomTier, position int) (*types.Room, Result) {
	st := e.state
	if st.StaffingComplete {
		return nil, rejected(RejectStaffingClosed)
	}
	if position < 0 || position > 15 {
		return nil, rejected(RejectPositionTaken)
	}
	for _, room := range st.Rooms {
		if room.Position == position {
			return nil, rejected(RejectPositionTaken)
		}
	}
	cost := e.params.RoomCost[tier]
	if st.StaffingCost+cost > e.params.MaxBudget {
		return nil, rejected(RejectOverBudget)
	}

	room := &types.Room{
		ID:       uuid.New().String(),
		Tier:     tier,
		Position: position,
	}
	st.Rooms = append(st.Rooms, room)
	st.StaffingCost += cost
	return room, applied()
}

// RemoveRoom removes a vacated room during the staffing phase.
func (e *TurnEngine) RemoveRoom(roomID string) Result {
	st := e.state
	if st.StaffingComplete {
		return rejected(RejectStaffingClosed)
	}
	for i, room := range st.Rooms {
		if room.ID != roomID {
			continue
		}
		if room.IsOccupied {
			return rejected(RejectRoomOccupied)
		}
		st.Rooms = append(st.Rooms[:i], st.Rooms[i+1:]...)
		st.StaffingCost -= e.params.RoomCost[room.Tier]
		return applied()
	}
	return rejected(RejectUnknownRoom)
}

// CompleteStaffing closes the staffing phase. It fixes the total cost to
// the staffing cost and marks the pregame hour complete. Happens once,
// before hour 1.
func (e *TurnEngine) CompleteStaffing() Result {
	st := e.state
	st.StaffingComplete = true
	st.TotalCost = st.StaffingCost
	st.HourComplete = true
	return applied()
}

// ProcessArrivals admits this hour's arrivals into the waiting queue and
// moves the state into sequencing. Guarded by the arrivals watermark and
// no-ops while a previous hour is still mid-flight in rolling or treating.
func (e *TurnEngine) ProcessArrivals(hour int, arrivals types.HourArrivals) Result {
	st := e.state
	if st.LastArrivalsHour >= hour {
		return rejected(RejectStaleWatermark)
	}
	if st.CurrentPhase == types.PhaseRolling || st.CurrentPhase == types.PhaseTreating {
		return rejected(RejectWrongPhase)
	}

	// Arrivals opens the hour: the per-turn log and the hour-complete
	// flag reset here and nowhere else.
	st.TurnLog = types.TurnLog{}
	st.HourComplete = false

	// Demand and available capacity are point-in-time snapshots taken
	// before admission mutates anything.
	demand := arrivals
	for _, patient := range st.WaitingQueue {
		demand.Add(patient.Type, 1)
	}
	var capacity types.TypeCounts
	for _, room := range st.Rooms {
		if room.IsOccupied {
			continue
		}
		switch room.Tier {
		case types.RoomTierHigh:
			capacity.Add(types.PatientTypeA, 1)
		case types.RoomTierMedium:
			capacity.Add(types.PatientTypeB, 1)
		case types.RoomTierLow:
			capacity.Add(types.PatientTypeC, 1)
		}
	}
	st.Stats.DemandByHour = append(st.Stats.DemandByHour, demand)
	st.Stats.CapacityByHour = append(st.Stats.CapacityByHour, capacity)

	// A before B before C. Presentation ordering only; admission fairness
	// is purely queue capacity.
	newPatients := make([]*types.Patient, 0, arrivals.Total())
	for _, t := range types.PatientTypes {
		for i := 0; i < arrivals.Get(t); i++ {
			newPatients = append(newPatients, &types.Patient{
				ID:          uuid.New().String(),
				Type:        t,
				ArrivalHour: hour,
				Status:      types.PatientStatusArriving,
			})
		}
	}
	sort.SliceStable(newPatients, func(i, j int) bool {
		return patientPriority(newPatients[i].Type) < patientPriority(newPatients[j].Type)
	})

	for _, patient := range newPatients {
		if len(st.WaitingQueue) < e.params.MaxWaitingRoom {
			patient.Status = types.PatientStatusWaiting
			st.WaitingQueue = append(st.WaitingQueue, patient)
			continue
		}
		// Turning a patient away is itself an adverse outcome: the
		// type's risk-event cost accrues immediately, with no roll.
		patient.Status = types.PatientStatusTurnedAway
		st.Stats.TurnedAwayByType.Add(patient.Type, 1)
		st.TurnLog.TurnedAway.Add(patient.Type, 1)
		cost := e.params.RiskEventCost[patient.Type]
		st.TotalCost += cost
		st.Stats.RiskEventCost += cost
		st.Completed = append(st.Completed, patient)
	}

	st.TurnLog.Arrived = arrivals
	st.LastArrivalsHour = hour
	st.CurrentPhase = types.PhaseSequencing
	return applied()
}

// MovePatientToRoom assigns a waiting patient to an unoccupied, compatible
// room. Only valid while sequencing.
func (e *TurnEngine) MovePatientToRoom(patientID, roomID string) Result {
	st := e.state
	if st.CurrentPhase != types.PhaseSequencing {
		return rejected(RejectWrongPhase)
	}
	room := st.Room(roomID)
	if room == nil {
		return rejected(RejectUnknownRoom)
	}
	if room.IsOccupied {
		return rejected(RejectRoomOccupied)
	}

	queueIndex := -1
	for i, patient := range st.WaitingQueue {
		if patient.ID == patientID {
			queueIndex = i
			break
		}
	}
	if queueIndex == -1 {
		return rejected(RejectUnknownPatient)
	}
	patient := st.WaitingQueue[queueIndex]
	if !CanTreat(patient.Type, room.Tier) {
		return rejected(RejectIncompatibleTier)
	}

	st.WaitingQueue = append(st.WaitingQueue[:queueIndex], st.WaitingQueue[queueIndex+1:]...)
	progress := TreatmentTime(patient.Type, e.params)
	patient.TreatmentProgress = &progress
	patient.RoomID = room.ID
	patient.Status = types.PatientStatusTreating
	patient.Mismatch = IsMismatch(patient.Type, room.Tier)
	room.Patient = patient
	room.IsOccupied = true
	return applied()
}

// MovePatientBackToQueue reverses a room assignment whose treatment has not
// ticked yet. Once progress has decremented in a later hour the patient is
// committed to the room.
func (e *TurnEngine) MovePatientBackToQueue(patientID string) Result {
	st := e.state
	if st.CurrentPhase != types.PhaseSequencing {
		return rejected(RejectWrongPhase)
	}
	for _, room := range st.Rooms {
		if room.Patient == nil || room.Patient.ID != patientID {
			continue
		}
		patient := room.Patient
		if patient.TreatmentProgress == nil || *patient.TreatmentProgress != TreatmentTime(patient.Type, e.params) {
			return rejected(RejectTreatmentStarted)
		}
		patient.TreatmentProgress = nil
		patient.RoomID = ""
		patient.Status = types.PatientStatusWaiting
		patient.Mismatch = false
		room.Patient = nil
		room.IsOccupied = false
		st.WaitingQueue = append(st.WaitingQueue, patient)
		return applied()
	}
	return rejected(RejectUnknownPatient)
}

// CompleteSequencing submits the hour's room assignments and moves to the
// rolling phase.
func (e *TurnEngine) CompleteSequencing(hour int) Result {
	st := e.state
	if st.CurrentPhase != types.PhaseSequencing {
		return rejected(RejectWrongPhase)
	}
	if hour > st.LastSequencingHour {
		st.LastSequencingHour = hour
	}
	st.CurrentPhase = types.PhaseRolling
	return applied()
}

// RollRiskEvents rolls a d20 for every patient in the waiting queue and
// evaluates the risk predicate against each patient's accumulated waiting
// time. It mutates nothing: a display layer may render the raw rolls before
// they are committed with ApplyRiskEvents.
func (e *TurnEngine) RollRiskEvents() []types.RiskRoll {
	st := e.state
	rolls := make([]types.RiskRoll, 0, len(st.WaitingQueue))
	for _, patient := range st.WaitingQueue {
		roll := RollD20(e.rng)
		rolls = append(rolls, types.RiskRoll{
			PatientID: patient.ID,
			Type:      patient.Type,
			Roll:      roll,
			IsEvent:   IsRiskRoll(patient.Type, roll, e.params, patient.WaitingTime, e.params.TimeSensitiveWaitingHarms),
		})
	}
	return rolls
}

// ApplyRiskEvents commits previously rolled results: type A events become
// cardiac arrests, types B and C leave without being seen. Remaining
// waiting patients age by one hour and the hour's waiting cost accrues.
// Returns the applied outcomes so downstream steps need not rely on state
// captured before resolution completed.
func (e *TurnEngine) ApplyRiskEvents(hour int, results []types.RiskRoll) ([]types.RiskOutcome, Result) {
	st := e.state
	if st.CurrentPhase != types.PhaseRolling {
		return nil, rejected(RejectWrongPhase)
	}

	outcomes := []types.RiskOutcome{}
	for _, result := range results {
		if !result.IsEvent {
			continue
		}
		queueIndex := -1
		for i, patient := range st.WaitingQueue {
			if patient.ID == result.PatientID {
				queueIndex = i
				break
			}
		}
		if queueIndex == -1 {
			continue
		}
		patient := st.WaitingQueue[queueIndex]
		st.WaitingQueue = append(st.WaitingQueue[:queueIndex], st.WaitingQueue[queueIndex+1:]...)

		outcome := types.PatientStatusLWBS
		if patient.Type == types.PatientTypeA {
			outcome = types.PatientStatusCardiacArrest
			st.Stats.CardiacArrests++
		} else {
			st.Stats.LWBSByType.Add(patient.Type, 1)
		}
		patient.Status = outcome
		st.Completed = append(st.Completed, patient)

		cost := e.params.RiskEventCost[patient.Type]
		st.TotalCost += cost
		st.Stats.RiskEventCost += cost

		outcomes = append(outcomes, types.RiskOutcome{
			PatientID: patient.ID,
			Type:      patient.Type,
			Roll:      result.Roll,
			Outcome:   outcome,
			Cost:      cost,
		})
	}

	var waitingCost int64
	for _, patient := range st.WaitingQueue {
		patient.WaitingTime++
		waitingCost += e.params.WaitingCostPerHour[patient.Type]
		if patient.WaitingTime > st.Stats.MaxWaitingTimeByType.Get(patient.Type) {
			st.Stats.MaxWaitingTimeByType.Add(patient.Type, patient.WaitingTime-st.Stats.MaxWaitingTimeByType.Get(patient.Type))
		}
	}
	st.TotalCost += waitingCost
	st.Stats.WaitingCost += waitingCost

	if hour > st.LastSequencingHour {
		st.LastSequencingHour = hour
	}
	st.TurnLog.RiskEvents = outcomes
	st.TurnLog.WaitingCost = waitingCost
	st.CurrentPhase = types.PhaseTreating
	return outcomes, applied()
}

// ProcessTreatment ticks every occupied room and discharges patients whose
// treatment completes. The guard is keyed to the arrivals watermark, not
// the shared session clock: a player behind or ahead of the session still
// processes their own hour consistently. If the hour is already covered the
// call degenerates to a consistency fixup that forces the waiting phase.
//
// This is the convergence point for every advancement trigger, including
// the rescue path; there is no other way to finish an hour.
func (e *TurnEngine) ProcessTreatment(riskEventsOverride []types.RiskOutcome) Result {
	st := e.state
	hour := st.LastArrivalsHour
	if st.LastTreatmentHour >= hour {
		st.CurrentPhase = types.PhaseWaiting
		st.HourComplete = true
		return appliedFixup()
	}

	// Utilization is sampled before discharges free any rooms.
	utilization := 0.0
	if len(st.Rooms) > 0 {
		utilization = float64(st.OccupiedRooms()) / float64(len(st.Rooms))
	}

	discharges := []types.Discharge{}
	for _, room := range st.Rooms {
		if room.Patient == nil {
			continue
		}
		patient := room.Patient
		if patient.TreatmentProgress == nil {
			continue
		}
		*patient.TreatmentProgress--
		if *patient.TreatmentProgress > 0 {
			continue
		}

		patient.Status = types.PatientStatusTreated
		patient.TreatmentProgress = nil
		patient.RoomID = ""
		room.Patient = nil
		room.IsOccupied = false

		revenue := e.params.RevenuePerPatient[patient.Type]
		st.TotalRevenue += revenue
		st.Stats.TreatedByType.Add(patient.Type, 1)
		st.Stats.TotalTreatments++
		if patient.Mismatch {
			st.Stats.MismatchTreatments++
		}
		st.Completed = append(st.Completed, patient)

		discharges = append(discharges, types.Discharge{
			PatientID: patient.ID,
			Type:      patient.Type,
			RoomID:    room.ID,
			Mismatch:  patient.Mismatch,
			Revenue:   revenue,
		})
	}

	st.Stats.UtilizationByHour = append(st.Stats.UtilizationByHour, utilization)
	st.Stats.QueueLengthByHour = append(st.Stats.QueueLengthByHour, len(st.WaitingQueue))

	st.LastTreatmentHour = hour
	st.LastCompletedHour = hour
	st.TurnLog.Completed = discharges
	if riskEventsOverride != nil {
		st.TurnLog.RiskEvents = riskEventsOverride
	}
	st.CurrentPhase = types.PhaseReview
	return applied()
}

// CompleteTurn is the player's acknowledgement that the hour's summary has
// been reviewed. Unconditional; the session clock's readiness predicate
// depends on the hour-complete flag it sets.
func (e *TurnEngine) CompleteTurn() Result {
	st := e.state
	st.CurrentPhase = types.PhaseWaiting
	st.HourComplete = true
	return applied()
}

func patientPriority(t types.PatientType) int {
	switch t {
	case types.PatientTypeA:
		return 0
	case types.PatientTypeB:
		return 1
	default:
		return 2
	}
}
