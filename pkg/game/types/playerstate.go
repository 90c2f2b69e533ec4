package types

// PlayerGameState is the replicated unit of truth for one player.
type PlayerGameState struct {
	PlayerID string `json:"playerId" firestore:"playerId"`

	Rooms        []*Room    `json:"rooms" firestore:"rooms"`
	WaitingQueue []*Patient `json:"waitingQueue" firestore:"waitingQueue"`
	Completed    []*Patient `json:"completed" firestore:"completed"`

	TotalRevenue int64 `json:"totalRevenue" firestore:"totalRevenue"`
	TotalCost    int64 `json:"totalCost" firestore:"totalCost"`
	StaffingCost int64 `json:"staffingCost" firestore:"staffingCost"`

	StaffingComplete bool  `json:"staffingComplete" firestore:"staffingComplete"`
	CurrentPhase     Phase `json:"currentPhase" firestore:"currentPhase"`
	HourComplete     bool  `json:"hourComplete" firestore:"hourComplete"`

	// Watermarks record the last hour each processing step completed.
	// They are monotonically non-decreasing and are the sole basis for
	// idempotency of the turn transitions.
	LastArrivalsHour   int `json:"lastArrivalsHour" firestore:"lastArrivalsHour"`
	LastTreatmentHour  int `json:"lastTreatmentHour" firestore:"lastTreatmentHour"`
	LastSequencingHour int `json:"lastSequencingHour" firestore:"lastSequencingHour"`
	LastCompletedHour  int `json:"lastCompletedHour" firestore:"lastCompletedHour"`

	// Version is a monotonic write sequence number. Every local write
	// increments it; the reconciler rejects incoming snapshots whose
	// version is not newer than the last locally written one.
	Version int64 `json:"version" firestore:"version"`

	Stats   GameStats `json:"stats" firestore:"stats"`
	TurnLog TurnLog   `json:"turnLog" firestore:"turnLog"`
}

// GameStats are the running statistics accumulated over a session.
type GameStats struct {
	TreatedByType    TypeCounts `json:"treatedByType" firestore:"treatedByType"`
	CardiacArrests   int        `json:"cardiacArrests" firestore:"cardiacArrests"`
	LWBSByType       TypeCounts `json:"lwbsByType" firestore:"lwbsByType"`
	TurnedAwayByType TypeCounts `json:"turnedAwayByType" firestore:"turnedAwayByType"`

	WaitingCost   int64 `json:"waitingCost" firestore:"waitingCost"`
	RiskEventCost int64 `json:"riskEventCost" firestore:"riskEventCost"`

	UtilizationByHour []float64    `json:"utilizationByHour" firestore:"utilizationByHour"`
	QueueLengthByHour []int        `json:"queueLengthByHour" firestore:"queueLengthByHour"`
	DemandByHour      []TypeCounts `json:"demandByHour" firestore:"demandByHour"`
	CapacityByHour    []TypeCounts `json:"capacityByHour" firestore:"capacityByHour"`

	MaxWaitingTimeByType TypeCounts `json:"maxWaitingTimeByType" firestore:"maxWaitingTimeByType"`
	MismatchTreatments   int        `json:"mismatchTreatments" firestore:"mismatchTreatments"`
	TotalTreatments      int        `json:"totalTreatments" firestore:"totalTreatments"`
}

// TurnLog is the transient per-turn event log, overwritten each hour.
type TurnLog struct {
	Arrived     TypeCounts    `json:"arrived" firestore:"arrived"`
	TurnedAway  TypeCounts    `json:"turnedAway" firestore:"turnedAway"`
	RiskEvents  []RiskOutcome `json:"riskEvents" firestore:"riskEvents"`
	Completed   []Discharge   `json:"completed" firestore:"completed"`
	WaitingCost int64         `json:"waitingCost" firestore:"waitingCost"`
}

// RiskRoll is one uncommitted d20 roll for a waiting patient.
type RiskRoll struct {
	PatientID string      `json:"patientId" firestore:"patientId"`
	Type      PatientType `json:"type" firestore:"type"`
	Roll      int         `json:"roll" firestore:"roll"`
	IsEvent   bool        `json:"isEvent" firestore:"isEvent"`
}

// RiskOutcome is one applied risk event.
type RiskOutcome struct {
	PatientID string        `json:"patientId" firestore:"patientId"`
	Type      PatientType   `json:"type" firestore:"type"`
	Roll      int           `json:"roll" firestore:"roll"`
	Outcome   PatientStatus `json:"outcome" firestore:"outcome"`
	Cost      int64         `json:"cost" firestore:"cost"`
}

// Discharge is one completed treatment.
type Discharge struct {
	PatientID string      `json:"patientId" firestore:"patientId"`
	Type      PatientType `json:"type" firestore:"type"`
	RoomID    string      `json:"roomId" firestore:"roomId"`
	Mismatch  bool        `json:"mismatch" firestore:"mismatch"`
	Revenue   int64       `json:"revenue" firestore:"revenue"`
}

// NewPlayerGameState returns a zeroed state for a player joining a session.
func NewPlayerGameState(playerID string) *PlayerGameState {
	return &PlayerGameState{
		PlayerID:     playerID,
		CurrentPhase: PhaseArriving,
	}
}

// Copy returns a deep copy of the state.
func (s *PlayerGameState) Copy() *PlayerGameState {
	c := *s

	c.Rooms = make([]*Room, len(s.Rooms))
	for i, room := range s.Rooms {
		c.Rooms[i] = room.Copy()
	}
	c.WaitingQueue = make([]*Patient, len(s.WaitingQueue))
	for i, patient := range s.WaitingQueue {
		c.WaitingQueue[i] = patient.Copy()
	}
	c.Completed = make([]*Patient, len(s.Completed))
	for i, patient := range s.Completed {
		c.Completed[i] = patient.Copy()
	}

	c.Stats.UtilizationByHour = append([]float64(nil), s.Stats.UtilizationByHour...)
	c.Stats.QueueLengthByHour = append([]int(nil), s.Stats.QueueLengthByHour...)
	c.Stats.DemandByHour = append([]TypeCounts(nil), s.Stats.DemandByHour...)
	c.Stats.CapacityByHour = append([]TypeCounts(nil), s.Stats.CapacityByHour...)

	c.TurnLog.RiskEvents = append([]RiskOutcome(nil), s.TurnLog.RiskEvents...)
	c.TurnLog.Completed = append([]Discharge(nil), s.TurnLog.Completed...)

	return &c
}

// Room returns the room with the given id, or nil.
func (s *PlayerGameState) Room(roomID string) *Room {
	for _, room := range s.Rooms {
		if room.ID == roomID {
			return room
		}
	}
	return nil
}

// OccupiedRooms returns the number of rooms currently holding a patient.
func (s *PlayerGameState) OccupiedRooms() int {
	occupied := 0
	for _, room := range s.Rooms {
		if room.IsOccupied {
			occupied++
		}
	}
	return occupied
}
