package types

// GameParameters is the configuration surface for a session. All money
// values are integers in the smallest currency unit.
type GameParameters struct {
	// DailyVolume is the expected number of arrivals per type over the
	// whole 24-hour day.
	DailyVolume TypeCounts `json:"dailyVolume" firestore:"dailyVolume"`
	// RevenuePerPatient is earned when a patient of the type is treated.
	RevenuePerPatient map[PatientType]int64 `json:"revenuePerPatient" firestore:"revenuePerPatient"`
	// WaitingCostPerHour accrues for every hour a patient of the type
	// spends in the waiting queue.
	WaitingCostPerHour map[PatientType]int64 `json:"waitingCostPerHour" firestore:"waitingCostPerHour"`
	// RiskTriggers is the set of d20 values that trigger a risk event for
	// the type.
	RiskTriggers map[PatientType][]int `json:"riskTriggers" firestore:"riskTriggers"`
	// RiskEventCost accrues when a patient of the type suffers a risk
	// event or is turned away.
	RiskEventCost map[PatientType]int64 `json:"riskEventCost" firestore:"riskEventCost"`
	// TimeSensitiveWaitingHarms widens each risk trigger downward by the
	// patient's accumulated waiting time.
	TimeSensitiveWaitingHarms bool `json:"timeSensitiveWaitingHarms" firestore:"timeSensitiveWaitingHarms"`
	// MaxWaitingRoom bounds the waiting queue; arrivals beyond it are
	// turned away.
	MaxWaitingRoom int `json:"maxWaitingRoom" firestore:"maxWaitingRoom"`
	// MaxBudget bounds total staffing cost.
	MaxBudget int64 `json:"maxBudget" firestore:"maxBudget"`
	// RoomCost is the staffing cost of one room per tier.
	RoomCost map[RoomTier]int64 `json:"roomCost" firestore:"roomCost"`
	// TreatmentDuration is the number of hours a patient of the type
	// occupies a room.
	TreatmentDuration map[PatientType]int `json:"treatmentDuration" firestore:"treatmentDuration"`
	// HourlyWeights distributes the daily volume across the 24 hours.
	// PerTypeWeights, when set, overrides it per type.
	HourlyWeights  [24]float64                  `json:"hourlyWeights" firestore:"hourlyWeights"`
	PerTypeWeights map[PatientType][24]float64  `json:"perTypeWeights,omitempty" firestore:"perTypeWeights,omitempty"`
	// CurrencySymbol is display-only.
	CurrencySymbol string `json:"currencySymbol" firestore:"currencySymbol"`
}

// DefaultGameParameters returns the standard session configuration.
func DefaultGameParameters() *GameParameters {
	weights := [24]float64{}
	for i := range weights {
		weights[i] = 1.0 / 24.0
	}
	return &GameParameters{
		DailyVolume: TypeCounts{A: 6, B: 12, C: 18},
		RevenuePerPatient: map[PatientType]int64{
			PatientTypeA: 1000,
			PatientTypeB: 600,
			PatientTypeC: 300,
		},
		WaitingCostPerHour: map[PatientType]int64{
			PatientTypeA: 100,
			PatientTypeB: 60,
			PatientTypeC: 30,
		},
		RiskTriggers: map[PatientType][]int{
			PatientTypeA: {19, 20},
			PatientTypeB: {20},
			PatientTypeC: {20},
		},
		RiskEventCost: map[PatientType]int64{
			PatientTypeA: 2000,
			PatientTypeB: 800,
			PatientTypeC: 400,
		},
		TimeSensitiveWaitingHarms: true,
		MaxWaitingRoom:            10,
		MaxBudget:                 10000,
		RoomCost: map[RoomTier]int64{
			RoomTierHigh:   2000,
			RoomTierMedium: 1200,
			RoomTierLow:    600,
		},
		TreatmentDuration: map[PatientType]int{
			PatientTypeA: 4,
			PatientTypeB: 2,
			PatientTypeC: 1,
		},
		HourlyWeights:  weights,
		CurrencySymbol: "$",
	}
}
