package types

// Patient is one simulated arrival.
type Patient struct {
	ID          string        `json:"id" firestore:"id"`
	Type        PatientType   `json:"type" firestore:"type"`
	ArrivalHour int           `json:"arrivalHour" firestore:"arrivalHour"`
	// WaitingTime is the number of full hours the patient has spent in the
	// waiting queue.
	WaitingTime int `json:"waitingTime" firestore:"waitingTime"`
	// TreatmentProgress is the number of treatment hours remaining. It is
	// nil while the patient is not in treatment.
	TreatmentProgress *int          `json:"treatmentProgress" firestore:"treatmentProgress"`
	RoomID            string        `json:"roomId" firestore:"roomId"`
	Status            PatientStatus `json:"status" firestore:"status"`
	// Mismatch is true when the assigned room is not the patient's
	// primary-acuity room.
	Mismatch bool `json:"mismatch" firestore:"mismatch"`
}

// Copy returns a copy of the patient.
func (p *Patient) Copy() *Patient {
	c := *p
	if p.TreatmentProgress != nil {
		progress := *p.TreatmentProgress
		c.TreatmentProgress = &progress
	}
	return &c
}
