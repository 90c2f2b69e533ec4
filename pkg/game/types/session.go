package types

type SessionStatus string

const (
	SessionStatusSetup      SessionStatus = "setup"
	SessionStatusStaffing   SessionStatus = "staffing"
	SessionStatusSequencing SessionStatus = "sequencing"
	SessionStatusCompleted  SessionStatus = "completed"
)

// HourArrivals is the arrival counts for one simulated hour.
type HourArrivals = TypeCounts

// Session is the shared clock and configuration for all players. It is
// owned by the session coordinator; turn engines treat it as read-only.
type Session struct {
	ID          string           `json:"id" firestore:"id"`
	Status      SessionStatus    `json:"status" firestore:"status"`
	CurrentHour int              `json:"currentHour" firestore:"currentHour"`
	Schedule    [24]HourArrivals `json:"schedule" firestore:"schedule"`
	Params      *GameParameters  `json:"params" firestore:"params"`
}

// Copy returns a deep copy of the session.
func (s *Session) Copy() *Session {
	c := *s
	if s.Params != nil {
		params := *s.Params
		c.Params = &params
	}
	return &c
}
