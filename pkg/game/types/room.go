package types

// Room is one treatment bay, owned by a single player.
type Room struct {
	ID   string   `json:"id" firestore:"id"`
	Tier RoomTier `json:"tier" firestore:"tier"`
	// Position is the room's slot on the player's board (0..15, unique
	// per player).
	Position   int      `json:"position" firestore:"position"`
	IsOccupied bool     `json:"isOccupied" firestore:"isOccupied"`
	Patient    *Patient `json:"patient" firestore:"patient"`
}

// Copy returns a deep copy of the room.
func (r *Room) Copy() *Room {
	c := *r
	if r.Patient != nil {
		c.Patient = r.Patient.Copy()
	}
	return &c
}
