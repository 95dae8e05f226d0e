package game

// Player is one roster entry, owned exclusively by its Session. The zero Role
// means roles have not been assigned yet.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role,omitempty"`
	Alive bool  `json:"alive"`

	// VoteGhostUntilDay is the single day number on which a night-killed
	// player may still cast one vote. Zero means no ghost window.
	VoteGhostUntilDay int `json:"vote_ghost_until_day,omitempty"`
}

// PublicPlayer is the broadcast-safe view of a player. Role is only populated
// during the END phase reveal.
type PublicPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Dead  bool   `json:"dead"`
	Role  Role   `json:"role,omitempty"`
	Score int    `json:"score"`
}

// PlayerRef identifies a player in event payloads (e.g. a lynch target).
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role,omitempty"`
}
