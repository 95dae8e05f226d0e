package game

// Emitter delivers state deltas outward to the transport layer. Broadcast
// fans out to every connection in the session's room; SendTo reaches a single
// player (private night prompts, role reveals, consensus tallies).
type Emitter interface {
	Broadcast(event string, payload map[string]interface{})
	SendTo(playerID string, event string, payload map[string]interface{})
}

// NopEmitter discards all deltas. Used when a session runs without transport.
type NopEmitter struct{}

func (NopEmitter) Broadcast(string, map[string]interface{})      {}
func (NopEmitter) SendTo(string, string, map[string]interface{}) {}

// Server-to-client event names.
const (
	EventJoinedRoom       = "joinedRoom"
	EventPlayerList       = "playerList"
	EventRoleAssigned     = "roleAssigned"
	EventPhaseChange      = "phaseChange"
	EventStateUpdate      = "state:update"
	EventMafiaStatus      = "mafia:status"
	EventMafiaFinal       = "mafia:final"
	EventDetectiveStatus  = "detective:status"
	EventDetectiveFinal   = "detective:final"
	EventDoctorSelfUsed   = "doctor:selfUsed"
	EventDoctorSelfDenied = "doctor:selfDenied"
	EventNightMafia       = "night:mafia"
	EventNightDetective   = "night:detective"
	EventNightDoctor      = "night:doctor"
	EventNightClear       = "night:clear"
	EventVotingUpdate     = "voting:update"
	EventDayResolved      = "day:resolved"
	EventPlayerDied       = "playerDied"
	EventGameOver         = "gameOver"
)
