package websocket

// ClientInMessage is the envelope for messages from client to server.
type ClientInMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ServerEnvelope is the envelope for messages from server to client.
// Type: "event" | "state" | "error"
type ServerEnvelope struct {
	Type    string                 `json:"type"`
	Event   string                 `json:"event,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Client message types.
const (
	ClientMessageTypeChat              = "chat"
	ClientMessageTypeSyncState         = "sync_state"
	ClientMessageTypeAssignRoles       = "roles:assign"
	ClientMessageTypeStartGame         = "startGame"
	ClientMessageTypeStartNight        = "phase:startNight"
	ClientMessageTypeReturnToLobby     = "returnToLobby"
	ClientMessageTypeVote              = "vote"
	ClientMessageTypeMafiaPropose      = "mafia:propose"
	ClientMessageTypeMafiaFinalize     = "mafia:finalize"
	ClientMessageTypeDetectivePropose  = "detective:propose"
	ClientMessageTypeDetectiveFinalize = "detective:finalize"
	ClientMessageTypeDoctorSave        = "doctor:save"
	ClientMessageTypeDoctorConfirm     = "doctor:confirm"
)

// Server envelope types.
const (
	ServerTypeEvent = "event"
	ServerTypeState = "state"
	ServerTypeError = "error"
)

// Server event names not produced by the game engine itself.
const (
	ServerEventChat  = "chat"
	ServerEventState = "state"
)

// MaxChatMessageLength is the maximum allowed length for a chat message.
const MaxChatMessageLength = 2000

// MaxClientMessageTypeLength limits the "type" field to prevent abuse.
const MaxClientMessageTypeLength = 64

// ValidClientMessageTypes are the only allowed values for ClientInMessage.Type.
var ValidClientMessageTypes = map[string]bool{
	ClientMessageTypeChat:              true,
	ClientMessageTypeSyncState:         true,
	ClientMessageTypeAssignRoles:       true,
	ClientMessageTypeStartGame:         true,
	ClientMessageTypeStartNight:        true,
	ClientMessageTypeReturnToLobby:     true,
	ClientMessageTypeVote:              true,
	ClientMessageTypeMafiaPropose:      true,
	ClientMessageTypeMafiaFinalize:     true,
	ClientMessageTypeDetectivePropose:  true,
	ClientMessageTypeDetectiveFinalize: true,
	ClientMessageTypeDoctorSave:        true,
	ClientMessageTypeDoctorConfirm:     true,
}
