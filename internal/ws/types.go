package ws

import "encoding/json"

const (
	// client - server
	EventCreateRoom     = "create_room"
	EventJoinRoom       = "join_room"
	EventSyncRequest    = "sync_request"
	EventMakeMove       = "make_move"
	EventResign         = "resign"
	EventRequestRematch = "request_rematch"
	EventAcceptRematch  = "accept_rematch"

	// server - client
	EventRoomCreated        = "room_created"
	EventRoomJoined         = "room_joined"
	EventOpponentConnection = "opponent_connection"
	EventSyncState          = "sync_state"
	EventMoveAccepted       = "move_accepted"
	EventGameOver           = "game_over"
	EventMoveRejected       = "move_rejected"
	EventRematchRequested   = "rematch_requested"
	EventRematchStarted     = "rematch_started"
	EventErrorMessage       = "error_message"
)

// Envelope is the wire frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
