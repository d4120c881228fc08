package ws_game

import "encoding/json"

// Inbound message types. The payload set is closed: anything else is
// rejected at the boundary before it can reach a room.
const (
	MsgCreateRoom = "create_room"
	MsgJoinRoom   = "join_room"
	MsgGuess      = "guess"
	MsgVoteSkip   = "vote_skip"
	MsgStartGame  = "start_game"
)

// Outbound event types.
const (
	EventRoomCreated  = "room_created"
	EventRoomJoined   = "room_joined"
	EventRoomState    = "room_state"
	EventGuessResult  = "guess_result"
	EventCorrectGuess = "correct_guess"
	EventTrackSkipped = "track_skipped"
	EventGameStarted  = "game_started"
	EventGameFinished = "game_finished"
	EventPlayerLeft   = "player_left"
	EventError        = "error"
)

// Error codes carried by EventError payloads.
const (
	CodeRoomNotFound  = "room_not_found"
	CodeNotAMember    = "not_a_member"
	CodeAlreadySolved = "already_solved"
	CodeNotHost       = "not_host"
	CodeBadRequest    = "bad_request"
	CodeInternal      = "internal"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type CreateRoomPayload struct {
	PlayerName string `json:"player_name"`
}

type JoinRoomPayload struct {
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name"`
}

type GuessPayload struct {
	Guess string `json:"guess"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorEvent(code, message string) Event {
	return Event{
		Type: EventError,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	}
}
