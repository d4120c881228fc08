package ws_game

import (
	"github.com/gorilla/websocket"

	"github.com/avbelov/tunehunt/core/internal/model"
)

const sendBufferSize = 16

// session is one connected client. Outbound events flow through the
// buffered send channel so a slow socket never blocks a room mutation.
type session struct {
	id   model.ConnID
	name string
	conn *websocket.Conn
	send chan Event
}

func newSession(id model.ConnID, conn *websocket.Conn) *session {
	return &session{
		id:   id,
		conn: conn,
		send: make(chan Event, sendBufferSize),
	}
}

// writePump drains the send channel onto the socket. It exits when the
// channel is closed on disconnect or when a write fails.
func (s *session) writePump() {
	defer s.conn.Close()

	for event := range s.send {
		if err := s.conn.WriteJSON(event); err != nil {
			break
		}
	}
}
