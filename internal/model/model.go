package model

// RoomID is the short public code players use to join a room.
type RoomID string

const EmptyRoomID RoomID = ""

// ConnID identifies a single client connection for its whole lifetime.
// The gateway mints one per accepted WebSocket.
type ConnID string

const EmptyConnID ConnID = ""
