package game

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomClosed     = errors.New("room closed")
	ErrNotAMember     = errors.New("not a room member")
	ErrAlreadyMember  = errors.New("already a room member")
	ErrAlreadySolved  = errors.New("current track already solved")
	ErrNotHost        = errors.New("host-only operation")
	ErrNoFreeRoomCode = errors.New("no free room code")
)
