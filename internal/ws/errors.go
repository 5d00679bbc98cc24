package ws

import "errors"

var (
	ErrRoomClosed     = errors.New("room closed")
	ErrSeatVacated    = errors.New("seat vacated")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomNotFound   = errors.New("room not found")
	ErrAlreadyStarted = errors.New("game already started")
	ErrNotInRoom      = errors.New("not in a room")
)

// CodeNotHost rejects start_game from anyone but the host.
const CodeNotHost = "not_host"
