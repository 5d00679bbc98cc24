package ws

const (
	// client - server
	MsgJoinRoom  = "join_room"
	MsgMakeMove  = "make_move"
	MsgBuyIn     = "buy_in"
	MsgRebuy     = "rebuy"
	MsgLeaveRoom = "leave_room"
	MsgStartGame = "start_game"
	MsgPing      = "ping"

	// server - client
	MsgJoined       = "joined"
	MsgStateUpdate  = "state_update"
	MsgMoveRejected = "move_rejected"
	MsgRoomClosed   = "room_closed"
	MsgPong         = "pong"
	MsgError        = "error"
)

// room_closed reasons
const (
	ReasonLeft             = "left_room"
	ReasonEmpty            = "empty"
	ReasonAbandoned        = "abandoned"
	ReasonIntegrityFailure = "integrity_failure"
	ReasonExpired          = "expired"
	ReasonShutdown         = "server_shutdown"
)
