package ws

import (
	"encoding/json"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/domain"
	"github.com/MmmDelicious/lovememory-sub007/internal/game"
)

// Message is the wire envelope in both directions.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// inbound is a Message whose payload is decoded once the type is known.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// client → server
type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

type MakeMovePayload struct {
	Action  game.Action     `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type AmountPayload struct {
	Amount int64 `json:"amount"`
}

// server → client
type JoinedPayload struct {
	RoomID      string `json:"room_id"`
	PlayerID    int64  `json:"player_id"`
	Seat        int    `json:"seat"`
	ResumeToken string `json:"resume_token,omitempty"`
}

type StateUpdatePayload struct {
	Room  RoomInfo   `json:"room"`
	State game.State `json:"state"`
}

type MoveRejectedPayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// RoomInfo is the published, lock protected summary of a room used by
// discovery and attached to every state update.
type RoomInfo struct {
	ID         string            `json:"id"`
	Type       game.Type         `json:"game_type"`
	Status     domain.RoomStatus `json:"status"`
	GameStatus game.Status       `json:"game_status"`
	HostID     int64             `json:"host_id"`
	Players    []PlayerInfo      `json:"players"`
	Capacity   int               `json:"capacity"`
	Version    int64             `json:"version"`
	CreatedAt  time.Time         `json:"created_at"`
}

type PlayerInfo struct {
	PlayerID  int64  `json:"player_id"`
	Name      string `json:"name"`
	Seat      int    `json:"seat"`
	Connected bool   `json:"connected"`
}

func encode(msgType string, payload any) []byte {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		// payloads are plain structs; reaching this is a programming error
		panic(err)
	}
	return data
}
