package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/game"
	"github.com/MmmDelicious/lovememory-sub007/internal/service"
	"github.com/MmmDelicious/lovememory-sub007/internal/ws"

	"github.com/gorilla/websocket"
)

// ws_smoke plays a short tic-tac-toe game between two clients against a
// running server.
func main() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	tokens, err := service.NewTokenService(jwtSecret, time.Hour, time.Minute)
	if err != nil {
		log.Fatal(err)
	}
	tokenA, err := tokens.IssuePlayer(3001, "smokeA")
	if err != nil {
		log.Fatalf("gen token A: %v", err)
	}
	tokenB, err := tokens.IssuePlayer(3002, "smokeB")
	if err != nil {
		log.Fatalf("gen token B: %v", err)
	}

	roomID := createRoom(base, tokenA)
	log.Printf("room created id=%s", roomID)

	connA := dial(base, tokenA)
	defer connA.Close()
	connB := dial(base, tokenB)
	defer connB.Close()

	send(connA, ws.MsgJoinRoom, ws.JoinRoomPayload{RoomID: roomID})
	waitFor(connA, "A", ws.MsgJoined)
	send(connB, ws.MsgJoinRoom, ws.JoinRoomPayload{RoomID: roomID})
	waitFor(connB, "B", ws.MsgJoined)

	// A takes the top row while B plays the middle row.
	moves := []struct {
		conn *websocket.Conn
		name string
		cell int
	}{
		{connA, "A", 0}, {connB, "B", 3},
		{connA, "A", 1}, {connB, "B", 4},
		{connA, "A", 2},
	}
	var last *game.State
	for _, m := range moves {
		payload, _ := json.Marshal(map[string]int{"cell": m.cell})
		send(m.conn, ws.MsgMakeMove, ws.MakeMovePayload{Action: game.ActionPlace, Payload: payload})
		last = waitForCell(m.conn, m.name, m.cell)
	}

	if last == nil || last.Winner == nil {
		log.Fatal("game did not finish")
	}
	log.Printf("winner=%s status=%s version=%d", last.Winner.Name, last.Status, last.Version)
	log.Println("smoke test finished")
}

func createRoom(base, token string) string {
	body, _ := json.Marshal(map[string]any{"game_type": game.TypeTicTacToe})
	req, err := http.NewRequest(http.MethodPost, "http://"+base+"/api/v1/rooms", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("create room: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		log.Fatalf("create room: status %d", res.StatusCode)
	}

	var out struct {
		Room ws.RoomInfo `json:"room"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		log.Fatalf("decode room: %v", err)
	}
	return out.Room.ID
}

func dial(base, token string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws?token=%s", base, token), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	return conn
}

func send(conn *websocket.Conn, msgType string, payload any) {
	b, _ := json.Marshal(ws.Message{Type: msgType, Payload: payload})
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Fatalf("write %s: %v", msgType, err)
	}
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func waitFor(conn *websocket.Conn, name, msgType string) envelope {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("%s read error: %v", name, err)
		}
		var env envelope
		_ = json.Unmarshal(msg, &env)
		switch env.Type {
		case msgType:
			return env
		case ws.MsgMoveRejected, ws.MsgError, ws.MsgRoomClosed:
			log.Fatalf("%s got: %s", name, string(msg))
		}
	}
	log.Fatalf("%s: timed out waiting for %s", name, msgType)
	return envelope{}
}

// waitForCell skips older state updates until cell is marked.
func waitForCell(conn *websocket.Conn, name string, cell int) *game.State {
	for {
		env := waitFor(conn, name, ws.MsgStateUpdate)
		var p ws.StateUpdatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Fatalf("%s decode state: %v", name, err)
		}
		if b := p.State.TicTacToe; b != nil && b.Cells[cell] != "" {
			log.Printf("%s got state version=%d status=%s", name, p.State.Version, p.State.Status)
			return &p.State
		}
	}
}
