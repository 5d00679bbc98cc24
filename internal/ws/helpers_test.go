package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/domain"
	"github.com/MmmDelicious/lovememory-sub007/internal/game"

	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

func newTestHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	if opts.GracePeriod == 0 {
		opts.GracePeriod = time.Hour
	}
	if opts.Seed == nil {
		opts.Seed = func() uint64 { return 42 }
	}
	h := NewHub(opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		_ = h.Shutdown(ctx)
	})
	return h
}

func newTestClient(h *Hub, id int64) *Client {
	return NewClient(id, fmt.Sprintf("player-%d", id), nil, h)
}

// recv skips queued messages until one of msgType arrives.
func recv(t *testing.T, c *Client, msgType string) json.RawMessage {
	t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case raw := <-c.Send:
			var msg inbound
			require.NoError(t, json.Unmarshal(raw, &msg))
			if msg.Type == msgType {
				return msg.Payload
			}
		case <-timeout:
			t.Fatalf("player %d: no %s message", c.PlayerID, msgType)
			return nil
		}
	}
}

func recvAs[T any](t *testing.T, c *Client, msgType string) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(recv(t, c, msgType), &out))
	return out
}

// recvState returns the first state update satisfying ok.
func recvState(t *testing.T, c *Client, ok func(StateUpdatePayload) bool) StateUpdatePayload {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		p := recvAs[StateUpdatePayload](t, c, MsgStateUpdate)
		if ok == nil || ok(p) {
			return p
		}
	}
	t.Fatalf("player %d: no matching state update", c.PlayerID)
	return StateUpdatePayload{}
}

func withStatus(s game.Status) func(StateUpdatePayload) bool {
	return func(p StateUpdatePayload) bool { return p.State.Status == s }
}

func atVersion(v int64) func(StateUpdatePayload) bool {
	return func(p StateUpdatePayload) bool { return p.State.Version >= v }
}

// drain returns the types of everything queued for c right now.
func drain(t *testing.T, c *Client) []string {
	t.Helper()
	var types []string
	for {
		select {
		case raw := <-c.Send:
			var msg inbound
			require.NoError(t, json.Unmarshal(raw, &msg))
			types = append(types, msg.Type)
		default:
			return types
		}
	}
}

func waitClosed(t *testing.T, r *Room) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(waitTimeout):
		t.Fatalf("room %s did not close", r.ID)
	}
}

func place(cell int) game.Move {
	return game.Move{Action: game.ActionPlace, Payload: json.RawMessage(fmt.Sprintf(`{"cell":%d}`, cell))}
}

func buyIn(amount int64) game.Move {
	return game.Move{Action: game.ActionBuyIn, Payload: json.RawMessage(fmt.Sprintf(`{"amount":%d}`, amount))}
}

// startedTicTacToe returns a running tic-tac-toe room with players 1 and 2.
func startedTicTacToe(t *testing.T, h *Hub) (*Room, *Client, *Client) {
	t.Helper()
	r, err := h.CreateRoom(game.TypeTicTacToe, game.Config{}, 1)
	require.NoError(t, err)
	a, b := newTestClient(h, 1), newTestClient(h, 2)
	require.NoError(t, r.Join(a, false))
	require.NoError(t, r.Join(b, false))
	recvState(t, a, withStatus(game.StatusInProgress))
	recvState(t, b, withStatus(game.StatusInProgress))
	return r, a, b
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []*domain.MatchResult
}

func (f *fakeRecorder) Record(_ context.Context, m *domain.MatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, m)
	return nil
}

func (f *fakeRecorder) all() []*domain.MatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.MatchResult(nil), f.results...)
}
