package ws

import (
	"testing"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/domain"
	"github.com/MmmDelicious/lovememory-sub007/internal/game"
	"github.com/MmmDelicious/lovememory-sub007/internal/service"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAndAutoStart(t *testing.T) {
	tokens, err := service.NewTokenService("secret", time.Hour, time.Minute)
	require.NoError(t, err)
	h := newTestHub(t, Options{Tokens: tokens})

	r, err := h.CreateRoom(game.TypeTicTacToe, game.Config{}, 1)
	require.NoError(t, err)
	a, b := newTestClient(h, 1), newTestClient(h, 2)

	require.NoError(t, r.Join(a, false))
	joined := recvAs[JoinedPayload](t, a, MsgJoined)
	assert.Equal(t, r.ID, joined.RoomID)
	assert.Equal(t, 0, joined.Seat)
	resume, err := tokens.ParseResume(joined.ResumeToken)
	require.NoError(t, err)
	assert.Equal(t, service.Resume{RoomID: r.ID, PlayerID: 1, Name: "player-1"}, resume)

	waiting := recvState(t, a, nil)
	assert.Equal(t, game.StatusWaitingForPlayers, waiting.State.Status)
	assert.Equal(t, domain.RoomStatusWaiting, waiting.Room.Status)

	require.NoError(t, r.Join(b, false))
	assert.Equal(t, 1, recvAs[JoinedPayload](t, b, MsgJoined).Seat)

	for _, c := range []*Client{a, b} {
		st := recvState(t, c, withStatus(game.StatusInProgress))
		assert.Equal(t, int64(1), st.State.CurrentPlayerID)
		assert.Equal(t, domain.RoomStatusInProgress, st.Room.Status)
		assert.Len(t, st.Room.Players, 2)
	}
	assert.Same(t, r, a.Room())
}

func TestMoveRejectedGoesOnlyToSender(t *testing.T) {
	h := newTestHub(t, Options{})
	r, a, b := startedTicTacToe(t, h)
	drain(t, a)
	version := r.Info().Version

	require.NoError(t, r.Submit(b, place(4)))
	rej := recvAs[MoveRejectedPayload](t, b, MsgMoveRejected)
	assert.Equal(t, game.CodeNotYourTurn, rej.Code)

	assert.Empty(t, drain(t, a))
	assert.Equal(t, version, r.Info().Version)
}

func TestDuplicateMoveIsRejected(t *testing.T) {
	h := newTestHub(t, Options{})
	r, a, b := startedTicTacToe(t, h)

	require.NoError(t, r.Submit(a, place(0)))
	st := recvState(t, b, func(p StateUpdatePayload) bool { return p.State.TicTacToe.Cells[0] != "" })
	assert.Equal(t, "X", st.State.TicTacToe.Cells[0])

	require.NoError(t, r.Submit(a, place(0)))
	recv(t, a, MsgMoveRejected)
	assert.Equal(t, st.State.Version, r.Info().Version)

	// the same cell is taken for the other player too
	require.NoError(t, r.Submit(b, place(0)))
	rej := recvAs[MoveRejectedPayload](t, b, MsgMoveRejected)
	assert.Equal(t, game.CodeAlreadyResolved, rej.Code)
}

func TestTicTacToeGameIsRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	h := newTestHub(t, Options{Results: rec})
	r, a, b := startedTicTacToe(t, h)

	for i, cell := range []int{0, 3, 1, 4, 2} {
		c := a
		if i%2 == 1 {
			c = b
		}
		require.NoError(t, r.Submit(c, place(cell)))
	}
	st := recvState(t, b, withStatus(game.StatusFinished))
	require.NotNil(t, st.State.Winner)
	assert.Equal(t, int64(1), st.State.Winner.PlayerID)
	assert.Equal(t, domain.RoomStatusFinished, r.Info().Status)

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, waitTimeout, 10*time.Millisecond)
	m := rec.all()[0]
	assert.Equal(t, r.ID, m.RoomID)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, int64(1), *m.WinnerID)
	require.Len(t, m.Participants, 2)
	assert.Equal(t, domain.MatchOutcomeWin, m.Participants[0].Outcome)
	assert.Equal(t, domain.MatchOutcomeLose, m.Participants[1].Outcome)
}

func TestReconnectWithinGraceRestoresSnapshot(t *testing.T) {
	h := newTestHub(t, Options{})
	r, a, b := startedTicTacToe(t, h)

	require.NoError(t, r.Submit(a, place(0)))
	require.NoError(t, r.Submit(b, place(4)))
	recvState(t, b, func(p StateUpdatePayload) bool { return p.State.TicTacToe.Cells[4] != "" })

	require.NoError(t, r.Detach(a))
	st := recvState(t, b, func(p StateUpdatePayload) bool { return !p.State.Players[0].Connected })
	assert.False(t, st.Room.Players[0].Connected)
	assert.Nil(t, a.Room())

	a2 := newTestClient(h, 1)
	require.NoError(t, r.Join(a2, true))
	assert.Equal(t, 0, recvAs[JoinedPayload](t, a2, MsgJoined).Seat)

	got := recvState(t, a2, nil)
	want := recvState(t, b, func(p StateUpdatePayload) bool { return p.State.Players[0].Connected })
	if diff := cmp.Diff(want.State, got.State, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("reconnect snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, [9]string{0: "X", 4: "O"}, got.State.TicTacToe.Cells)
	assert.Equal(t, int64(1), got.State.CurrentPlayerID)

	require.NoError(t, r.Submit(a2, place(8)))
	recvState(t, b, func(p StateUpdatePayload) bool { return p.State.TicTacToe.Cells[8] != "" })
}

func TestGraceExpiryForfeits(t *testing.T) {
	rec := &fakeRecorder{}
	h := newTestHub(t, Options{GracePeriod: 50 * time.Millisecond, Results: rec})
	r, a, b := startedTicTacToe(t, h)

	require.NoError(t, r.Detach(a))
	st := recvState(t, b, withStatus(game.StatusFinished))
	require.NotNil(t, st.State.Winner)
	assert.Equal(t, int64(2), st.State.Winner.PlayerID)
	assert.Equal(t, "forfeit", st.State.Winner.Reason)
	assert.True(t, st.State.Players[0].Eliminated)

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, waitTimeout, 10*time.Millisecond)

	// the seat is gone for good
	assert.ErrorIs(t, r.Join(newTestClient(h, 1), true), ErrSeatVacated)

	// once the last player is gone too the room closes
	require.NoError(t, r.Detach(b))
	waitClosed(t, r)
	assert.Equal(t, ReasonAbandoned, r.CloseReason())
	_, err := h.Room(r.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestResumeWithoutSeat(t *testing.T) {
	h := newTestHub(t, Options{})
	r, err := h.CreateRoom(game.TypeTicTacToe, game.Config{}, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Join(newTestClient(h, 9), true), ErrSeatVacated)
	assert.Empty(t, r.Info().Players)
}

func TestLeaveBeforeStartEmptiesRoom(t *testing.T) {
	h := newTestHub(t, Options{})
	r, err := h.CreateRoom(game.TypeTicTacToe, game.Config{}, 1)
	require.NoError(t, err)
	a := newTestClient(h, 1)
	require.NoError(t, r.Join(a, false))

	require.NoError(t, r.Leave(a))
	closed := recvAs[RoomClosedPayload](t, a, MsgRoomClosed)
	assert.Equal(t, ReasonLeft, closed.Reason)

	waitClosed(t, r)
	assert.Equal(t, ReasonEmpty, r.CloseReason())
	assert.Nil(t, a.Room())
}

func TestLeaveMidGameForfeits(t *testing.T) {
	h := newTestHub(t, Options{})
	r, a, b := startedTicTacToe(t, h)

	require.NoError(t, r.Leave(b))
	assert.Equal(t, ReasonLeft, recvAs[RoomClosedPayload](t, b, MsgRoomClosed).Reason)

	st := recvState(t, a, withStatus(game.StatusFinished))
	assert.Equal(t, int64(1), st.State.Winner.PlayerID)

	assert.ErrorIs(t, r.Join(newTestClient(h, 2), false), ErrSeatVacated)
}

func TestJoinConflicts(t *testing.T) {
	h := newTestHub(t, Options{})

	t.Run("room full", func(t *testing.T) {
		r, _, _ := startedTicTacToe(t, h)
		assert.ErrorIs(t, r.Join(newTestClient(h, 3), false), ErrRoomFull)
	})

	t.Run("already started", func(t *testing.T) {
		r, err := h.CreateRoom(game.TypeMemory, game.Config{}, 1)
		require.NoError(t, err)
		a, b := newTestClient(h, 1), newTestClient(h, 2)
		require.NoError(t, r.Join(a, false))
		require.NoError(t, r.Join(b, false))
		require.NoError(t, r.Start(a))
		recvState(t, b, withStatus(game.StatusInProgress))

		assert.ErrorIs(t, r.Join(newTestClient(h, 3), false), ErrAlreadyStarted)
	})
}

func TestStartGameIsHostOnly(t *testing.T) {
	h := newTestHub(t, Options{})
	r, err := h.CreateRoom(game.TypeMemory, game.Config{}, 1)
	require.NoError(t, err)
	a, b := newTestClient(h, 1), newTestClient(h, 2)
	require.NoError(t, r.Join(a, false))

	require.NoError(t, r.Start(a))
	rej := recvAs[MoveRejectedPayload](t, a, MsgMoveRejected)
	assert.Equal(t, game.CodeNotEnoughPlayers, rej.Code)

	require.NoError(t, r.Join(b, false))
	require.NoError(t, r.Start(b))
	rej = recvAs[MoveRejectedPayload](t, b, MsgMoveRejected)
	assert.Equal(t, CodeNotHost, rej.Code)

	require.NoError(t, r.Start(a))
	st := recvState(t, b, withStatus(game.StatusInProgress))
	assert.Equal(t, int64(1), st.State.CurrentPlayerID)
}

func TestSessionReplacedByNewConnection(t *testing.T) {
	h := newTestHub(t, Options{})
	r, a, _ := startedTicTacToe(t, h)

	a2 := newTestClient(h, 1)
	require.NoError(t, r.Join(a2, false))
	recv(t, a, MsgError)
	assert.Nil(t, a.Room())
	assert.Same(t, r, a2.Room())

	// the old connection going away does not touch the seat
	require.NoError(t, r.Detach(a))
	require.NoError(t, r.Submit(a2, place(0)))
	st := recvState(t, a2, func(p StateUpdatePayload) bool { return p.State.TicTacToe.Cells[0] != "" })
	assert.True(t, st.State.Players[0].Connected)
}

func TestPokerBuyInAndHandResult(t *testing.T) {
	rec := &fakeRecorder{}
	h := newTestHub(t, Options{Results: rec})
	r, err := h.CreateRoom(game.TypePoker, game.Config{}, 1)
	require.NoError(t, err)
	a, b := newTestClient(h, 1), newTestClient(h, 2)
	require.NoError(t, r.Join(a, false))
	require.NoError(t, r.Join(b, false))

	require.NoError(t, r.Submit(a, buyIn(5000)))
	rej := recvAs[MoveRejectedPayload](t, a, MsgMoveRejected)
	assert.Equal(t, game.CodeBuyInOutOfRange, rej.Code)

	require.NoError(t, r.Submit(a, buyIn(200)))
	require.NoError(t, r.Submit(b, buyIn(200)))
	st := recvState(t, a, withStatus(game.StatusWaitingForNextHand))
	assert.Equal(t, int64(200), st.State.Players[0].Stack)

	require.NoError(t, r.Start(b))
	st = recvState(t, a, withStatus(game.StatusInProgress))
	assert.Len(t, st.State.Poker.Hole[1], 2)
	assert.NotContains(t, st.State.Poker.Hole, int64(2))

	require.NoError(t, r.Leave(a))
	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, waitTimeout, 10*time.Millisecond)
	m := rec.all()[0]
	assert.Equal(t, string(game.TypePoker), m.GameType)
	assert.Equal(t, 1, m.HandNumber)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, int64(2), *m.WinnerID)
	assert.Equal(t, "uncontested", m.Reason)
}

func TestIntegrityFailureClosesRoom(t *testing.T) {
	h := newTestHub(t, Options{})
	broken := game.State{
		Type:    game.Type("checkers"),
		Status:  game.StatusWaitingForPlayers,
		Players: []game.Seat{{PlayerID: 1, Name: "player-1"}},
	}
	r := newRoom(h, "broken", 1, time.Now(), broken)
	h.register(r)

	a := newTestClient(h, 1)
	require.NoError(t, r.Join(a, true))
	require.NoError(t, r.Start(a))

	closed := recvAs[RoomClosedPayload](t, a, MsgRoomClosed)
	assert.Equal(t, ReasonIntegrityFailure, closed.Reason)
	waitClosed(t, r)
	assert.ErrorIs(t, r.Submit(a, place(0)), ErrRoomClosed)
}
