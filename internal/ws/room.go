package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/domain"
	"github.com/MmmDelicious/lovememory-sub007/internal/game"
	"github.com/MmmDelicious/lovememory-sub007/internal/logger"
	"github.com/MmmDelicious/lovememory-sub007/internal/repository"
)

const (
	eventBuffer   = 256
	recordTimeout = 5 * time.Second
)

type event interface{}

type joinEvent struct {
	client *Client
	resume bool
	reply  chan error
}

type moveEvent struct {
	client *Client
	move   game.Move
}

type startEvent struct{ client *Client }

type leaveEvent struct{ client *Client }

type detachEvent struct{ client *Client }

type graceEvent struct {
	playerID int64
	gen      uint64
}

type closeEvent struct {
	reason       string
	keepSnapshot bool
}

type graceTimer struct {
	timer *time.Timer
	gen   uint64
}

// Room owns one game. All changes to the state happen on the goroutine
// started by run, in the order events arrive.
type Room struct {
	ID        string
	Type      game.Type
	HostID    int64
	CreatedAt time.Time

	hub    *Hub
	events chan event
	done   chan struct{}

	// owned by run
	env        game.Env
	state      game.State
	clients    map[int64]*Client
	grace      map[int64]graceTimer
	graceSeq   uint64
	closed     bool
	recorded   bool
	recordedTo int
	persister  *persister

	mu          sync.RWMutex
	info        RoomInfo
	closeReason string
}

func newRoom(hub *Hub, id string, hostID int64, createdAt time.Time, state game.State) *Room {
	r := &Room{
		ID:        id,
		Type:      state.Type,
		HostID:    hostID,
		CreatedAt: createdAt,
		hub:       hub,
		events:    make(chan event, eventBuffer),
		done:      make(chan struct{}),
		env:       hub.newEnv(),
		state:     state,
		clients:   make(map[int64]*Client),
		grace:     make(map[int64]graceTimer),
	}
	if state.Poker != nil && state.Poker.LastHand != nil {
		r.recordedTo = state.Poker.LastHand.Number
	}
	r.recorded = state.Status == game.StatusFinished
	r.persister = newPersister(hub.opts.Snapshots)
	r.publish()
	return r
}

// Info returns the last published summary of the room.
func (r *Room) Info() RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info := r.info
	info.Players = append([]PlayerInfo(nil), r.info.Players...)
	return info
}

// CloseReason is empty while the room is open.
func (r *Room) CloseReason() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closeReason
}

// Done is closed once the room stops accepting events.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Join seats the client's player, or reattaches it to the seat it already
// holds. resume marks a reconnect through a resumption credential, which
// never takes a fresh seat.
func (r *Room) Join(c *Client, resume bool) error {
	reply := make(chan error, 1)
	if err := r.enqueue(joinEvent{client: c, resume: resume, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) Submit(c *Client, m game.Move) error {
	return r.enqueue(moveEvent{client: c, move: m})
}

func (r *Room) Start(c *Client) error {
	return r.enqueue(startEvent{client: c})
}

func (r *Room) Leave(c *Client) error {
	return r.enqueue(leaveEvent{client: c})
}

// Detach records that the client's connection is gone. The seat stays for
// the grace period.
func (r *Room) Detach(c *Client) error {
	return r.enqueue(detachEvent{client: c})
}

func (r *Room) Close(reason string) error {
	return r.enqueue(closeEvent{reason: reason})
}

func (r *Room) enqueue(ev event) error {
	select {
	case <-r.done:
		return ErrRoomClosed
	default:
	}
	select {
	case r.events <- ev:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) run() {
	logger.Debug("room started", "room", r.ID, "game", r.Type)
	for !r.closed {
		r.handle(<-r.events)
	}
	r.drain()
}

// drain answers the events queued behind the close with the close reason.
func (r *Room) drain() {
	for {
		var c *Client
		select {
		case ev := <-r.events:
			switch ev := ev.(type) {
			case joinEvent:
				ev.reply <- ErrRoomClosed
			case moveEvent:
				c = ev.client
			case startEvent:
				c = ev.client
			case leaveEvent:
				c = ev.client
			}
		default:
			return
		}
		if c != nil {
			c.clearRoom(r)
			c.send(MsgRoomClosed, RoomClosedPayload{Reason: r.closeReason})
		}
	}
}

func (r *Room) handle(ev event) {
	switch ev := ev.(type) {
	case joinEvent:
		ev.reply <- r.join(ev.client, ev.resume)
	case moveEvent:
		r.move(ev.client, ev.move)
	case startEvent:
		r.start(ev.client)
	case leaveEvent:
		r.leave(ev.client)
	case detachEvent:
		r.detach(ev.client)
	case graceEvent:
		r.expire(ev.playerID, ev.gen)
	case closeEvent:
		r.close(ev.reason, ev.keepSnapshot)
	default:
		logger.Error("room: unknown event", "room", r.ID, "event", fmt.Sprintf("%T", ev))
	}
}

func (r *Room) join(c *Client, resume bool) error {
	id := c.PlayerID
	seat, seated := r.state.Seat(id)

	switch {
	case seated && seat.Eliminated:
		return ErrSeatVacated
	case seated:
		r.stopGrace(id)
		if old, ok := r.clients[id]; ok && old != c {
			old.clearRoom(r)
			old.sendError(errors.New("session replaced by a new connection"))
		}
		r.sendJoined(c, seat.Index)
		r.attach(c)
		if resume || !seat.Connected {
			reconnects.Inc()
		}
		next, changed := game.SetConnected(r.state, id, true)
		if changed {
			r.commit(next)
		} else {
			r.sendState(c)
		}
		logger.Info("player reattached", "room", r.ID, "player", id)
		return nil
	case resume:
		return ErrSeatVacated
	}

	next, err := game.AddPlayer(r.state, id, c.Name)
	if err != nil {
		if rej, ok := game.AsRejection(err); ok {
			switch rej.Code {
			case game.CodeRoomFull:
				return ErrRoomFull
			case game.CodeAlreadyStarted:
				return ErrAlreadyStarted
			}
			return fmt.Errorf("join room: %s", rej.Reason)
		}
		return err
	}

	r.sendJoined(c, next.SeatIndex(id))
	r.attach(c)
	r.commit(next)
	logger.Info("player joined", "room", r.ID, "player", id, "seats", len(next.Players))

	r.maybeAutoStart()
	return nil
}

func (r *Room) attach(c *Client) {
	r.clients[c.PlayerID] = c
	c.setRoom(r)
}

// maybeAutoStart begins a turn based game once every seat is taken.
func (r *Room) maybeAutoStart() {
	if r.Type == game.TypePoker || r.state.Status != game.StatusWaitingForPlayers {
		return
	}
	if len(r.state.Players) < r.state.Capacity() {
		return
	}
	next, err := game.Begin(r.state, r.env)
	if err != nil {
		if game.IsIntegrity(err) {
			r.integrityFailure(err)
			return
		}
		logger.Warn("auto start failed", "room", r.ID, "error", err)
		return
	}
	logger.Info("game started", "room", r.ID, "game", r.Type, "players", len(next.Players))
	r.commit(next)
}

func (r *Room) move(c *Client, m game.Move) {
	if r.clients[c.PlayerID] != c {
		c.sendError(ErrNotInRoom)
		return
	}
	m.PlayerID = c.PlayerID
	next, err := game.Apply(r.state, m, r.env)
	if err != nil {
		r.reject(c, err)
		return
	}
	movesAccepted.WithLabelValues(string(r.Type), string(m.Action)).Inc()
	r.commit(next)
}

func (r *Room) start(c *Client) {
	if r.clients[c.PlayerID] != c {
		c.sendError(ErrNotInRoom)
		return
	}
	if r.Type == game.TypePoker {
		r.move(c, game.Move{PlayerID: c.PlayerID, Action: game.ActionStartHand})
		return
	}
	if host := r.host(); c.PlayerID != host {
		movesRejected.WithLabelValues(string(r.Type), CodeNotHost).Inc()
		c.send(MsgMoveRejected, MoveRejectedPayload{Code: CodeNotHost, Reason: "only the host can start the game"})
		return
	}
	next, err := game.Begin(r.state, r.env)
	if err != nil {
		r.reject(c, err)
		return
	}
	logger.Info("game started", "room", r.ID, "game", r.Type, "players", len(next.Players))
	r.commit(next)
}

// host is the creator while seated, otherwise the first seat.
func (r *Room) host() int64 {
	if _, ok := r.state.Seat(r.HostID); ok {
		return r.HostID
	}
	if len(r.state.Players) > 0 {
		return r.state.Players[0].PlayerID
	}
	return 0
}

func (r *Room) leave(c *Client) {
	id := c.PlayerID
	if r.clients[id] != c {
		c.sendError(ErrNotInRoom)
		return
	}
	delete(r.clients, id)
	r.stopGrace(id)
	c.clearRoom(r)
	c.send(MsgRoomClosed, RoomClosedPayload{Reason: ReasonLeft})

	r.forfeit(id, "leave")
	if !r.closed {
		r.closeIfAbandoned()
	}
}

func (r *Room) detach(c *Client) {
	id := c.PlayerID
	if r.clients[id] != c {
		return
	}
	delete(r.clients, id)
	c.clearRoom(r)

	if next, changed := game.SetConnected(r.state, id, false); changed {
		r.commit(next)
	}
	if seat, ok := r.state.Seat(id); ok && !seat.Eliminated {
		r.startGrace(id)
	}
	logger.Info("player disconnected", "room", r.ID, "player", id, "grace", r.hub.opts.GracePeriod)
	r.closeIfAbandoned()
}

func (r *Room) startGrace(id int64) {
	r.stopGrace(id)
	r.graceSeq++
	gen := r.graceSeq
	t := time.AfterFunc(r.hub.opts.GracePeriod, func() {
		_ = r.enqueue(graceEvent{playerID: id, gen: gen})
	})
	r.grace[id] = graceTimer{timer: t, gen: gen}
}

func (r *Room) stopGrace(id int64) {
	if g, ok := r.grace[id]; ok {
		g.timer.Stop()
		delete(r.grace, id)
	}
}

func (r *Room) expire(id int64, gen uint64) {
	g, ok := r.grace[id]
	if !ok || g.gen != gen {
		return
	}
	delete(r.grace, id)
	if _, attached := r.clients[id]; !attached {
		logger.Info("grace period expired", "room", r.ID, "player", id)
		r.forfeit(id, "grace_expired")
	}
	if !r.closed {
		r.closeIfAbandoned()
	}
}

func (r *Room) forfeit(id int64, cause string) {
	if _, ok := r.state.Seat(id); !ok {
		return
	}
	next, err := game.Forfeit(r.state, id, r.env)
	if err != nil {
		if game.IsIntegrity(err) {
			r.integrityFailure(err)
			return
		}
		logger.Warn("forfeit refused", "room", r.ID, "player", id, "error", err)
		return
	}
	if next.Version == r.state.Version {
		return
	}
	forfeits.WithLabelValues(string(r.Type), cause).Inc()
	r.commit(next)
}

// closeIfAbandoned closes the room once nobody holds a seat, or nobody is
// connected and no grace period is running.
func (r *Room) closeIfAbandoned() {
	switch {
	case len(r.state.Players) == 0 && r.state.Version > 0:
		r.close(ReasonEmpty, false)
	case len(r.clients) == 0 && len(r.grace) == 0 && len(r.state.Players) > 0:
		r.close(ReasonAbandoned, false)
	}
}

func (r *Room) reject(c *Client, err error) {
	if rej, ok := game.AsRejection(err); ok {
		movesRejected.WithLabelValues(string(r.Type), rej.Code).Inc()
		c.send(MsgMoveRejected, MoveRejectedPayload{Code: rej.Code, Reason: rej.Reason})
		return
	}
	if game.IsIntegrity(err) {
		r.integrityFailure(err)
		return
	}
	c.sendError(err)
}

func (r *Room) integrityFailure(err error) {
	integrityFailures.WithLabelValues(string(r.Type)).Inc()
	logger.Error("room integrity failure", "room", r.ID, "game", r.Type, "version", r.state.Version, "error", err)
	r.close(ReasonIntegrityFailure, false)
}

// commit installs next as the authoritative state and fans it out.
func (r *Room) commit(next game.State) {
	r.state = next
	r.publish()
	r.persister.save(r.snapshot())
	r.broadcast()
	r.recordResults()
}

func (r *Room) snapshot() repository.RoomSnapshot {
	return repository.RoomSnapshot{
		RoomID:    r.ID,
		HostID:    r.HostID,
		CreatedAt: r.CreatedAt,
		SavedAt:   time.Now(),
		State:     r.state,
	}
}

func (r *Room) publish() {
	info := RoomInfo{
		ID:         r.ID,
		Type:       r.Type,
		Status:     roomStatus(r.state.Status),
		GameStatus: r.state.Status,
		HostID:     r.HostID,
		Players:    make([]PlayerInfo, 0, len(r.state.Players)),
		Capacity:   r.state.Capacity(),
		Version:    r.state.Version,
		CreatedAt:  r.CreatedAt,
	}
	for _, p := range r.state.Players {
		info.Players = append(info.Players, PlayerInfo{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Seat:      p.Index,
			Connected: p.Connected,
		})
	}
	r.mu.Lock()
	r.info = info
	r.mu.Unlock()
}

func roomStatus(s game.Status) domain.RoomStatus {
	switch s {
	case game.StatusInProgress:
		return domain.RoomStatusInProgress
	case game.StatusFinished:
		return domain.RoomStatusFinished
	default:
		return domain.RoomStatusWaiting
	}
}

func (r *Room) broadcast() {
	info := r.Info()
	for id, c := range r.clients {
		c.send(MsgStateUpdate, StateUpdatePayload{Room: info, State: game.View(r.state, id)})
	}
}

func (r *Room) sendState(c *Client) {
	c.send(MsgStateUpdate, StateUpdatePayload{Room: r.Info(), State: game.View(r.state, c.PlayerID)})
}

func (r *Room) sendJoined(c *Client, seat int) {
	p := JoinedPayload{RoomID: r.ID, PlayerID: c.PlayerID, Seat: seat}
	if tokens := r.hub.opts.Tokens; tokens != nil {
		token, err := tokens.IssueResume(r.ID, c.PlayerID, c.Name)
		if err != nil {
			logger.Warn("issue resume token", "room", r.ID, "player", c.PlayerID, "error", err)
		}
		p.ResumeToken = token
	}
	c.send(MsgJoined, p)
}

func (r *Room) close(reason string, keepSnapshot bool) {
	if r.closed {
		return
	}
	r.closed = true

	for id := range r.grace {
		r.stopGrace(id)
	}
	for _, c := range r.clients {
		c.clearRoom(r)
		c.send(MsgRoomClosed, RoomClosedPayload{Reason: reason})
	}
	r.clients = map[int64]*Client{}

	r.mu.Lock()
	r.closeReason = reason
	r.info.Status = domain.RoomStatusClosed
	r.mu.Unlock()

	close(r.done)
	r.hub.remove(r)
	r.persister.stop(!keepSnapshot, r.ID)

	roomsActive.Dec()
	roomsClosed.WithLabelValues(reason).Inc()
	logger.Info("room closed", "room", r.ID, "game", r.Type, "reason", reason)
}

// recordResults hands finished games and completed poker hands to the
// result recorder without waiting for it.
func (r *Room) recordResults() {
	rec := r.hub.opts.Results
	if rec == nil {
		return
	}
	if r.state.Status == game.StatusFinished && !r.recorded {
		r.recorded = true
		r.record(rec, matchResult(r.ID, r.state))
	}
	if r.state.Poker != nil && r.state.Poker.LastHand != nil && r.state.Poker.LastHand.Number > r.recordedTo {
		r.recordedTo = r.state.Poker.LastHand.Number
		r.record(rec, handResult(r.ID, r.state))
	}
}

func (r *Room) record(rec ResultRecorder, m *domain.MatchResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := rec.Record(ctx, m); err != nil {
			logger.Warn("record match result", "room", m.RoomID, "hand", m.HandNumber, "error", err)
		}
	}()
}

func matchResult(roomID string, s game.State) *domain.MatchResult {
	m := &domain.MatchResult{
		RoomID:     roomID,
		GameType:   string(s.Type),
		FinishedAt: time.Now().UTC(),
	}
	w := s.Winner
	if w != nil {
		m.Draw = w.Draw
		m.Reason = w.Reason
		m.WinnerTeam = string(w.Team)
		if w.PlayerID != 0 {
			id := w.PlayerID
			m.WinnerID = &id
		}
	}
	for _, p := range s.Players {
		outcome := domain.MatchOutcomeLose
		switch {
		case w == nil:
		case w.Draw:
			outcome = domain.MatchOutcomeDraw
		case w.PlayerID == p.PlayerID, w.Team != "" && w.Team == p.Team:
			outcome = domain.MatchOutcomeWin
		}
		m.Participants = append(m.Participants, domain.MatchParticipant{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Seat:     p.Index,
			Team:     string(p.Team),
			Score:    p.Score,
			Outcome:  outcome,
		})
	}
	return m
}

func handResult(roomID string, s game.State) *domain.MatchResult {
	hand := s.Poker.LastHand
	won := map[int64]int64{}
	for _, a := range hand.Awards {
		won[a.PlayerID] += a.Amount
	}
	involved := map[int64]bool{}
	for _, p := range hand.Pots {
		for _, id := range p.Eligible {
			involved[id] = true
		}
	}
	for id := range won {
		involved[id] = true
	}

	m := &domain.MatchResult{
		RoomID:     roomID,
		GameType:   string(s.Type),
		HandNumber: hand.Number,
		Reason:     "showdown",
		Details:    map[string]any{"awards": hand.Awards, "pots": hand.Pots},
		FinishedAt: time.Now().UTC(),
	}
	if len(hand.Shown) == 0 {
		m.Reason = "uncontested"
	}
	var best int64
	for id, amount := range won {
		if amount > best || (amount == best && m.WinnerID != nil && id < *m.WinnerID) {
			best = amount
			winner := id
			m.WinnerID = &winner
		}
	}
	for _, p := range s.Players {
		if !involved[p.PlayerID] {
			continue
		}
		outcome := domain.MatchOutcomeLose
		if won[p.PlayerID] > 0 {
			outcome = domain.MatchOutcomeWin
		}
		m.Participants = append(m.Participants, domain.MatchParticipant{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Seat:     p.Index,
			Stack:    p.Stack,
			Outcome:  outcome,
		})
	}
	return m
}
