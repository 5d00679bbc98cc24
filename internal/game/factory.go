package game

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownType   = errors.New("unknown game type")
	ErrInvalidConfig = errors.New("invalid game config")
)

// New returns the empty state of a room of the given type. Game specific
// defaults are filled into the config here so that every later transition
// reads the same values.
func New(t Type, cfg Config) (State, error) {
	var err error
	switch t {
	case TypeTicTacToe, TypeChess:
	case TypeQuiz:
		err = normalizeQuiz(&cfg)
	case TypeMemory:
		err = normalizeMemory(&cfg)
	case TypeWordle:
		err = normalizeWordle(&cfg)
	case TypeCodenames:
		err = normalizeCodenames(&cfg)
	case TypePoker:
		err = normalizePoker(&cfg)
	default:
		return State{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if err != nil {
		return State{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	s := State{
		Type:    t,
		Status:  StatusWaitingForPlayers,
		Config:  cfg,
		Players: []Seat{},
	}
	if t == TypePoker {
		s.Poker = newPokerTable(cfg)
	}
	return s, nil
}

// AddPlayer seats a new player. Turn based games only accept players before
// they start, a poker table accepts them at any time and deals them in from
// the next hand.
func AddPlayer(s State, playerID int64, name string) (State, error) {
	if s.SeatIndex(playerID) >= 0 {
		return s, reject(CodeAlreadySeated, "already seated")
	}
	if len(s.Players) >= s.Capacity() {
		return s, reject(CodeRoomFull, "room is full")
	}
	if s.Type == TypePoker {
		if s.Status == StatusFinished {
			return s, reject(CodeGameNotRunning, "table is closed")
		}
	} else if s.Status != StatusWaitingForPlayers {
		return s, reject(CodeAlreadyStarted, "game already started")
	}

	next := s.Clone()
	next.Players = append(next.Players, Seat{PlayerID: playerID, Name: name, Connected: true})
	next.reindex()
	if next.Type == TypePoker {
		next.refreshTableStatus()
	}
	next.Version++
	return next, nil
}

// SetConnected records a connection change. It reports false when nothing
// changed.
func SetConnected(s State, playerID int64, connected bool) (State, bool) {
	i := s.SeatIndex(playerID)
	if i < 0 || s.Players[i].Connected == connected {
		return s, false
	}
	next := s.Clone()
	next.Players[i].Connected = connected
	next.Version++
	return next, true
}

// Begin moves a turn based game from waiting_for_players to in_progress and
// deals its initial board.
func Begin(s State, env Env) (State, error) {
	if s.Type == TypePoker {
		return s, reject(CodeWrongPhase, "poker hands are started with %s", ActionStartHand)
	}
	if s.Status != StatusWaitingForPlayers {
		return s, reject(CodeAlreadyStarted, "game already started")
	}
	if len(s.Players) < RulesFor(s.Type).MinPlayers {
		return s, reject(CodeNotEnoughPlayers, "need at least %d players", RulesFor(s.Type).MinPlayers)
	}

	next := s.Clone()
	switch next.Type {
	case TypeTicTacToe:
		beginTicTacToe(&next)
	case TypeChess:
		beginChess(&next)
	case TypeQuiz:
		beginQuiz(&next, env)
	case TypeMemory:
		beginMemory(&next, env)
	case TypeWordle:
		beginWordle(&next, env)
	case TypeCodenames:
		beginCodenames(&next, env)
	default:
		return s, integrity("begin: unhandled game type %q", next.Type)
	}
	next.Status = StatusInProgress
	next.Version++
	if err := Validate(next); err != nil {
		return s, err
	}
	return next, nil
}

// Apply validates m against s and returns the next state. s is never
// modified. Expected failures are *Rejection, broken invariants are
// *IntegrityError.
func Apply(s State, m Move, env Env) (State, error) {
	seat := s.SeatIndex(m.PlayerID)
	if seat < 0 {
		return s, reject(CodeNotSeated, "not seated in this room")
	}
	if s.Players[seat].Eliminated {
		return s, reject(CodeNotSeated, "you have left this game")
	}
	if s.Type != TypePoker && s.Status != StatusInProgress {
		return s, reject(CodeGameNotRunning, "game is %s", s.Status)
	}

	next := s.Clone()
	var err error
	switch next.Type {
	case TypeTicTacToe:
		err = applyTicTacToe(&next, seat, m)
	case TypeChess:
		err = applyChess(&next, seat, m)
	case TypeQuiz:
		err = applyQuiz(&next, seat, m)
	case TypeMemory:
		err = applyMemory(&next, seat, m)
	case TypeWordle:
		err = applyWordle(&next, seat, m)
	case TypeCodenames:
		err = applyCodenames(&next, seat, m)
	case TypePoker:
		err = applyPoker(&next, seat, m, env)
	default:
		err = integrity("apply: unhandled game type %q", next.Type)
	}
	if err != nil {
		return s, err
	}
	next.Version++
	if err := Validate(next); err != nil {
		return s, err
	}
	return next, nil
}

// Forfeit applies the abandonment rule for a player who left or whose
// reconnection grace expired. Before a game starts the seat is simply freed.
// In a running turn based game the player is eliminated and, when only one
// opponent remains, that opponent wins. At a poker table the hand is folded
// and the seat vacated once the hand is over.
func Forfeit(s State, playerID int64, env Env) (State, error) {
	seat := s.SeatIndex(playerID)
	if seat < 0 {
		return s, reject(CodeNotSeated, "not seated in this room")
	}

	next := s.Clone()
	var err error
	switch {
	case next.Type == TypePoker:
		err = forfeitPoker(&next, seat, env)
	case next.Status == StatusWaitingForPlayers:
		next.removeSeat(seat)
	case next.Status == StatusFinished:
		return s, nil
	default:
		if next.Players[seat].Eliminated {
			return s, nil
		}
		next.Players[seat].Eliminated = true
		err = forfeitTurnBased(&next, seat)
	}
	if err != nil {
		return s, err
	}
	next.Version++
	if err := Validate(next); err != nil {
		return s, err
	}
	return next, nil
}

func forfeitTurnBased(s *State, seat int) error {
	switch s.Type {
	case TypeCodenames:
		return forfeitCodenames(s, seat)
	case TypeTicTacToe, TypeChess, TypeQuiz, TypeMemory, TypeWordle:
	default:
		return integrity("forfeit: unhandled game type %q", s.Type)
	}

	active := s.active()
	if len(active) == 1 {
		s.finishPlayer(active[0], "forfeit")
		return nil
	}
	if len(active) == 0 {
		s.finishDraw("abandoned")
		return nil
	}

	switch s.Type {
	case TypeQuiz:
		if s.Quiz.allAnswered(s) {
			resolveQuizQuestion(s)
		}
	case TypeMemory:
		if s.CurrentPlayerID == s.Players[seat].PlayerID {
			s.Memory.Flipped = nil
			s.CurrentPlayerID = s.Players[s.nextActive(seat, nil)].PlayerID
		}
	case TypeWordle:
		if s.CurrentPlayerID == s.Players[seat].PlayerID {
			advanceWordle(s, seat)
		}
	}
	return nil
}

// View is the copy of s that viewer is allowed to see. Hidden information
// (secret words, undealt and foreign hole cards, unrevealed faces and roles,
// open quiz answers) is removed.
func View(s State, viewer int64) State {
	v := s.Clone()
	v.Config.Secret = ""
	v.Config.Questions = nil
	v.Config.Words = nil
	finished := v.Status == StatusFinished

	switch v.Type {
	case TypeQuiz:
		if v.Quiz != nil {
			v.Quiz.redact(viewer, finished)
		}
	case TypeMemory:
		if v.Memory != nil && !finished {
			v.Memory.redact()
		}
	case TypeWordle:
		if v.Wordle != nil && !finished {
			v.Wordle.Secret = ""
		}
	case TypeCodenames:
		if v.Codenames != nil && !finished && !s.Codenames.seesRoles(&s, viewer) {
			v.Codenames.redact()
		}
	case TypePoker:
		if v.Poker != nil {
			v.Poker.redact(viewer)
		}
	}
	return v
}

// Validate checks the invariants every state must hold.
func Validate(s State) error {
	if (s.Status == StatusFinished) != (s.Winner != nil) {
		return integrity("status %s with winner set=%t", s.Status, s.Winner != nil)
	}
	boards := 0
	for _, set := range []bool{s.TicTacToe != nil, s.Chess != nil, s.Quiz != nil, s.Memory != nil,
		s.Wordle != nil, s.Codenames != nil, s.Poker != nil} {
		if set {
			boards++
		}
	}
	if boards > 1 {
		return integrity("%d boards populated", boards)
	}

	var present bool
	switch s.Type {
	case TypeTicTacToe:
		present = s.TicTacToe != nil
	case TypeChess:
		present = s.Chess != nil
	case TypeQuiz:
		present = s.Quiz != nil
	case TypeMemory:
		present = s.Memory != nil
	case TypeWordle:
		present = s.Wordle != nil
	case TypeCodenames:
		present = s.Codenames != nil
	case TypePoker:
		if s.Poker == nil {
			return integrity("poker table missing")
		}
		return validatePoker(&s)
	default:
		return integrity("unknown game type %q", s.Type)
	}
	if s.Status != StatusWaitingForPlayers && !present {
		return integrity("%s board missing in status %s", s.Type, s.Status)
	}
	return nil
}
