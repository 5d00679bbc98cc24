package game

import (
	"encoding/json"
	"math/rand/v2"
	"time"
)

// Type identifies one of the supported games. The set is closed: every switch
// over Type in this package handles all of them and treats anything else as an
// integrity failure.
type Type string

const (
	TypeTicTacToe Type = "tic_tac_toe"
	TypeChess     Type = "chess"
	TypeQuiz      Type = "quiz"
	TypeMemory    Type = "memory"
	TypeWordle    Type = "wordle"
	TypeCodenames Type = "codenames"
	TypePoker     Type = "poker"
)

// Types lists every supported game type in display order.
var Types = []Type{TypeTicTacToe, TypeChess, TypeQuiz, TypeMemory, TypeWordle, TypeCodenames, TypePoker}

func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusWaitingForPlayers  Status = "waiting_for_players"
	StatusWaitingForNextHand Status = "waiting_for_next_hand"
	StatusInProgress         Status = "in_progress"
	StatusFinished           Status = "finished"
)

// Phase is a sub-state of in_progress. Codenames alternates between clue
// giving and guessing, poker walks through the streets of a hand.
type Phase string

const (
	PhaseGivingClue Phase = "giving_clue"
	PhaseGuessing   Phase = "guessing"

	PhasePreFlop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
)

type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

func (t Team) Other() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

type Action string

const (
	ActionPlace       Action = "place"
	ActionMove        Action = "move"
	ActionAnswer      Action = "answer"
	ActionFlip        Action = "flip"
	ActionSubmitGuess Action = "submit_guess"
	ActionGiveClue    Action = "give_clue"
	ActionPickCard    Action = "pick_card"
	ActionEndTurn     Action = "end_turn"

	ActionBuyIn     Action = "buy_in"
	ActionRebuy     Action = "rebuy"
	ActionStartHand Action = "start_hand"
	ActionFold      Action = "fold"
	ActionCheck     Action = "check"
	ActionCall      Action = "call"
	ActionRaise     Action = "raise"
	ActionAllIn     Action = "all_in"
)

// Seat is a player's slot in a room. Generic fields are shared by every game,
// the chip fields are only used at a poker table.
type Seat struct {
	PlayerID   int64  `json:"player_id"`
	Name       string `json:"name"`
	Index      int    `json:"seat"`
	Connected  bool   `json:"connected"`
	Eliminated bool   `json:"eliminated,omitempty"`
	Score      int    `json:"score"`
	Team       Team   `json:"team,omitempty"`

	Stack       int64 `json:"stack,omitempty"`
	CurrentBet  int64 `json:"current_bet,omitempty"`
	Committed   int64 `json:"committed,omitempty"`
	HasBoughtIn bool  `json:"has_bought_in,omitempty"`
	IsAllIn     bool  `json:"is_all_in,omitempty"`
	Folded      bool  `json:"folded,omitempty"`
	InHand      bool  `json:"in_hand,omitempty"`
	Acted       bool  `json:"acted,omitempty"`
}

// Winner is only ever set together with StatusFinished. A drawn game carries a
// Winner with Draw set.
type Winner struct {
	PlayerID int64  `json:"player_id,omitempty"`
	Team     Team   `json:"team,omitempty"`
	Name     string `json:"name"`
	Draw     bool   `json:"draw,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Config is fixed when the room is created.
type Config struct {
	MaxPlayers int `json:"max_players,omitempty"`

	Secret      string `json:"secret,omitempty"`
	MaxAttempts int    `json:"max_attempts,omitempty"`

	Questions []QuizQuestion `json:"questions,omitempty"`

	Pairs int `json:"pairs,omitempty"`

	Words []string `json:"words,omitempty"`

	SmallBlind int64 `json:"small_blind,omitempty"`
	BigBlind   int64 `json:"big_blind,omitempty"`
	MaxBuyIn   int64 `json:"max_buy_in,omitempty"`
}

// State is the authoritative state of one room. Type selects which of the
// board pointers is populated.
type State struct {
	Type            Type    `json:"type"`
	Status          Status  `json:"status"`
	Version         int64   `json:"version"`
	Config          Config  `json:"config"`
	Players         []Seat  `json:"players"`
	CurrentPlayerID int64   `json:"current_player_id,omitempty"`
	CurrentTeam     Team    `json:"current_team,omitempty"`
	Phase           Phase   `json:"phase,omitempty"`
	Winner          *Winner `json:"winner,omitempty"`

	TicTacToe *TicTacToeBoard `json:"tic_tac_toe,omitempty"`
	Chess     *ChessBoard     `json:"chess,omitempty"`
	Quiz      *QuizBoard      `json:"quiz,omitempty"`
	Memory    *MemoryBoard    `json:"memory,omitempty"`
	Wordle    *WordleBoard    `json:"wordle,omitempty"`
	Codenames *CodenamesBoard `json:"codenames,omitempty"`
	Poker     *PokerTable     `json:"poker,omitempty"`
}

type Move struct {
	PlayerID int64           `json:"player_id"`
	Action   Action          `json:"action"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Env carries the only non-deterministic input of a transition.
type Env struct {
	Rand *rand.Rand
}

func NewEnv(seed uint64) Env {
	return Env{Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// DefaultEnv seeds from the wall clock.
func DefaultEnv() Env {
	return NewEnv(uint64(time.Now().UnixNano()))
}

func (e Env) shuffle(n int, swap func(i, j int)) {
	if e.Rand == nil {
		rand.Shuffle(n, swap)
		return
	}
	e.Rand.Shuffle(n, swap)
}

func (e Env) intN(n int) int {
	if e.Rand == nil {
		return rand.IntN(n)
	}
	return e.Rand.IntN(n)
}

// Rules bounds the number of seats per game.
type Rules struct {
	MinPlayers int
	MaxPlayers int
}

func RulesFor(t Type) Rules {
	switch t {
	case TypeTicTacToe, TypeChess:
		return Rules{MinPlayers: 2, MaxPlayers: 2}
	case TypeQuiz:
		return Rules{MinPlayers: 2, MaxPlayers: 8}
	case TypeMemory, TypeWordle:
		return Rules{MinPlayers: 2, MaxPlayers: 4}
	case TypeCodenames:
		return Rules{MinPlayers: 2, MaxPlayers: 8}
	case TypePoker:
		return Rules{MinPlayers: 2, MaxPlayers: 9}
	default:
		return Rules{}
	}
}

// Capacity is the seat limit of a state, honouring a smaller configured max.
func (s *State) Capacity() int {
	r := RulesFor(s.Type)
	if s.Config.MaxPlayers >= r.MinPlayers && s.Config.MaxPlayers < r.MaxPlayers {
		return s.Config.MaxPlayers
	}
	return r.MaxPlayers
}

func (s *State) SeatIndex(playerID int64) int {
	for i := range s.Players {
		if s.Players[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

func (s *State) Seat(playerID int64) (Seat, bool) {
	i := s.SeatIndex(playerID)
	if i < 0 {
		return Seat{}, false
	}
	return s.Players[i], true
}

// Running reports whether moves are currently being played.
func (s *State) Running() bool {
	return s.Status == StatusInProgress
}

func (s *State) finish(w Winner) {
	s.Winner = &w
	s.Status = StatusFinished
	s.CurrentPlayerID = 0
	s.CurrentTeam = ""
	s.Phase = ""
}

func (s *State) finishDraw(reason string) {
	s.finish(Winner{Name: "draw", Draw: true, Reason: reason})
}

func (s *State) finishPlayer(seat int, reason string) {
	p := s.Players[seat]
	s.finish(Winner{PlayerID: p.PlayerID, Name: p.Name, Reason: reason})
}

// finishByScore ends the game in favour of the single best score among
// active players; a shared best score is a draw.
func (s *State) finishByScore(reason string) {
	best, bestSeat, tie := -1, -1, false
	for i, p := range s.Players {
		if p.Eliminated {
			continue
		}
		switch {
		case p.Score > best:
			best, bestSeat, tie = p.Score, i, false
		case p.Score == best:
			tie = true
		}
	}
	if bestSeat < 0 || tie {
		s.finishDraw(reason)
		return
	}
	s.finishPlayer(bestSeat, reason)
}

func (s *State) active() []int {
	var out []int
	for i, p := range s.Players {
		if !p.Eliminated {
			out = append(out, i)
		}
	}
	return out
}

// nextActive returns the first non-eliminated seat after from, wrapping
// around. It returns -1 when nobody else is left.
func (s *State) nextActive(from int, accept func(Seat) bool) int {
	n := len(s.Players)
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		p := s.Players[i]
		if p.Eliminated {
			continue
		}
		if accept != nil && !accept(p) {
			continue
		}
		return i
	}
	return -1
}

func (s *State) reindex() {
	for i := range s.Players {
		s.Players[i].Index = i
	}
}

func (s *State) removeSeat(i int) {
	s.Players = append(s.Players[:i], s.Players[i+1:]...)
	s.reindex()
}

// Clone returns a deep copy; transitions never touch their input.
func (s State) Clone() State {
	out := s
	out.Players = append([]Seat(nil), s.Players...)
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	if s.TicTacToe != nil {
		b := *s.TicTacToe
		out.TicTacToe = &b
	}
	if s.Chess != nil {
		out.Chess = s.Chess.clone()
	}
	if s.Quiz != nil {
		out.Quiz = s.Quiz.clone()
	}
	if s.Memory != nil {
		out.Memory = s.Memory.clone()
	}
	if s.Wordle != nil {
		out.Wordle = s.Wordle.clone()
	}
	if s.Codenames != nil {
		out.Codenames = s.Codenames.clone()
	}
	if s.Poker != nil {
		out.Poker = s.Poker.clone()
	}
	return out
}

func decodePayload(m Move, v any) error {
	if len(m.Payload) == 0 {
		return reject(CodeMalformedPayload, "payload is required for %s", m.Action)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return reject(CodeMalformedPayload, "invalid %s payload", m.Action)
	}
	return nil
}

func requireTurn(s *State, playerID int64) error {
	if s.CurrentPlayerID != playerID {
		return reject(CodeNotYourTurn, "not your turn")
	}
	return nil
}
