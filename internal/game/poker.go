package game

import "errors"

const (
	DefaultSmallBlind int64 = 5
	DefaultBigBlind   int64 = 10
	DefaultMaxBuyIn   int64 = 1000
)

// PokerTable is the no-limit hold'em table of a poker room. The current
// street is kept in State.Phase.
type PokerTable struct {
	SmallBlind int64            `json:"small_blind"`
	BigBlind   int64            `json:"big_blind"`
	MaxBuyIn   int64            `json:"max_buy_in"`
	HandNumber int              `json:"hand_number"`
	DealerID   int64            `json:"dealer_id,omitempty"`
	Board      []Card           `json:"board"`
	Deck       []Card           `json:"deck,omitempty"`
	Hole       map[int64][]Card `json:"hole,omitempty"`
	HighestBet int64            `json:"highest_bet"`
	MinRaise   int64            `json:"min_raise"`
	Pots       []Pot            `json:"pots"`
	HandChips  int64            `json:"hand_chips,omitempty"`
	LastHand   *HandResult      `json:"last_hand,omitempty"`
}

func (t *PokerTable) clone() *PokerTable {
	out := *t
	out.Board = append([]Card(nil), t.Board...)
	out.Deck = append([]Card(nil), t.Deck...)
	out.Hole = cloneHole(t.Hole)
	out.Pots = clonePots(t.Pots)
	if t.LastHand != nil {
		out.LastHand = t.LastHand.clone()
	}
	return &out
}

func cloneHole(in map[int64][]Card) map[int64][]Card {
	if in == nil {
		return nil
	}
	out := make(map[int64][]Card, len(in))
	for id, cards := range in {
		out[id] = append([]Card(nil), cards...)
	}
	return out
}

func normalizePoker(cfg *Config) error {
	if cfg.SmallBlind == 0 {
		cfg.SmallBlind = DefaultSmallBlind
	}
	if cfg.BigBlind == 0 {
		cfg.BigBlind = DefaultBigBlind
	}
	if cfg.MaxBuyIn == 0 {
		cfg.MaxBuyIn = DefaultMaxBuyIn
	}
	if cfg.SmallBlind < 1 || cfg.SmallBlind > cfg.BigBlind {
		return errors.New("small blind must be positive and not above the big blind")
	}
	if cfg.MaxBuyIn < cfg.BigBlind {
		return errors.New("max buy-in must cover the big blind")
	}
	return nil
}

func newPokerTable(cfg Config) *PokerTable {
	return &PokerTable{
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		MaxBuyIn:   cfg.MaxBuyIn,
		MinRaise:   cfg.BigBlind,
		Board:      []Card{},
		Pots:       []Pot{},
	}
}

func (t *PokerTable) draw() Card {
	c := t.Deck[0]
	t.Deck = t.Deck[1:]
	return c
}

// dealStreet burns one card and turns n onto the board.
func (t *PokerTable) dealStreet(n int) {
	t.draw()
	for i := 0; i < n; i++ {
		t.Board = append(t.Board, t.draw())
	}
}

func funded(p Seat) bool { return p.HasBoughtIn && p.Stack > 0 && !p.Eliminated }
func inHand(p Seat) bool { return p.InHand }
func live(p Seat) bool   { return p.InHand && !p.Folded }

// canAct is a seat that still has decisions to make this hand.
func canAct(p Seat) bool { return p.InHand && !p.Folded && !p.IsAllIn }

func (s *State) seatsWhere(pred func(Seat) bool) []int {
	var out []int
	for i, p := range s.Players {
		if pred(p) {
			out = append(out, i)
		}
	}
	return out
}

// refreshTableStatus reports whether a hand could be started. It leaves a
// running hand alone.
func (s *State) refreshTableStatus() {
	if s.Status == StatusInProgress {
		return
	}
	if len(s.seatsWhere(funded)) >= 2 {
		s.Status = StatusWaitingForNextHand
	} else {
		s.Status = StatusWaitingForPlayers
	}
}

type amountPayload struct {
	Amount int64 `json:"amount"`
}

func applyPoker(s *State, seat int, m Move, env Env) error {
	switch m.Action {
	case ActionBuyIn:
		return pokerBuyIn(s, seat, m, false)
	case ActionRebuy:
		return pokerBuyIn(s, seat, m, true)
	case ActionStartHand:
		return pokerStartHand(s, seat, env)
	case ActionFold, ActionCheck, ActionCall, ActionRaise, ActionAllIn:
		return pokerBet(s, seat, m, env)
	default:
		return reject(CodeUnknownAction, "unknown poker action %q", m.Action)
	}
}

func pokerBuyIn(s *State, seat int, m Move, rebuy bool) error {
	var p amountPayload
	if err := decodePayload(m, &p); err != nil {
		return err
	}
	t := s.Poker
	pl := &s.Players[seat]
	if rebuy {
		if !pl.HasBoughtIn {
			return reject(CodeWrongPhase, "buy in before rebuying")
		}
		if pl.Stack > 0 {
			return reject(CodeIllegalMove, "rebuy is only allowed with an empty stack")
		}
		if s.Status == StatusInProgress && pl.InHand {
			return reject(CodeHandInProgress, "wait for the current hand to finish")
		}
	} else if pl.HasBoughtIn {
		return reject(CodeAlreadyResolved, "already bought in, use %s", ActionRebuy)
	}
	if p.Amount < t.BigBlind || p.Amount > t.MaxBuyIn {
		return reject(CodeBuyInOutOfRange, "buy-in must be between %d and %d", t.BigBlind, t.MaxBuyIn)
	}

	pl.Stack += p.Amount
	pl.HasBoughtIn = true
	s.refreshTableStatus()
	return nil
}

func resetHandFields(p *Seat) {
	p.CurrentBet = 0
	p.Committed = 0
	p.IsAllIn = false
	p.Folded = false
	p.InHand = false
	p.Acted = false
}

func pokerStartHand(s *State, seat int, env Env) error {
	switch s.Status {
	case StatusInProgress:
		return reject(CodeHandInProgress, "a hand is already in progress")
	case StatusWaitingForPlayers:
		return reject(CodeNotEnoughPlayers, "need two players with chips")
	}
	if !funded(s.Players[seat]) {
		return reject(CodeInsufficientChips, "buy in before starting a hand")
	}
	dealt := s.seatsWhere(funded)
	if len(dealt) < 2 {
		return reject(CodeNotEnoughPlayers, "need two players with chips")
	}

	t := s.Poker
	for i := range s.Players {
		resetHandFields(&s.Players[i])
	}
	t.HandChips = 0
	for _, i := range dealt {
		s.Players[i].InHand = true
		t.HandChips += s.Players[i].Stack
	}

	dealer := s.nextActive(s.SeatIndex(t.DealerID), inHand)
	t.DealerID = s.Players[dealer].PlayerID
	t.HandNumber++
	t.Deck = shuffledDeck(env)
	t.Board = []Card{}
	t.Hole = map[int64][]Card{}
	t.LastHand = nil
	for round := 0; round < 2; round++ {
		i := dealer
		for range dealt {
			i = s.nextActive(i, inHand)
			id := s.Players[i].PlayerID
			t.Hole[id] = append(t.Hole[id], t.draw())
		}
	}

	// heads up the dealer posts the small blind
	sb := dealer
	if len(dealt) > 2 {
		sb = s.nextActive(dealer, inHand)
	}
	bb := s.nextActive(sb, inHand)
	s.commit(sb, min(t.SmallBlind, s.Players[sb].Stack))
	s.commit(bb, min(t.BigBlind, s.Players[bb].Stack))
	t.HighestBet = t.BigBlind
	t.MinRaise = t.BigBlind

	s.Status = StatusInProgress
	s.Phase = PhasePreFlop
	t.Pots = buildPots(s.Players)
	return s.progress(bb, env)
}

func (s *State) commit(seat int, amount int64) {
	p := &s.Players[seat]
	p.Stack -= amount
	p.CurrentBet += amount
	p.Committed += amount
	if p.Stack == 0 {
		p.IsAllIn = true
	}
}

// raiseTo brings the seat's bet for this street to target. Only a raise of
// at least the minimum raise changes the minimum for the next raiser and
// reopens the betting for seats that already acted.
func (s *State) raiseTo(seat int, target int64) {
	t := s.Poker
	s.commit(seat, target-s.Players[seat].CurrentBet)
	if target > t.HighestBet {
		if inc := target - t.HighestBet; inc >= t.MinRaise {
			t.MinRaise = inc
			for i := range s.Players {
				if i != seat {
					s.Players[i].Acted = false
				}
			}
		}
		t.HighestBet = target
	}
}

// raiseClosed reports whether the seat already acted on this street and no
// full raise has come since, which leaves it only call or fold.
func (s *State) raiseClosed(seat int) bool {
	return s.Players[seat].Acted
}

func pokerBet(s *State, seat int, m Move, env Env) error {
	if s.Status != StatusInProgress {
		return reject(CodeGameNotRunning, "no hand in progress")
	}
	if err := requireTurn(s, m.PlayerID); err != nil {
		return err
	}
	t := s.Poker
	p := &s.Players[seat]
	toCall := t.HighestBet - p.CurrentBet

	switch m.Action {
	case ActionFold:
		p.Folded = true
	case ActionCheck:
		if toCall > 0 {
			return reject(CodeIllegalMove, "can not check, %d to call", toCall)
		}
	case ActionCall:
		if toCall > 0 {
			s.commit(seat, min(toCall, p.Stack))
		}
	case ActionRaise:
		var pl amountPayload
		if err := decodePayload(m, &pl); err != nil {
			return err
		}
		if pl.Amount <= t.HighestBet {
			return reject(CodeRaiseTooSmall, "raise must exceed the current bet of %d", t.HighestBet)
		}
		need := pl.Amount - p.CurrentBet
		if need > p.Stack {
			return reject(CodeInsufficientChips, "raising to %d needs %d chips, stack is %d", pl.Amount, need, p.Stack)
		}
		if need < p.Stack && pl.Amount-t.HighestBet < t.MinRaise {
			return reject(CodeRaiseTooSmall, "minimum raise is to %d", t.HighestBet+t.MinRaise)
		}
		if s.raiseClosed(seat) {
			return reject(CodeIllegalMove, "betting was not reopened, call or fold")
		}
		s.raiseTo(seat, pl.Amount)
	case ActionAllIn:
		if p.Stack == 0 {
			return reject(CodeInsufficientChips, "no chips left")
		}
		if p.CurrentBet+p.Stack > t.HighestBet && s.raiseClosed(seat) {
			return reject(CodeIllegalMove, "betting was not reopened, call or fold")
		}
		s.raiseTo(seat, p.CurrentBet+p.Stack)
	}
	p.Acted = true
	t.Pots = buildPots(s.Players)
	return s.progress(seat, env)
}

// roundComplete is true once every seat that can still act has acted and
// matched the highest bet. A lone seat facing no bet has nothing to decide.
func (s *State) roundComplete() bool {
	actors := s.seatsWhere(canAct)
	if len(actors) == 0 {
		return true
	}
	hi := s.Poker.HighestBet
	if len(actors) == 1 && s.Players[actors[0]].CurrentBet >= hi {
		return true
	}
	for _, i := range actors {
		p := s.Players[i]
		if !p.Acted || p.CurrentBet != hi {
			return false
		}
	}
	return true
}

// settle ends the hand or the betting round when the last action decided
// it. It reports whether it did either.
func (s *State) settle(env Env) (bool, error) {
	alive := s.seatsWhere(live)
	switch {
	case len(alive) == 0:
		return true, integrity("hand %d has no live players", s.Poker.HandNumber)
	case len(alive) == 1:
		return true, s.awardUncontested(alive[0])
	case s.roundComplete():
		return true, s.closeRound(env)
	}
	return false, nil
}

// progress settles the hand and otherwise passes the action to the next seat
// after from.
func (s *State) progress(from int, env Env) error {
	done, err := s.settle(env)
	if done || err != nil {
		return err
	}
	next := s.nextActive(from, canAct)
	if next < 0 {
		return integrity("hand %d: nobody left to act", s.Poker.HandNumber)
	}
	s.CurrentPlayerID = s.Players[next].PlayerID
	return nil
}

func (s *State) closeRound(env Env) error {
	t := s.Poker
	for i := range s.Players {
		s.Players[i].CurrentBet = 0
		s.Players[i].Acted = false
	}
	t.HighestBet = 0
	t.MinRaise = t.BigBlind

	if s.Phase == PhaseRiver || len(s.seatsWhere(canAct)) <= 1 {
		return s.showdown()
	}
	switch s.Phase {
	case PhasePreFlop:
		t.dealStreet(3)
		s.Phase = PhaseFlop
	case PhaseFlop:
		t.dealStreet(1)
		s.Phase = PhaseTurn
	case PhaseTurn:
		t.dealStreet(1)
		s.Phase = PhaseRiver
	default:
		return integrity("close round in phase %q", s.Phase)
	}
	return s.progress(s.SeatIndex(t.DealerID), env)
}

// forfeitPoker folds a leaving player out of the running hand and vacates
// the seat once the hand is over. Outside a hand the seat is freed at once.
func forfeitPoker(s *State, seat int, env Env) error {
	p := &s.Players[seat]
	if s.Status != StatusInProgress || !p.InHand {
		s.removeSeat(seat)
		s.refreshTableStatus()
		return nil
	}

	p.Eliminated = true
	if !p.Folded {
		p.Folded = true
		s.Poker.Pots = buildPots(s.Players)
	}
	if s.CurrentPlayerID == p.PlayerID {
		return s.progress(seat, env)
	}
	_, err := s.settle(env)
	return err
}

func (t *PokerTable) redact(viewer int64) {
	t.Deck = nil
	for id := range t.Hole {
		if id != viewer {
			delete(t.Hole, id)
		}
	}
}

func validatePoker(s *State) error {
	t := s.Poker
	var committed, chips int64
	for _, p := range s.Players {
		if p.Stack < 0 || p.Committed < 0 || p.CurrentBet < 0 {
			return integrity("seat %d holds negative chips", p.Index)
		}
		if p.InHand {
			committed += p.Committed
			chips += p.Stack + p.Committed
		}
	}
	if s.Status != StatusInProgress {
		return nil
	}
	if total := potTotal(t.Pots); total != committed {
		return integrity("pots hold %d chips, players committed %d", total, committed)
	}
	if chips != t.HandChips {
		return integrity("hand %d: %d chips at the table, started with %d", t.HandNumber, chips, t.HandChips)
	}
	return nil
}
