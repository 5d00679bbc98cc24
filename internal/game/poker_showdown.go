package game

import "github.com/paulhankin/poker"

// Award is what one player won from one pot.
type Award struct {
	PlayerID int64  `json:"player_id"`
	Pot      int    `json:"pot"`
	Amount   int64  `json:"amount"`
	Hand     string `json:"hand,omitempty"`
}

// HandResult is the public summary of a finished hand. Shown holds the hole
// cards of the players who reached showdown.
type HandResult struct {
	Number int              `json:"number"`
	Board  []Card           `json:"board"`
	Pots   []Pot            `json:"pots"`
	Awards []Award          `json:"awards"`
	Shown  map[int64][]Card `json:"shown,omitempty"`
}

func (r *HandResult) clone() *HandResult {
	out := *r
	out.Board = append([]Card(nil), r.Board...)
	out.Pots = clonePots(r.Pots)
	out.Awards = append([]Award(nil), r.Awards...)
	out.Shown = cloneHole(r.Shown)
	return &out
}

func (s *State) awardUncontested(winner int) error {
	t := s.Poker
	total := potTotal(t.Pots)
	s.Players[winner].Stack += total
	return s.endHand(&HandResult{
		Number: t.HandNumber,
		Board:  append([]Card(nil), t.Board...),
		Pots:   clonePots(t.Pots),
		Awards: []Award{{PlayerID: s.Players[winner].PlayerID, Amount: total}},
	})
}

// showdown runs out the board and pays every pot, main pot first, to the
// best hands among its eligible players. Split pots are shared equally and
// odd chips go to the first winner in seat order.
func (s *State) showdown() error {
	t := s.Poker
	if len(t.Board) == 0 {
		t.dealStreet(3)
	}
	for len(t.Board) < 5 {
		t.dealStreet(1)
	}
	s.Phase = PhaseShowdown
	s.CurrentPlayerID = 0

	result := &HandResult{
		Number: t.HandNumber,
		Board:  append([]Card(nil), t.Board...),
		Pots:   clonePots(t.Pots),
		Shown:  map[int64][]Card{},
	}
	scores := map[int64]int16{}
	descriptions := map[int64]string{}
	for _, i := range s.seatsWhere(live) {
		id := s.Players[i].PlayerID
		hand, err := handOf(t.Hole[id], t.Board)
		if err != nil {
			return integrity("showdown hand of %d: %v", id, err)
		}
		scores[id] = poker.Eval7(hand)
		if desc, err := poker.Describe(hand[:]); err == nil {
			descriptions[id] = desc
		}
		result.Shown[id] = append([]Card(nil), t.Hole[id]...)
	}

	for pi, pot := range t.Pots {
		var winners []int
		var best int16
		for i, p := range s.Players {
			if !containsID(pot.Eligible, p.PlayerID) {
				continue
			}
			score, ok := scores[p.PlayerID]
			if !ok {
				return integrity("pot %d: eligible player %d has no hand", pi, p.PlayerID)
			}
			switch {
			case len(winners) == 0 || score > best:
				best, winners = score, []int{i}
			case score == best:
				winners = append(winners, i)
			}
		}
		if len(winners) == 0 {
			return integrity("pot %d has no eligible players", pi)
		}

		share := pot.Amount / int64(len(winners))
		odd := pot.Amount % int64(len(winners))
		for k, i := range winners {
			amount := share
			if k == 0 {
				amount += odd
			}
			id := s.Players[i].PlayerID
			s.Players[i].Stack += amount
			result.Awards = append(result.Awards, Award{PlayerID: id, Pot: pi, Amount: amount, Hand: descriptions[id]})
		}
	}
	return s.endHand(result)
}

// endHand checks chip conservation, publishes the result and returns the
// table to waiting. Seats that left during the hand are vacated here.
func (s *State) endHand(result *HandResult) error {
	t := s.Poker
	var awarded, committed, chips int64
	for _, a := range result.Awards {
		awarded += a.Amount
	}
	for _, p := range s.Players {
		if p.InHand {
			committed += p.Committed
			chips += p.Stack
		}
	}
	if awarded != committed {
		return integrity("hand %d: awarded %d of %d committed chips", t.HandNumber, awarded, committed)
	}
	if chips != t.HandChips {
		return integrity("hand %d: %d chips after the hand, started with %d", t.HandNumber, chips, t.HandChips)
	}

	t.LastHand = result
	t.Board = []Card{}
	t.Deck = nil
	t.Hole = nil
	t.Pots = []Pot{}
	t.HighestBet = 0
	t.MinRaise = t.BigBlind
	t.HandChips = 0
	for i := range s.Players {
		resetHandFields(&s.Players[i])
	}
	for i := len(s.Players) - 1; i >= 0; i-- {
		if s.Players[i].Eliminated {
			s.removeSeat(i)
		}
	}

	s.Phase = ""
	s.CurrentPlayerID = 0
	s.Status = StatusWaitingForPlayers
	s.refreshTableStatus()
	return nil
}
