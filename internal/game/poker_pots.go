package game

import "slices"

// Pot is a share of the chips committed in a hand together with the players
// who can still win it. Cap is the commitment level that closes the pot.
type Pot struct {
	Amount   int64   `json:"amount"`
	Eligible []int64 `json:"eligible"`
	Cap      int64   `json:"cap"`
}

func clonePots(in []Pot) []Pot {
	if in == nil {
		return nil
	}
	out := make([]Pot, len(in))
	for i, p := range in {
		p.Eligible = append([]int64(nil), p.Eligible...)
		out[i] = p
	}
	return out
}

func potTotal(pots []Pot) int64 {
	var total int64
	for _, p := range pots {
		total += p.Amount
	}
	return total
}

// buildPots slices the chips committed this hand into a main pot and side
// pots. Every all-in amount of a live player closes a layer; whatever was
// committed above the highest all-in forms the last layer. A layer is won
// only by live players who reached its level or who are not all-in and can
// still match it. Folded chips stay in the layers they were committed to.
// Neighbouring layers with the same eligible players are merged, as are
// layers nobody can win.
func buildPots(seats []Seat) []Pot {
	var levels []int64
	var top int64
	for _, p := range seats {
		if !p.InHand {
			continue
		}
		top = max(top, p.Committed)
		if p.IsAllIn && !p.Folded && p.Committed > 0 && !slices.Contains(levels, p.Committed) {
			levels = append(levels, p.Committed)
		}
	}
	slices.Sort(levels)
	if len(levels) == 0 || levels[len(levels)-1] < top {
		levels = append(levels, top)
	}

	pots := []Pot{}
	var prev int64
	for _, lvl := range levels {
		var amount int64
		var eligible []int64
		for _, p := range seats {
			if !p.InHand {
				continue
			}
			amount += layerShare(p.Committed, prev, lvl)
			if !p.Folded && (p.Committed >= lvl || !p.IsAllIn) {
				eligible = append(eligible, p.PlayerID)
			}
		}
		prev = lvl
		if amount == 0 {
			continue
		}
		if n := len(pots); n > 0 && (len(eligible) == 0 || slices.Equal(pots[n-1].Eligible, eligible)) {
			pots[n-1].Amount += amount
			pots[n-1].Cap = lvl
			continue
		}
		pots = append(pots, Pot{Amount: amount, Eligible: eligible, Cap: lvl})
	}
	return pots
}

// layerShare is the part of committed that falls between lo (exclusive) and
// hi (inclusive).
func layerShare(committed, lo, hi int64) int64 {
	switch {
	case committed <= lo:
		return 0
	case committed >= hi:
		return hi - lo
	default:
		return committed - lo
	}
}
