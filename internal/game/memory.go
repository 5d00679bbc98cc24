package game

import "fmt"

const (
	defaultMemoryPairs = 8
	maxMemoryPairs     = 18
)

type MemoryCard struct {
	Face      string `json:"face,omitempty"`
	Matched   bool   `json:"matched"`
	MatchedBy int64  `json:"matched_by,omitempty"`
}

type MemoryBoard struct {
	Cards        []MemoryCard `json:"cards"`
	Flipped      []int        `json:"flipped"`
	LastMismatch []int        `json:"last_mismatch,omitempty"`
	PairsLeft    int          `json:"pairs_left"`
}

func (b *MemoryBoard) clone() *MemoryBoard {
	out := *b
	out.Cards = append([]MemoryCard(nil), b.Cards...)
	out.Flipped = append([]int(nil), b.Flipped...)
	out.LastMismatch = append([]int(nil), b.LastMismatch...)
	return &out
}

func normalizeMemory(cfg *Config) error {
	if cfg.Pairs == 0 {
		cfg.Pairs = defaultMemoryPairs
	}
	if cfg.Pairs < 2 || cfg.Pairs > maxMemoryPairs || cfg.Pairs > len(memoryFaces) {
		return fmt.Errorf("pairs must be between 2 and %d", min(maxMemoryPairs, len(memoryFaces)))
	}
	return nil
}

func beginMemory(s *State, env Env) {
	cards := make([]MemoryCard, 0, s.Config.Pairs*2)
	for _, face := range memoryFaces[:s.Config.Pairs] {
		cards = append(cards, MemoryCard{Face: face}, MemoryCard{Face: face})
	}
	env.shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	s.Memory = &MemoryBoard{Cards: cards, PairsLeft: s.Config.Pairs}
	s.CurrentPlayerID = s.Players[0].PlayerID
}

type flipPayload struct {
	Index *int `json:"index"`
}

func applyMemory(s *State, seat int, m Move) error {
	if err := requireTurn(s, m.PlayerID); err != nil {
		return err
	}
	if m.Action != ActionFlip {
		return reject(CodeUnknownAction, "memory only accepts %s", ActionFlip)
	}
	var p flipPayload
	if err := decodePayload(m, &p); err != nil {
		return err
	}
	b := s.Memory
	if p.Index == nil || *p.Index < 0 || *p.Index >= len(b.Cards) {
		return reject(CodeMalformedPayload, "index must be between 0 and %d", len(b.Cards)-1)
	}
	idx := *p.Index
	if b.Cards[idx].Matched {
		return reject(CodeAlreadyResolved, "card %d is already matched", idx)
	}
	for _, f := range b.Flipped {
		if f == idx {
			return reject(CodeAlreadyResolved, "card %d is already face up", idx)
		}
	}

	if len(b.Flipped) == 0 {
		b.LastMismatch = nil
	}
	b.Flipped = append(b.Flipped, idx)
	if len(b.Flipped) < 2 {
		return nil
	}

	first, second := b.Flipped[0], b.Flipped[1]
	b.Flipped = nil
	if b.Cards[first].Face != b.Cards[second].Face {
		b.LastMismatch = []int{first, second}
		s.CurrentPlayerID = s.Players[s.nextActive(seat, nil)].PlayerID
		return nil
	}

	for _, i := range []int{first, second} {
		b.Cards[i].Matched = true
		b.Cards[i].MatchedBy = m.PlayerID
	}
	s.Players[seat].Score++
	b.PairsLeft--
	if b.PairsLeft == 0 {
		s.finishByScore("all_pairs_found")
	}
	return nil
}

// redact hides every face that is not matched or currently turned up.
func (b *MemoryBoard) redact() {
	visible := map[int]bool{}
	for _, i := range b.Flipped {
		visible[i] = true
	}
	for _, i := range b.LastMismatch {
		visible[i] = true
	}
	for i := range b.Cards {
		if !b.Cards[i].Matched && !visible[i] {
			b.Cards[i].Face = ""
		}
	}
}
