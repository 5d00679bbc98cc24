package game

import (
	"fmt"
	"strings"

	"github.com/paulhankin/poker"
)

// Card is a playing card. Rank runs from 1 (ace) to 13 (king); suits are
// ordered clubs, diamonds, hearts, spades.
type Card struct {
	Rank uint8 `json:"rank"`
	Suit uint8 `json:"suit"`
}

const (
	rankChars = "A23456789TJQK"
	suitChars = "cdhs"
)

func (c Card) String() string {
	if c.Rank < 1 || c.Rank > 13 || c.Suit > 3 {
		return "??"
	}
	return string([]byte{rankChars[c.Rank-1], suitChars[c.Suit]})
}

// ParseCard reads the two character form used by String, e.g. "As" or "Td".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	r := strings.IndexByte(rankChars, strings.ToUpper(s[:1])[0])
	su := strings.IndexByte(suitChars, strings.ToLower(s[1:])[0])
	if r < 0 || su < 0 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	return Card{Rank: uint8(r + 1), Suit: uint8(su)}, nil
}

func (c Card) evalCard() (poker.Card, error) {
	return poker.MakeCard(poker.Suit(c.Suit), poker.Rank(c.Rank))
}

func newDeck() []Card {
	deck := make([]Card, 0, 52)
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(1); rank <= 13; rank++ {
			deck = append(deck, Card{Rank: rank, Suit: suit})
		}
	}
	return deck
}

func shuffledDeck(env Env) []Card {
	deck := newDeck()
	env.shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// handOf builds the seven card hand of two hole cards and a full board.
func handOf(hole, board []Card) (*[7]poker.Card, error) {
	if len(hole) != 2 || len(board) != 5 {
		return nil, fmt.Errorf("need 2 hole cards and 5 board cards, have %d and %d", len(hole), len(board))
	}
	var hand [7]poker.Card
	for i, c := range append(append([]Card(nil), board...), hole...) {
		pc, err := c.evalCard()
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", c, err)
		}
		hand[i] = pc
	}
	return &hand, nil
}
