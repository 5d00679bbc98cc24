package game

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const defaultWordleAttempts = 6

type Mark string

const (
	MarkCorrect Mark = "correct"
	MarkPresent Mark = "present"
	MarkAbsent  Mark = "absent"
)

type WordleGuess struct {
	PlayerID int64  `json:"player_id"`
	Word     string `json:"word"`
	Marks    []Mark `json:"marks"`
}

type WordleBoard struct {
	Secret      string        `json:"secret,omitempty"`
	Length      int           `json:"length"`
	MaxAttempts int           `json:"max_attempts"`
	Guesses     []WordleGuess `json:"guesses"`
	Attempts    map[int64]int `json:"attempts"`
}

func (b *WordleBoard) clone() *WordleBoard {
	out := *b
	out.Guesses = make([]WordleGuess, len(b.Guesses))
	for i, g := range b.Guesses {
		g.Marks = append([]Mark(nil), g.Marks...)
		out.Guesses[i] = g
	}
	out.Attempts = cloneAnswers(b.Attempts)
	return &out
}

// EvaluateGuess scores guess against target letter by letter. Exact matches
// are marked first and consume their slot. Remaining letters are then scanned
// left to right and each claims the first unconsumed slot holding the same
// letter, so a letter is never reported present more often than it occurs in
// the target.
func EvaluateGuess(target, guess string) []Mark {
	t := []rune(strings.ToUpper(target))
	g := []rune(strings.ToUpper(guess))
	marks := make([]Mark, len(g))
	consumed := make([]bool, len(t))

	for i := range g {
		if i < len(t) && g[i] == t[i] {
			marks[i] = MarkCorrect
			consumed[i] = true
		}
	}
	for i := range g {
		if marks[i] == MarkCorrect {
			continue
		}
		marks[i] = MarkAbsent
		for j := range t {
			if !consumed[j] && t[j] == g[i] {
				consumed[j] = true
				marks[i] = MarkPresent
				break
			}
		}
	}
	return marks
}

func normalizeWord(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

func lettersOnly(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func normalizeWordle(cfg *Config) error {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultWordleAttempts
	}
	if cfg.MaxAttempts < 1 {
		return errors.New("max_attempts must be positive")
	}
	if cfg.Secret != "" {
		cfg.Secret = normalizeWord(cfg.Secret)
		if !lettersOnly(cfg.Secret) || utf8.RuneCountInString(cfg.Secret) < 2 {
			return errors.New("secret must be a word of at least two letters")
		}
	}
	return nil
}

func beginWordle(s *State, env Env) {
	secret := s.Config.Secret
	if secret == "" {
		secret = wordleWords[env.intN(len(wordleWords))]
	}
	s.Wordle = &WordleBoard{
		Secret:      secret,
		Length:      utf8.RuneCountInString(secret),
		MaxAttempts: s.Config.MaxAttempts,
		Guesses:     []WordleGuess{},
		Attempts:    map[int64]int{},
	}
	s.CurrentPlayerID = s.Players[0].PlayerID
}

type guessPayload struct {
	Word string `json:"word"`
}

func applyWordle(s *State, seat int, m Move) error {
	if err := requireTurn(s, m.PlayerID); err != nil {
		return err
	}
	if m.Action != ActionSubmitGuess {
		return reject(CodeUnknownAction, "wordle only accepts %s", ActionSubmitGuess)
	}
	var p guessPayload
	if err := decodePayload(m, &p); err != nil {
		return err
	}
	b := s.Wordle
	word := normalizeWord(p.Word)
	if utf8.RuneCountInString(word) != b.Length {
		return reject(CodeMalformedPayload, "guess must have %d letters", b.Length)
	}
	if !lettersOnly(word) {
		return reject(CodeMalformedPayload, "guess must contain only letters")
	}

	marks := EvaluateGuess(b.Secret, word)
	b.Guesses = append(b.Guesses, WordleGuess{PlayerID: m.PlayerID, Word: word, Marks: marks})
	b.Attempts[m.PlayerID]++

	if word == b.Secret {
		s.finishPlayer(seat, "guessed")
		return nil
	}
	advanceWordle(s, seat)
	return nil
}

// advanceWordle passes the turn to the next player with attempts left, or
// ends the game as a draw when nobody has any.
func advanceWordle(s *State, seat int) {
	b := s.Wordle
	next := s.nextActive(seat, func(p Seat) bool { return b.Attempts[p.PlayerID] < b.MaxAttempts })
	if next < 0 {
		s.finishDraw("out_of_attempts")
		return
	}
	s.CurrentPlayerID = s.Players[next].PlayerID
}
