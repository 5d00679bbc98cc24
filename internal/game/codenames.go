package game

import (
	"fmt"
	"strings"
)

const (
	codenamesGrid     = 25
	codenamesStarting = 9
	codenamesSecond   = 8
	codenamesNeutral  = 7
)

type CardRole string

const (
	RoleRed      CardRole = "red"
	RoleBlue     CardRole = "blue"
	RoleNeutral  CardRole = "neutral"
	RoleAssassin CardRole = "assassin"
)

type CodenamesCard struct {
	Word     string   `json:"word"`
	Role     CardRole `json:"role,omitempty"`
	Revealed bool     `json:"revealed"`
}

type Clue struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
	Team  Team   `json:"team"`
}

type CodenamesBoard struct {
	Cards         []CodenamesCard `json:"cards"`
	RedSpymaster  int64           `json:"red_spymaster"`
	BlueSpymaster int64           `json:"blue_spymaster"`
	Clue          *Clue           `json:"clue,omitempty"`
	GuessesLeft   int             `json:"guesses_left"`
	RedLeft       int             `json:"red_left"`
	BlueLeft      int             `json:"blue_left"`
}

func (b *CodenamesBoard) clone() *CodenamesBoard {
	out := *b
	out.Cards = append([]CodenamesCard(nil), b.Cards...)
	if b.Clue != nil {
		c := *b.Clue
		out.Clue = &c
	}
	return &out
}

func (b *CodenamesBoard) spymaster(t Team) int64 {
	if t == TeamRed {
		return b.RedSpymaster
	}
	return b.BlueSpymaster
}

func (b *CodenamesBoard) setSpymaster(t Team, id int64) {
	if t == TeamRed {
		b.RedSpymaster = id
	} else {
		b.BlueSpymaster = id
	}
}

func (b *CodenamesBoard) isSpymaster(id int64) bool {
	return id != 0 && (id == b.RedSpymaster || id == b.BlueSpymaster)
}

// seesRoles reports whether viewer may see unrevealed roles. A spymaster
// guessing for a team of one plays blind until the turn passes.
func (b *CodenamesBoard) seesRoles(s *State, viewer int64) bool {
	if !b.isSpymaster(viewer) {
		return false
	}
	if s.Phase == PhaseGuessing && b.spymaster(s.CurrentTeam) == viewer {
		return !containsID(b.guessers(s, s.CurrentTeam), viewer)
	}
	return true
}

func (b *CodenamesBoard) left(t Team) *int {
	if t == TeamRed {
		return &b.RedLeft
	}
	return &b.BlueLeft
}

func roleOf(t Team) CardRole {
	if t == TeamRed {
		return RoleRed
	}
	return RoleBlue
}

func normalizeCodenames(cfg *Config) error {
	if len(cfg.Words) == 0 {
		return nil
	}
	seen := map[string]bool{}
	for _, w := range cfg.Words {
		key := strings.ToLower(strings.TrimSpace(w))
		if key == "" || seen[key] {
			return fmt.Errorf("codenames words must be unique and non-empty")
		}
		seen[key] = true
	}
	if len(seen) < codenamesGrid {
		return fmt.Errorf("codenames needs at least %d words", codenamesGrid)
	}
	return nil
}

func beginCodenames(s *State, env Env) {
	pool := s.Config.Words
	if len(pool) == 0 {
		pool = codenamesWords
	}
	words := append([]string(nil), pool...)
	env.shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	words = words[:codenamesGrid]

	starting := TeamRed
	if env.intN(2) == 1 {
		starting = TeamBlue
	}
	roles := make([]CardRole, 0, codenamesGrid)
	for i := 0; i < codenamesStarting; i++ {
		roles = append(roles, roleOf(starting))
	}
	for i := 0; i < codenamesSecond; i++ {
		roles = append(roles, roleOf(starting.Other()))
	}
	for i := 0; i < codenamesNeutral; i++ {
		roles = append(roles, RoleNeutral)
	}
	roles = append(roles, RoleAssassin)
	env.shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	b := &CodenamesBoard{Cards: make([]CodenamesCard, codenamesGrid)}
	for i := range b.Cards {
		b.Cards[i] = CodenamesCard{Word: words[i], Role: roles[i]}
	}
	*b.left(starting) = codenamesStarting
	*b.left(starting.Other()) = codenamesSecond

	for i := range s.Players {
		team := TeamRed
		if i%2 == 1 {
			team = TeamBlue
		}
		s.Players[i].Team = team
		if b.spymaster(team) == 0 {
			b.setSpymaster(team, s.Players[i].PlayerID)
		}
	}
	s.Codenames = b
	startClue(s, starting)
}

func startClue(s *State, t Team) {
	b := s.Codenames
	s.CurrentTeam = t
	s.Phase = PhaseGivingClue
	s.CurrentPlayerID = b.spymaster(t)
	b.Clue = nil
	b.GuessesLeft = 0
}

// guessers are the active members of t who guess. A team whose only member is
// its spymaster guesses with the spymaster.
func (b *CodenamesBoard) guessers(s *State, t Team) []int64 {
	var out []int64
	for _, p := range s.Players {
		if p.Team == t && !p.Eliminated && p.PlayerID != b.spymaster(t) {
			out = append(out, p.PlayerID)
		}
	}
	if len(out) == 0 && b.spymaster(t) != 0 {
		out = append(out, b.spymaster(t))
	}
	return out
}

type cluePayload struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type pickPayload struct {
	Index *int `json:"index"`
}

func applyCodenames(s *State, seat int, m Move) error {
	b := s.Codenames
	player := s.Players[seat]
	if player.Team != s.CurrentTeam {
		return reject(CodeNotYourTurn, "it is the %s team's turn", s.CurrentTeam)
	}

	switch m.Action {
	case ActionGiveClue:
		if s.Phase != PhaseGivingClue {
			return reject(CodeWrongPhase, "waiting for guesses, not a clue")
		}
		if m.PlayerID != b.spymaster(s.CurrentTeam) {
			return reject(CodeNotYourTurn, "only the spymaster gives clues")
		}
		var p cluePayload
		if err := decodePayload(m, &p); err != nil {
			return err
		}
		word := strings.TrimSpace(p.Word)
		if word == "" || strings.ContainsAny(word, " \t") {
			return reject(CodeMalformedPayload, "clue must be a single word")
		}
		if p.Count < 1 || p.Count > codenamesStarting {
			return reject(CodeMalformedPayload, "count must be between 1 and %d", codenamesStarting)
		}
		for _, c := range b.Cards {
			if !c.Revealed && strings.EqualFold(c.Word, word) {
				return reject(CodeIllegalMove, "clue can not be a word on the board")
			}
		}
		b.Clue = &Clue{Word: word, Count: p.Count, Team: s.CurrentTeam}
		b.GuessesLeft = p.Count + 1
		s.Phase = PhaseGuessing
		s.CurrentPlayerID = b.guessers(s, s.CurrentTeam)[0]
		return nil

	case ActionPickCard, ActionEndTurn:
		if s.Phase != PhaseGuessing {
			return reject(CodeWrongPhase, "waiting for the spymaster's clue")
		}
		if !containsID(b.guessers(s, s.CurrentTeam), m.PlayerID) {
			return reject(CodeNotYourTurn, "only guessers pick cards")
		}
		if m.Action == ActionEndTurn {
			startClue(s, s.CurrentTeam.Other())
			return nil
		}
		var p pickPayload
		if err := decodePayload(m, &p); err != nil {
			return err
		}
		if p.Index == nil || *p.Index < 0 || *p.Index >= len(b.Cards) {
			return reject(CodeMalformedPayload, "index must be between 0 and %d", len(b.Cards)-1)
		}
		card := &b.Cards[*p.Index]
		if card.Revealed {
			return reject(CodeAlreadyResolved, "card %d is already revealed", *p.Index)
		}
		card.Revealed = true
		revealCodenames(s, card.Role)
		return nil

	default:
		return reject(CodeUnknownAction, "unknown codenames action %q", m.Action)
	}
}

func revealCodenames(s *State, role CardRole) {
	b := s.Codenames
	team := s.CurrentTeam
	switch role {
	case RoleAssassin:
		finishTeam(s, team.Other(), "assassin")
	case roleOf(team):
		*b.left(team)--
		if *b.left(team) == 0 {
			finishTeam(s, team, "all_agents_found")
			return
		}
		b.GuessesLeft--
		if b.GuessesLeft == 0 {
			startClue(s, team.Other())
		}
	case roleOf(team.Other()):
		*b.left(team.Other())--
		if *b.left(team.Other()) == 0 {
			finishTeam(s, team.Other(), "all_agents_found")
			return
		}
		startClue(s, team.Other())
	default:
		startClue(s, team.Other())
	}
}

func finishTeam(s *State, t Team, reason string) {
	s.finish(Winner{Team: t, Name: string(t) + " team", Reason: reason})
}

// forfeitCodenames drops a player from their team. A team left with nobody
// loses; a departed spymaster is replaced by the next team member.
func forfeitCodenames(s *State, seat int) error {
	b := s.Codenames
	if b == nil {
		return integrity("codenames board missing")
	}
	p := s.Players[seat]
	var remaining []int64
	for _, other := range s.Players {
		if other.Team == p.Team && !other.Eliminated {
			remaining = append(remaining, other.PlayerID)
		}
	}
	if len(remaining) == 0 {
		finishTeam(s, p.Team.Other(), "forfeit")
		return nil
	}
	if b.spymaster(p.Team) == p.PlayerID {
		b.setSpymaster(p.Team, remaining[0])
	}
	if s.CurrentPlayerID == p.PlayerID {
		if s.Phase == PhaseGivingClue {
			s.CurrentPlayerID = b.spymaster(s.CurrentTeam)
		} else {
			s.CurrentPlayerID = b.guessers(s, s.CurrentTeam)[0]
		}
	}
	return nil
}

// redact hides the roles of unrevealed cards.
func (b *CodenamesBoard) redact() {
	for i := range b.Cards {
		if !b.Cards[i].Revealed {
			b.Cards[i].Role = ""
		}
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
