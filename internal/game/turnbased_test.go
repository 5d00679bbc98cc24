package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var twoQuestions = []QuizQuestion{
	{Text: "2+2?", Options: []string{"3", "4"}, Answer: 1},
	{Text: "Capital of France?", Options: []string{"Paris", "Lyon", "Nice"}, Answer: 0},
}

func TestQuizScoresAndFinishes(t *testing.T) {
	s := started(t, TypeQuiz, Config{Questions: twoQuestions}, 1, 2)
	require.Equal(t, 2, s.Quiz.Total)

	s = apply(t, s, mv(1, ActionAnswer, `{"option":1}`))
	rejected(t, s, mv(1, ActionAnswer, `{"option":0}`), CodeAlreadyResolved)
	rejected(t, s, mv(2, ActionAnswer, `{"option":7}`), CodeMalformedPayload)
	assert.Equal(t, 0, s.Quiz.Current)

	s = apply(t, s, mv(2, ActionAnswer, `{"option":0}`))
	assert.Equal(t, 1, s.Quiz.Current)
	require.NotNil(t, s.Quiz.Last)
	assert.Equal(t, 1, s.Quiz.Last.Correct)
	assert.Equal(t, 1, s.Players[0].Score)
	assert.Equal(t, 0, s.Players[1].Score)

	s = apply(t, s, mv(2, ActionAnswer, `{"option":0}`))
	s = apply(t, s, mv(1, ActionAnswer, `{"option":0}`))
	require.NotNil(t, s.Winner)
	assert.Equal(t, int64(1), s.Winner.PlayerID)
	assert.Equal(t, 2, s.Players[0].Score)
}

func TestQuizViewHidesOpenAnswer(t *testing.T) {
	s := started(t, TypeQuiz, Config{Questions: twoQuestions}, 1, 2)
	s = apply(t, s, mv(1, ActionAnswer, `{"option":1}`))

	v := View(s, 2)
	require.Len(t, v.Quiz.Questions, 1)
	assert.Equal(t, hiddenAnswer, v.Quiz.Questions[0].Answer)
	assert.Equal(t, hiddenAnswer, v.Quiz.Answers[1])
	assert.Nil(t, v.Config.Questions)

	own := View(s, 1)
	assert.Equal(t, 1, own.Quiz.Answers[1])
	assert.Equal(t, 1, s.Quiz.Questions[0].Answer)
}

func TestQuizForfeitResolvesOpenQuestion(t *testing.T) {
	s := started(t, TypeQuiz, Config{Questions: twoQuestions}, 1, 2, 3)
	s = apply(t, s, mv(1, ActionAnswer, `{"option":1}`))
	s = apply(t, s, mv(2, ActionAnswer, `{"option":1}`))
	s, err := Forfeit(s, 3, NewEnv(1))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Quiz.Current)
}

func memoryPair(b *MemoryBoard) (int, int) {
	for i := range b.Cards {
		for j := i + 1; j < len(b.Cards); j++ {
			if !b.Cards[i].Matched && b.Cards[i].Face == b.Cards[j].Face {
				return i, j
			}
		}
	}
	return -1, -1
}

func memoryMismatch(b *MemoryBoard) (int, int) {
	for i := range b.Cards {
		for j := i + 1; j < len(b.Cards); j++ {
			if !b.Cards[i].Matched && !b.Cards[j].Matched && b.Cards[i].Face != b.Cards[j].Face {
				return i, j
			}
		}
	}
	return -1, -1
}

func flip(id int64, i int) Move {
	return mv(id, ActionFlip, fmt.Sprintf(`{"index":%d}`, i))
}

func TestMemoryMatchKeepsTurn(t *testing.T) {
	s := started(t, TypeMemory, Config{Pairs: 2}, 1, 2)
	require.Len(t, s.Memory.Cards, 4)

	i, j := memoryPair(s.Memory)
	s = apply(t, s, flip(1, i))
	rejected(t, s, flip(1, i), CodeAlreadyResolved)
	s = apply(t, s, flip(1, j))
	assert.Equal(t, 1, s.Players[0].Score)
	assert.Equal(t, int64(1), s.CurrentPlayerID)
	rejected(t, s, flip(1, i), CodeAlreadyResolved)

	i, j = memoryPair(s.Memory)
	s = apply(t, s, flip(1, i))
	s = apply(t, s, flip(1, j))
	require.NotNil(t, s.Winner)
	assert.Equal(t, int64(1), s.Winner.PlayerID)
}

func TestMemoryMismatchPassesTurn(t *testing.T) {
	s := started(t, TypeMemory, Config{Pairs: 3}, 1, 2)
	i, j := memoryMismatch(s.Memory)
	s = apply(t, s, flip(1, i))

	v := View(s, 2)
	assert.Equal(t, s.Memory.Cards[i].Face, v.Memory.Cards[i].Face)
	hidden := 0
	for _, c := range v.Memory.Cards {
		if c.Face == "" {
			hidden++
		}
	}
	assert.Equal(t, len(v.Memory.Cards)-1, hidden)

	s = apply(t, s, flip(1, j))
	assert.Equal(t, int64(2), s.CurrentPlayerID)
	assert.Equal(t, []int{i, j}, s.Memory.LastMismatch)
	rejected(t, s, flip(1, 0), CodeNotYourTurn)
}

func codenamesCard(b *CodenamesBoard, role CardRole) int {
	for i, c := range b.Cards {
		if c.Role == role && !c.Revealed {
			return i
		}
	}
	return -1
}

func TestCodenamesBoard(t *testing.T) {
	s := started(t, TypeCodenames, Config{}, 1, 2, 3, 4)
	b := s.Codenames
	counts := map[CardRole]int{}
	for _, c := range b.Cards {
		counts[c.Role]++
	}
	assert.Equal(t, 1, counts[RoleAssassin])
	assert.Equal(t, 7, counts[RoleNeutral])
	assert.Equal(t, 9, counts[roleOf(s.CurrentTeam)])
	assert.Equal(t, 8, counts[roleOf(s.CurrentTeam.Other())])

	assert.Equal(t, int64(1), b.RedSpymaster)
	assert.Equal(t, int64(2), b.BlueSpymaster)
	assert.Equal(t, PhaseGivingClue, s.Phase)
	assert.Equal(t, b.spymaster(s.CurrentTeam), s.CurrentPlayerID)
}

func TestCodenamesTurn(t *testing.T) {
	s := started(t, TypeCodenames, Config{}, 1, 2, 3, 4)
	team := s.CurrentTeam
	spy := s.Codenames.spymaster(team)
	guesser := int64(3)
	if team == TeamBlue {
		guesser = 4
	}

	rejected(t, s, mv(guesser, ActionGiveClue, `{"word":"fruit","count":1}`), CodeNotYourTurn)
	rejected(t, s, mv(spy, ActionPickCard, `{"index":0}`), CodeWrongPhase)
	rejected(t, s, mv(spy, ActionGiveClue, `{"word":"two words","count":1}`), CodeMalformedPayload)
	rejected(t, s, mv(spy, ActionGiveClue, fmt.Sprintf(`{"word":%q,"count":1}`, s.Codenames.Cards[0].Word)), CodeIllegalMove)

	s = apply(t, s, mv(spy, ActionGiveClue, `{"word":"fruit","count":1}`))
	assert.Equal(t, PhaseGuessing, s.Phase)
	assert.Equal(t, 2, s.Codenames.GuessesLeft)
	rejected(t, s, mv(spy, ActionPickCard, `{"index":0}`), CodeNotYourTurn)

	left := *s.Codenames.left(team)
	own := codenamesCard(s.Codenames, roleOf(team))
	s = apply(t, s, mv(guesser, ActionPickCard, fmt.Sprintf(`{"index":%d}`, own)))
	assert.Equal(t, left-1, *s.Codenames.left(team))
	assert.Equal(t, team, s.CurrentTeam)
	rejected(t, s, mv(guesser, ActionPickCard, fmt.Sprintf(`{"index":%d}`, own)), CodeAlreadyResolved)

	neutral := codenamesCard(s.Codenames, RoleNeutral)
	s = apply(t, s, mv(guesser, ActionPickCard, fmt.Sprintf(`{"index":%d}`, neutral)))
	assert.Equal(t, team.Other(), s.CurrentTeam)
	assert.Equal(t, PhaseGivingClue, s.Phase)
}

func TestCodenamesAssassinLoses(t *testing.T) {
	s := started(t, TypeCodenames, Config{}, 1, 2)
	team := s.CurrentTeam
	spy := s.CurrentPlayerID
	s = apply(t, s, mv(spy, ActionGiveClue, `{"word":"danger","count":2}`))
	// a team of one guesses with its spymaster
	assert.Equal(t, spy, s.CurrentPlayerID)

	s = apply(t, s, mv(spy, ActionPickCard, fmt.Sprintf(`{"index":%d}`, codenamesCard(s.Codenames, RoleAssassin))))
	require.NotNil(t, s.Winner)
	assert.Equal(t, team.Other(), s.Winner.Team)
	assert.Equal(t, "assassin", s.Winner.Reason)
}

func TestCodenamesEndTurn(t *testing.T) {
	s := started(t, TypeCodenames, Config{}, 1, 2)
	spy := s.CurrentPlayerID
	team := s.CurrentTeam
	s = apply(t, s, mv(spy, ActionGiveClue, `{"word":"calm","count":1}`))
	s = apply(t, s, mv(spy, ActionEndTurn, ``))
	assert.Equal(t, team.Other(), s.CurrentTeam)
	assert.Nil(t, s.Codenames.Clue)
}

func TestCodenamesViewHidesRolesFromGuessers(t *testing.T) {
	s := started(t, TypeCodenames, Config{}, 1, 2, 3, 4)
	spyView := View(s, 1)
	guesserView := View(s, 3)
	for i := range s.Codenames.Cards {
		assert.NotEmpty(t, spyView.Codenames.Cards[i].Role)
		assert.Empty(t, guesserView.Codenames.Cards[i].Role)
	}
}

func TestCodenamesSoloSpymasterGuessesBlind(t *testing.T) {
	s := started(t, TypeCodenames, Config{}, 1, 2)
	spy := s.CurrentPlayerID
	assert.NotEmpty(t, View(s, spy).Codenames.Cards[0].Role)

	s = apply(t, s, mv(spy, ActionGiveClue, `{"word":"calm","count":1}`))
	require.Equal(t, PhaseGuessing, s.Phase)
	for _, c := range View(s, spy).Codenames.Cards {
		assert.Empty(t, c.Role)
	}
	other := int64(1)
	if spy == 1 {
		other = 2
	}
	assert.NotEmpty(t, View(s, other).Codenames.Cards[0].Role)
}

func TestCodenamesForfeitOfWholeTeam(t *testing.T) {
	s := started(t, TypeCodenames, Config{}, 1, 2, 3)
	s, err := Forfeit(s, 2, NewEnv(1))
	require.NoError(t, err)
	require.NotNil(t, s.Winner)
	assert.Equal(t, TeamRed, s.Winner.Team)
}

func TestCodenamesSpymasterReplaced(t *testing.T) {
	s := started(t, TypeCodenames, Config{}, 1, 2, 3, 4)
	s, err := Forfeit(s, 1, NewEnv(1))
	require.NoError(t, err)
	assert.Nil(t, s.Winner)
	assert.Equal(t, int64(3), s.Codenames.RedSpymaster)
	if s.CurrentTeam == TeamRed && s.Phase == PhaseGivingClue {
		assert.Equal(t, int64(3), s.CurrentPlayerID)
	}
}
