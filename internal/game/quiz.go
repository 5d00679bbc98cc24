package game

import (
	"errors"
	"fmt"
)

type QuizQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// QuizResult is the outcome of the last closed question.
type QuizResult struct {
	Question int           `json:"question"`
	Correct  int           `json:"correct"`
	Answers  map[int64]int `json:"answers"`
}

type QuizBoard struct {
	Questions []QuizQuestion `json:"questions"`
	Total     int            `json:"total"`
	Current   int            `json:"current"`
	Answers   map[int64]int  `json:"answers"`
	Last      *QuizResult    `json:"last,omitempty"`
}

// hiddenAnswer stands for "answered" in views of other players' answers and
// for the redacted correct option.
const hiddenAnswer = -1

func (b *QuizBoard) clone() *QuizBoard {
	out := *b
	out.Questions = make([]QuizQuestion, len(b.Questions))
	for i, q := range b.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	out.Answers = cloneAnswers(b.Answers)
	if b.Last != nil {
		last := *b.Last
		last.Answers = cloneAnswers(b.Last.Answers)
		out.Last = &last
	}
	return &out
}

func cloneAnswers(in map[int64]int) map[int64]int {
	out := make(map[int64]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func normalizeQuiz(cfg *Config) error {
	for i, q := range cfg.Questions {
		if q.Text == "" || len(q.Options) < 2 {
			return fmt.Errorf("question %d needs text and at least two options", i)
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return fmt.Errorf("question %d answer out of range", i)
		}
	}
	if len(cfg.Questions) == 0 && len(quizBank) == 0 {
		return errors.New("no quiz questions available")
	}
	return nil
}

func beginQuiz(s *State, env Env) {
	questions := s.Config.Questions
	if len(questions) == 0 {
		questions = append([]QuizQuestion(nil), quizBank...)
		env.shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
		if len(questions) > quizRoundLength {
			questions = questions[:quizRoundLength]
		}
	}
	board := &QuizBoard{Questions: questions, Total: len(questions), Answers: map[int64]int{}}
	// config questions are shared between rooms, the board owns its copy
	s.Quiz = board.clone()
}

type answerPayload struct {
	Option *int `json:"option"`
}

func applyQuiz(s *State, seat int, m Move) error {
	if m.Action != ActionAnswer {
		return reject(CodeUnknownAction, "quiz only accepts %s", ActionAnswer)
	}
	b := s.Quiz
	if _, done := b.Answers[m.PlayerID]; done {
		return reject(CodeAlreadyResolved, "already answered this question")
	}
	var p answerPayload
	if err := decodePayload(m, &p); err != nil {
		return err
	}
	q := b.Questions[b.Current]
	if p.Option == nil || *p.Option < 0 || *p.Option >= len(q.Options) {
		return reject(CodeMalformedPayload, "option must be between 0 and %d", len(q.Options)-1)
	}

	b.Answers[m.PlayerID] = *p.Option
	if b.allAnswered(s) {
		resolveQuizQuestion(s)
	}
	return nil
}

func (b *QuizBoard) allAnswered(s *State) bool {
	for _, i := range s.active() {
		if _, ok := b.Answers[s.Players[i].PlayerID]; !ok {
			return false
		}
	}
	return true
}

// resolveQuizQuestion scores the open question and opens the next one, or
// ends the game after the last.
func resolveQuizQuestion(s *State) {
	b := s.Quiz
	q := b.Questions[b.Current]
	for i := range s.Players {
		if s.Players[i].Eliminated {
			continue
		}
		if opt, ok := b.Answers[s.Players[i].PlayerID]; ok && opt == q.Answer {
			s.Players[i].Score++
		}
	}
	b.Last = &QuizResult{Question: b.Current, Correct: q.Answer, Answers: b.Answers}
	b.Answers = map[int64]int{}
	b.Current++
	if b.Current >= len(b.Questions) {
		s.finishByScore("quiz_complete")
	}
}

func (b *QuizBoard) redact(viewer int64, finished bool) {
	if !finished {
		if b.Current+1 < len(b.Questions) {
			b.Questions = b.Questions[:b.Current+1]
		}
		if b.Current < len(b.Questions) {
			b.Questions[b.Current].Answer = hiddenAnswer
		}
	}
	for id := range b.Answers {
		if id != viewer {
			b.Answers[id] = hiddenAnswer
		}
	}
}
