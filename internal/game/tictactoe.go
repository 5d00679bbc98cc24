package game

type TicTacToeBoard struct {
	Cells [9]string `json:"cells"`
	Moves int       `json:"moves"`
}

var ticTacToeLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func beginTicTacToe(s *State) {
	s.TicTacToe = &TicTacToeBoard{}
	s.CurrentPlayerID = s.Players[0].PlayerID
}

func ticTacToeMark(seat int) string {
	if seat == 0 {
		return "X"
	}
	return "O"
}

type placePayload struct {
	Cell *int `json:"cell"`
}

func applyTicTacToe(s *State, seat int, m Move) error {
	if err := requireTurn(s, m.PlayerID); err != nil {
		return err
	}
	if m.Action != ActionPlace {
		return reject(CodeUnknownAction, "tic-tac-toe only accepts %s", ActionPlace)
	}
	var p placePayload
	if err := decodePayload(m, &p); err != nil {
		return err
	}
	if p.Cell == nil || *p.Cell < 0 || *p.Cell > 8 {
		return reject(CodeMalformedPayload, "cell must be between 0 and 8")
	}

	b := s.TicTacToe
	if b.Cells[*p.Cell] != "" {
		return reject(CodeAlreadyResolved, "cell %d is taken", *p.Cell)
	}
	mark := ticTacToeMark(seat)
	b.Cells[*p.Cell] = mark
	b.Moves++

	for _, line := range ticTacToeLines {
		if b.Cells[line[0]] == mark && b.Cells[line[1]] == mark && b.Cells[line[2]] == mark {
			s.finishPlayer(seat, "three_in_a_row")
			return nil
		}
	}
	if b.Moves == len(b.Cells) {
		s.finishDraw("board_full")
		return nil
	}
	s.CurrentPlayerID = s.Players[1-seat].PlayerID
	return nil
}
