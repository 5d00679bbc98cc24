package game

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type ChessBoard struct {
	FEN      string   `json:"fen"`
	White    int64    `json:"white"`
	Black    int64    `json:"black"`
	LastMove string   `json:"last_move,omitempty"`
	Check    bool     `json:"check,omitempty"`
	History  []string `json:"history"`
}

func (b *ChessBoard) clone() *ChessBoard {
	out := *b
	out.History = append([]string(nil), b.History...)
	return &out
}

func beginChess(s *State) {
	s.Chess = &ChessBoard{
		FEN:     DefaultFEN,
		White:   s.Players[0].PlayerID,
		Black:   s.Players[1].PlayerID,
		History: []string{},
	}
	s.CurrentPlayerID = s.Chess.White
}

type chessPayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

func applyChess(s *State, seat int, m Move) error {
	if err := requireTurn(s, m.PlayerID); err != nil {
		return err
	}
	if m.Action != ActionMove {
		return reject(CodeUnknownAction, "chess only accepts %s", ActionMove)
	}
	var p chessPayload
	if err := decodePayload(m, &p); err != nil {
		return err
	}
	from, ok1 := parseSquare(p.From)
	to, ok2 := parseSquare(p.To)
	if !ok1 || !ok2 {
		return reject(CodeMalformedPayload, "squares must look like e2")
	}

	b := s.Chess
	pos, err := parseFEN(b.FEN)
	if err != nil {
		return integrity("stored position: %v", err)
	}
	piece := pos.sq[from]
	if piece == 0 {
		return reject(CodeIllegalMove, "no piece on %s", p.From)
	}
	if isWhitePiece(piece) != pos.white {
		return reject(CodeIllegalMove, "piece on %s is not yours", p.From)
	}

	mv := chessMove{from: from, to: to}
	if lower(piece) == 'p' && (rankOf(to) == 7 || rankOf(to) == 0) {
		promo := byte('q')
		if p.Promotion != "" {
			promo = lower(p.Promotion[0])
		}
		if len(p.Promotion) > 1 || !strings.ContainsRune("qrbn", rune(promo)) {
			return reject(CodeMalformedPayload, "promotion must be one of q, r, b, n")
		}
		mv.promo = promo
	}
	if !pos.isLegal(mv) {
		return reject(CodeIllegalMove, "%s%s is not a legal move", p.From, p.To)
	}

	nextPos := pos.play(mv)
	b.FEN = nextPos.fen()
	b.LastMove = mv.String()
	b.History = append(b.History, b.LastMove)
	b.Check = nextPos.inCheck(nextPos.white)

	replies := len(nextPos.legalMoves())
	switch {
	case replies == 0 && b.Check:
		s.finishPlayer(seat, "checkmate")
	case replies == 0:
		s.finishDraw("stalemate")
	case nextPos.halfmove >= 100:
		s.finishDraw("fifty_move_rule")
	case nextPos.bareKings():
		s.finishDraw("insufficient_material")
	default:
		s.CurrentPlayerID = s.Players[1-seat].PlayerID
	}
	return nil
}

// position is a mailbox board, a1 = 0, h8 = 63. Empty squares are 0, white
// pieces upper case and black pieces lower case.
type position struct {
	sq       [64]byte
	white    bool
	wk, wq   bool
	bk, bq   bool
	ep       int
	halfmove int
	fullmove int
}

type chessMove struct {
	from, to int
	promo    byte
}

func (m chessMove) String() string {
	s := squareName(m.from) + squareName(m.to)
	if m.promo != 0 {
		s += string(m.promo)
	}
	return s
}

func fileOf(i int) int { return i % 8 }
func rankOf(i int) int { return i / 8 }

func isWhitePiece(b byte) bool { return b >= 'A' && b <= 'Z' }

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func parseSquare(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}
	f, r := s[0], s[1]
	if f < 'a' || f > 'h' || r < '1' || r > '8' {
		return 0, false
	}
	return int(r-'1')*8 + int(f-'a'), true
}

func squareName(i int) string {
	return string([]byte{byte('a' + fileOf(i)), byte('1' + rankOf(i))})
}

func parseFEN(fen string) (position, error) {
	var p position
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return p, fmt.Errorf("fen %q: want 6 fields", fen)
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return p, fmt.Errorf("fen %q: want 8 ranks", fen)
	}
	for i, row := range ranks {
		r := 7 - i
		f := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				f += int(c - '0')
				continue
			}
			if !strings.ContainsRune("pnbrqkPNBRQK", rune(c)) || f > 7 {
				return p, fmt.Errorf("fen %q: bad rank %q", fen, row)
			}
			p.sq[r*8+f] = c
			f++
		}
		if f != 8 {
			return p, fmt.Errorf("fen %q: rank %q is not 8 squares", fen, row)
		}
	}

	switch fields[1] {
	case "w":
		p.white = true
	case "b":
	default:
		return p, fmt.Errorf("fen %q: bad side %q", fen, fields[1])
	}

	p.wk = strings.Contains(fields[2], "K")
	p.wq = strings.Contains(fields[2], "Q")
	p.bk = strings.Contains(fields[2], "k")
	p.bq = strings.Contains(fields[2], "q")

	p.ep = -1
	if fields[3] != "-" {
		sq, ok := parseSquare(fields[3])
		if !ok {
			return p, fmt.Errorf("fen %q: bad en passant square", fen)
		}
		p.ep = sq
	}

	var err error
	if p.halfmove, err = strconv.Atoi(fields[4]); err != nil {
		return p, fmt.Errorf("fen %q: halfmove: %w", fen, err)
	}
	if p.fullmove, err = strconv.Atoi(fields[5]); err != nil {
		return p, fmt.Errorf("fen %q: fullmove: %w", fen, err)
	}
	return p, nil
}

func (p position) fen() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		empty := 0
		for f := 0; f < 8; f++ {
			c := p.sq[r*8+f]
			if c == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(c)
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r > 0 {
			sb.WriteByte('/')
		}
	}

	side := "b"
	if p.white {
		side = "w"
	}
	castling := ""
	if p.wk {
		castling += "K"
	}
	if p.wq {
		castling += "Q"
	}
	if p.bk {
		castling += "k"
	}
	if p.bq {
		castling += "q"
	}
	if castling == "" {
		castling = "-"
	}
	ep := "-"
	if p.ep >= 0 {
		ep = squareName(p.ep)
	}
	return fmt.Sprintf("%s %s %s %s %d %d", sb.String(), side, castling, ep, p.halfmove, p.fullmove)
}

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookDirs    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// offset returns the square df files and dr ranks away from i, or -1 when it
// falls off the board.
func offset(i, df, dr int) int {
	f, r := fileOf(i)+df, rankOf(i)+dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return -1
	}
	return r*8 + f
}

func (p *position) enemy(i int, white bool) bool {
	c := p.sq[i]
	return c != 0 && isWhitePiece(c) != white
}

// pseudoMoves lists the moves of the piece on from without checking whether
// they leave the own king attacked.
func (p *position) pseudoMoves(from int) []chessMove {
	piece := p.sq[from]
	if piece == 0 {
		return nil
	}
	white := isWhitePiece(piece)
	var out []chessMove
	add := func(to int) { out = append(out, chessMove{from: from, to: to}) }

	slide := func(dirs [][2]int) {
		for _, d := range dirs {
			to := from
			for {
				to = offset(to, d[0], d[1])
				if to < 0 {
					break
				}
				if p.sq[to] == 0 {
					add(to)
					continue
				}
				if p.enemy(to, white) {
					add(to)
				}
				break
			}
		}
	}

	switch lower(piece) {
	case 'p':
		dir, start := 1, 1
		if !white {
			dir, start = -1, 6
		}
		if one := offset(from, 0, dir); one >= 0 && p.sq[one] == 0 {
			add(one)
			if rankOf(from) == start {
				if two := offset(from, 0, 2*dir); p.sq[two] == 0 {
					add(two)
				}
			}
		}
		for _, df := range []int{-1, 1} {
			to := offset(from, df, dir)
			if to < 0 {
				continue
			}
			if p.enemy(to, white) || to == p.ep {
				add(to)
			}
		}
	case 'n':
		for _, st := range knightSteps {
			if to := offset(from, st[0], st[1]); to >= 0 && (p.sq[to] == 0 || p.enemy(to, white)) {
				add(to)
			}
		}
	case 'b':
		slide(bishopDirs[:])
	case 'r':
		slide(rookDirs[:])
	case 'q':
		slide(bishopDirs[:])
		slide(rookDirs[:])
	case 'k':
		for _, st := range kingSteps {
			if to := offset(from, st[0], st[1]); to >= 0 && (p.sq[to] == 0 || p.enemy(to, white)) {
				add(to)
			}
		}
		out = append(out, p.castlingMoves(from, white)...)
	}
	return out
}

func (p *position) castlingMoves(from int, white bool) []chessMove {
	var out []chessMove
	empty := func(sqs ...int) bool {
		for _, s := range sqs {
			if p.sq[s] != 0 {
				return false
			}
		}
		return true
	}
	safe := func(sqs ...int) bool {
		for _, s := range sqs {
			if p.attacked(s, !white) {
				return false
			}
		}
		return true
	}
	if white && from == 4 {
		if p.wk && p.sq[7] == 'R' && empty(5, 6) && safe(4, 5, 6) {
			out = append(out, chessMove{from: 4, to: 6})
		}
		if p.wq && p.sq[0] == 'R' && empty(1, 2, 3) && safe(4, 3, 2) {
			out = append(out, chessMove{from: 4, to: 2})
		}
	}
	if !white && from == 60 {
		if p.bk && p.sq[63] == 'r' && empty(61, 62) && safe(60, 61, 62) {
			out = append(out, chessMove{from: 60, to: 62})
		}
		if p.bq && p.sq[56] == 'r' && empty(57, 58, 59) && safe(60, 59, 58) {
			out = append(out, chessMove{from: 60, to: 58})
		}
	}
	return out
}

// attacked reports whether sq is attacked by the side byWhite.
func (p *position) attacked(sq int, byWhite bool) bool {
	own := func(i int, kind byte) bool {
		c := p.sq[i]
		return c != 0 && isWhitePiece(c) == byWhite && lower(c) == kind
	}

	pawnDir := -1
	if !byWhite {
		pawnDir = 1
	}
	for _, df := range []int{-1, 1} {
		if i := offset(sq, df, pawnDir); i >= 0 && own(i, 'p') {
			return true
		}
	}
	for _, st := range knightSteps {
		if i := offset(sq, st[0], st[1]); i >= 0 && own(i, 'n') {
			return true
		}
	}
	for _, st := range kingSteps {
		if i := offset(sq, st[0], st[1]); i >= 0 && own(i, 'k') {
			return true
		}
	}
	ray := func(dirs [4][2]int, kinds string) bool {
		for _, d := range dirs {
			i := sq
			for {
				i = offset(i, d[0], d[1])
				if i < 0 {
					break
				}
				c := p.sq[i]
				if c == 0 {
					continue
				}
				if isWhitePiece(c) == byWhite && strings.IndexByte(kinds, lower(c)) >= 0 {
					return true
				}
				break
			}
		}
		return false
	}
	return ray(rookDirs, "rq") || ray(bishopDirs, "bq")
}

func (p *position) kingSquare(white bool) int {
	k := byte('k')
	if white {
		k = 'K'
	}
	for i, c := range p.sq {
		if c == k {
			return i
		}
	}
	return -1
}

func (p *position) inCheck(white bool) bool {
	k := p.kingSquare(white)
	return k >= 0 && p.attacked(k, !white)
}

// play applies m, which must be at least pseudo legal, and returns the new
// position.
func (p position) play(m chessMove) position {
	next := p
	piece := next.sq[m.from]
	captured := next.sq[m.to]
	kind := lower(piece)
	white := isWhitePiece(piece)

	next.sq[m.to] = piece
	next.sq[m.from] = 0

	if kind == 'p' && m.to == p.ep {
		victim := offset(m.to, 0, -1)
		if !white {
			victim = offset(m.to, 0, 1)
		}
		captured = next.sq[victim]
		next.sq[victim] = 0
	}
	if kind == 'p' && (rankOf(m.to) == 7 || rankOf(m.to) == 0) {
		promo := m.promo
		if promo == 0 {
			promo = 'q'
		}
		if white {
			promo = upper(promo)
		}
		next.sq[m.to] = promo
	}
	if kind == 'k' && (m.to-m.from == 2 || m.from-m.to == 2) {
		switch m.to {
		case 6:
			next.sq[5], next.sq[7] = next.sq[7], 0
		case 2:
			next.sq[3], next.sq[0] = next.sq[0], 0
		case 62:
			next.sq[61], next.sq[63] = next.sq[63], 0
		case 58:
			next.sq[59], next.sq[56] = next.sq[56], 0
		}
	}

	if kind == 'k' {
		if white {
			next.wk, next.wq = false, false
		} else {
			next.bk, next.bq = false, false
		}
	}
	for _, sq := range []int{m.from, m.to} {
		switch sq {
		case 0:
			next.wq = false
		case 7:
			next.wk = false
		case 56:
			next.bq = false
		case 63:
			next.bk = false
		}
	}

	next.ep = -1
	if kind == 'p' && (m.to-m.from == 16 || m.from-m.to == 16) {
		next.ep = (m.from + m.to) / 2
	}
	if kind == 'p' || captured != 0 {
		next.halfmove = 0
	} else {
		next.halfmove++
	}
	if !white {
		next.fullmove++
	}
	next.white = !p.white
	return next
}

func (p *position) isLegal(m chessMove) bool {
	for _, cand := range p.pseudoMoves(m.from) {
		if cand.to != m.to {
			continue
		}
		after := p.play(m)
		return !after.inCheck(p.white)
	}
	return false
}

func (p *position) legalMoves() []chessMove {
	var out []chessMove
	for from, c := range p.sq {
		if c == 0 || isWhitePiece(c) != p.white {
			continue
		}
		for _, m := range p.pseudoMoves(from) {
			after := p.play(m)
			if !after.inCheck(p.white) {
				out = append(out, m)
			}
		}
	}
	return out
}

func (p *position) bareKings() bool {
	for _, c := range p.sq {
		if c != 0 && lower(c) != 'k' {
			return false
		}
	}
	return true
}
