package game

import (
	"errors"
	"fmt"
)

// Rejection codes sent back to the acting client.
const (
	CodeNotYourTurn       = "not_your_turn"
	CodeWrongPhase        = "wrong_phase"
	CodeMalformedPayload  = "malformed_payload"
	CodeAlreadyResolved   = "already_resolved"
	CodeIllegalMove       = "illegal_move"
	CodeUnknownAction     = "unknown_action"
	CodeNotSeated         = "not_seated"
	CodeAlreadySeated     = "already_seated"
	CodeGameNotRunning    = "game_not_running"
	CodeAlreadyStarted    = "already_started"
	CodeRoomFull          = "room_full"
	CodeNotEnoughPlayers  = "not_enough_players"
	CodeInsufficientChips = "insufficient_chips"
	CodeRaiseTooSmall     = "raise_below_minimum"
	CodeBuyInOutOfRange   = "buy_in_out_of_range"
	CodeHandInProgress    = "hand_in_progress"
)

// Rejection is a move that the rules do not allow. It never changes state.
type Rejection struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func (r *Rejection) Error() string {
	return r.Reason
}

func reject(code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// IntegrityError means the state broke one of its own invariants. The room
// that owns it can not continue.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "integrity failure: " + e.Reason
}

func integrity(format string, args ...any) *IntegrityError {
	return &IntegrityError{Reason: fmt.Sprintf(format, args...)}
}

func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
