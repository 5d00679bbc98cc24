package domain

import "time"

// RoomStatus - coarse room lifecycle used by discovery
type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "waiting"
	RoomStatusInProgress RoomStatus = "in_progress"
	RoomStatusFinished   RoomStatus = "finished"
	RoomStatusClosed     RoomStatus = "closed"
)

// MatchOutcome - result of one participant
type MatchOutcome string

const (
	MatchOutcomeWin  MatchOutcome = "win"
	MatchOutcomeLose MatchOutcome = "lose"
	MatchOutcomeDraw MatchOutcome = "draw"
)

// MatchParticipant - one seat of a recorded match
type MatchParticipant struct {
	PlayerID int64        `json:"player_id"`
	Name     string       `json:"name"`
	Seat     int          `json:"seat"`
	Team     string       `json:"team,omitempty"`
	Score    int          `json:"score"`
	Stack    int64        `json:"stack,omitempty"`
	Outcome  MatchOutcome `json:"outcome"`
}

// MatchResult - terminal result of a game, or of one hand at a poker table
type MatchResult struct {
	ID           int64              `db:"id" json:"id"`
	RoomID       string             `db:"room_id" json:"room_id"`
	GameType     string             `db:"game_type" json:"game_type"`
	HandNumber   int                `db:"hand_number" json:"hand_number,omitempty"`
	WinnerID     *int64             `db:"winner_id" json:"winner_id,omitempty"`
	WinnerTeam   string             `db:"winner_team" json:"winner_team,omitempty"`
	Draw         bool               `db:"draw" json:"draw"`
	Reason       string             `db:"reason" json:"reason"`
	Participants []MatchParticipant `db:"participants" json:"participants"`
	Details      map[string]any     `db:"details" json:"details,omitempty"`
	FinishedAt   time.Time          `db:"finished_at" json:"finished_at"`
}

