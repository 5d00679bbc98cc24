package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MmmDelicious/lovememory-sub007/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchResultRepository struct {
	db *pgxpool.Pool
}

func NewMatchResultRepository(db *pgxpool.Pool) *MatchResultRepository {
	return &MatchResultRepository{db: db}
}

// Record stores a finished game or poker hand. Recording the same room and
// hand twice keeps the first row.
func (r *MatchResultRepository) Record(ctx context.Context, m *domain.MatchResult) error {
	participants, err := json.Marshal(m.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}
	details := m.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	err = r.db.QueryRow(ctx,
		`INSERT INTO match_results
			(room_id, game_type, hand_number, winner_id, winner_team, draw, reason, participants, details, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (room_id, hand_number) DO NOTHING
		 RETURNING id`,
		m.RoomID,
		m.GameType,
		m.HandNumber,
		m.WinnerID,
		m.WinnerTeam,
		m.Draw,
		m.Reason,
		participants,
		detailsJSON,
		m.FinishedAt,
	).Scan(&m.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

// ListByRoom returns the results of a room, oldest first.
func (r *MatchResultRepository) ListByRoom(ctx context.Context, roomID string) ([]*domain.MatchResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, room_id, game_type, hand_number, winner_id, winner_team, draw, reason,
				participants, details, finished_at
		 FROM match_results
		 WHERE room_id = $1
		 ORDER BY hand_number, finished_at`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

// ListByPlayer returns the most recent results a player took part in.
func (r *MatchResultRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]*domain.MatchResult, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, room_id, game_type, hand_number, winner_id, winner_team, draw, reason,
				participants, details, finished_at
		 FROM match_results
		 WHERE participants @> jsonb_build_array(jsonb_build_object('player_id', $1::bigint))
		 ORDER BY finished_at DESC
		 LIMIT $2`,
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

func scanResults(rows pgx.Rows) ([]*domain.MatchResult, error) {
	result := []*domain.MatchResult{}

	for rows.Next() {
		var (
			m                domain.MatchResult
			participantsJSON []byte
			detailsJSON      []byte
		)

		if err := rows.Scan(
			&m.ID, &m.RoomID, &m.GameType, &m.HandNumber, &m.WinnerID, &m.WinnerTeam,
			&m.Draw, &m.Reason, &participantsJSON, &detailsJSON, &m.FinishedAt,
		); err != nil {
			return nil, err
		}

		if len(participantsJSON) > 0 {
			if err := json.Unmarshal(participantsJSON, &m.Participants); err != nil {
				return nil, fmt.Errorf("decode participants of result %d: %w", m.ID, err)
			}
		}
		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &m.Details)
		}

		result = append(result, &m)
	}

	return result, rows.Err()
}
