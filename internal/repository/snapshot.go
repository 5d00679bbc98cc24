package repository

import (
	"context"
	"errors"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/game"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// RoomSnapshot is everything needed to bring a live room back after a
// restart.
type RoomSnapshot struct {
	RoomID    string     `json:"room_id"`
	HostID    int64      `json:"host_id"`
	CreatedAt time.Time  `json:"created_at"`
	SavedAt   time.Time  `json:"saved_at"`
	State     game.State `json:"state"`
}

// SnapshotStore keeps the latest snapshot of every live room.
type SnapshotStore interface {
	Save(ctx context.Context, s RoomSnapshot) error
	Get(ctx context.Context, roomID string) (RoomSnapshot, error)
	Delete(ctx context.Context, roomID string) error
	List(ctx context.Context) ([]RoomSnapshot, error)
}
