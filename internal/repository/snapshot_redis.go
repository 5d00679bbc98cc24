package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	snapshotKeyPrefix = "room:snapshot:"
	snapshotIndexKey  = "room:snapshots"

	DefaultSnapshotTTL = 24 * time.Hour
)

// RedisSnapshotStore keeps one JSON document per room plus a set indexing
// the live room ids.
type RedisSnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSnapshotStore(rdb *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &RedisSnapshotStore{rdb: rdb, ttl: ttl}
}

func snapshotKey(roomID string) string {
	return snapshotKeyPrefix + roomID
}

func (r *RedisSnapshotStore) Save(ctx context.Context, s RoomSnapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", s.RoomID, err)
	}
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, snapshotKey(s.RoomID), data, r.ttl)
	pipe.SAdd(ctx, snapshotIndexKey, s.RoomID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.RoomID, err)
	}
	return nil
}

func (r *RedisSnapshotStore) Get(ctx context.Context, roomID string) (RoomSnapshot, error) {
	data, err := r.rdb.Get(ctx, snapshotKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return RoomSnapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return RoomSnapshot{}, fmt.Errorf("get snapshot %s: %w", roomID, err)
	}
	var s RoomSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return RoomSnapshot{}, fmt.Errorf("decode snapshot %s: %w", roomID, err)
	}
	return s, nil
}

func (r *RedisSnapshotStore) Delete(ctx context.Context, roomID string) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, snapshotKey(roomID))
	pipe.SRem(ctx, snapshotIndexKey, roomID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", roomID, err)
	}
	return nil
}

// List returns every indexed snapshot. Ids whose document has expired are
// dropped from the index on the way.
func (r *RedisSnapshotStore) List(ctx context.Context) ([]RoomSnapshot, error) {
	ids, err := r.rdb.SMembers(ctx, snapshotIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if len(ids) == 0 {
		return []RoomSnapshot{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = snapshotKey(id)
	}
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	out := make([]RoomSnapshot, 0, len(values))
	var stale []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var s RoomSnapshot
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", ids[i], err)
		}
		out = append(out, s)
	}
	if len(stale) > 0 {
		r.rdb.SRem(ctx, snapshotIndexKey, stale...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
