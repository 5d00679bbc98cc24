package ws

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/domain"
	"github.com/MmmDelicious/lovememory-sub007/internal/game"
	"github.com/MmmDelicious/lovememory-sub007/internal/logger"
	"github.com/MmmDelicious/lovememory-sub007/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	DefaultGracePeriod  = 60 * time.Second
	DefaultMessageRate  = 10
	DefaultMessageBurst = 20

	cleanupInterval = 10 * time.Minute
	staleRoomAge    = time.Hour
)

// ResultRecorder persists terminal results. Calls are fire-and-forget.
type ResultRecorder interface {
	Record(ctx context.Context, m *domain.MatchResult) error
}

// ResumeIssuer mints the credential handed out with every join.
type ResumeIssuer interface {
	IssueResume(roomID string, playerID int64, name string) (string, error)
}

type Options struct {
	GracePeriod  time.Duration
	MessageRate  rate.Limit
	MessageBurst int

	Snapshots repository.SnapshotStore
	Results   ResultRecorder
	Tokens    ResumeIssuer

	// PokerDefaults fills blinds and buy-in limits a poker room leaves unset.
	PokerDefaults game.Config
	// Seed feeds each room's random source.
	Seed func() uint64
}

type Hub struct {
	Rooms map[string]*Room
	mu    sync.RWMutex

	opts     Options
	quit     chan struct{}
	quitOnce sync.Once
}

func NewHub(opts Options) *Hub {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.MessageRate <= 0 {
		opts.MessageRate = DefaultMessageRate
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = DefaultMessageBurst
	}
	if opts.Seed == nil {
		opts.Seed = rand.Uint64
	}
	return &Hub{
		Rooms: make(map[string]*Room),
		opts:  opts,
		quit:  make(chan struct{}),
	}
}

func (h *Hub) newEnv() game.Env {
	return game.NewEnv(h.opts.Seed())
}

// CreateRoom opens an empty room of type t hosted by hostID.
func (h *Hub) CreateRoom(t game.Type, cfg game.Config, hostID int64) (*Room, error) {
	if t == game.TypePoker {
		if cfg.SmallBlind == 0 {
			cfg.SmallBlind = h.opts.PokerDefaults.SmallBlind
		}
		if cfg.BigBlind == 0 {
			cfg.BigBlind = h.opts.PokerDefaults.BigBlind
		}
		if cfg.MaxBuyIn == 0 {
			cfg.MaxBuyIn = h.opts.PokerDefaults.MaxBuyIn
		}
	}
	state, err := game.New(t, cfg)
	if err != nil {
		return nil, err
	}

	r := newRoom(h, uuid.NewString(), hostID, time.Now().UTC(), state)
	r.persister.save(r.snapshot())
	h.register(r)
	logger.Info("room created", "room", r.ID, "game", t, "host", hostID)
	return r, nil
}

func (h *Hub) register(r *Room) {
	h.mu.Lock()
	h.Rooms[r.ID] = r
	h.mu.Unlock()

	roomsActive.Inc()
	roomsCreated.WithLabelValues(string(r.Type)).Inc()
	go r.run()
}

func (h *Hub) remove(r *Room) {
	h.mu.Lock()
	if h.Rooms[r.ID] == r {
		delete(h.Rooms, r.ID)
	}
	h.mu.Unlock()
}

func (h *Hub) Room(id string) (*Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.Rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return r, nil
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Type   game.Type
	Status domain.RoomStatus
}

// List returns the published info of matching rooms, oldest first.
func (h *Hub) List(f Filter) []RoomInfo {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.Rooms))
	for _, r := range h.Rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		info := r.Info()
		if f.Type != "" && info.Type != f.Type {
			continue
		}
		if f.Status != "" && info.Status != f.Status {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Restore brings back the rooms found in the snapshot store. Every seat
// comes back disconnected with a fresh grace period.
func (h *Hub) Restore(ctx context.Context) (int, error) {
	store := h.opts.Snapshots
	if store == nil {
		return 0, nil
	}
	snapshots, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore rooms: %w", err)
	}

	restored := 0
	for _, snap := range snapshots {
		if _, err := h.Room(snap.RoomID); err == nil {
			continue
		}
		state := snap.State
		if err := game.Validate(state); err != nil {
			logger.Error("discarding invalid snapshot", "room", snap.RoomID, "error", err)
			_ = store.Delete(ctx, snap.RoomID)
			continue
		}
		for _, p := range state.Players {
			state, _ = game.SetConnected(state, p.PlayerID, false)
		}

		r := newRoom(h, snap.RoomID, snap.HostID, snap.CreatedAt, state)
		for _, p := range state.Players {
			if !p.Eliminated {
				r.startGrace(p.PlayerID)
			}
		}
		abandoned := len(state.Players) > 0 && len(r.grace) == 0
		r.persister.save(r.snapshot())
		h.register(r)
		if abandoned {
			_ = r.Close(ReasonAbandoned)
		}
		restored++
		logger.Info("room restored", "room", r.ID, "game", r.Type, "version", state.Version, "seats", len(state.Players))
	}
	return restored, nil
}

// Shutdown stops every room but keeps their snapshots so Restore can pick
// them up again.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.quitOnce.Do(func() { close(h.quit) })

	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.Rooms))
	for _, r := range h.Rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		_ = r.enqueue(closeEvent{reason: ReasonShutdown, keepSnapshot: true})
	}
	for _, r := range rooms {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	flushed := make(chan struct{})
	go func() {
		for _, r := range rooms {
			r.persister.wait()
		}
		close(flushed)
	}()
	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) StartCleanup() {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				h.cleanupStaleRooms(now)
			case <-h.quit:
				return
			}
		}
	}()
}

// cleanupStaleRooms closes rooms nobody ever sat down in.
func (h *Hub) cleanupStaleRooms(now time.Time) {
	h.mu.RLock()
	var stale []*Room
	for _, r := range h.Rooms {
		info := r.Info()
		if len(info.Players) == 0 && now.Sub(r.CreatedAt) > staleRoomAge {
			stale = append(stale, r)
		}
	}
	h.mu.RUnlock()

	for _, r := range stale {
		if err := r.Close(ReasonExpired); err == nil {
			logger.Info("cleaned up stale room", "room", r.ID)
		}
	}
}
