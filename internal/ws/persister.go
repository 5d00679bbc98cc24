package ws

import (
	"context"
	"sync"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/logger"
	"github.com/MmmDelicious/lovememory-sub007/internal/repository"
)

const persistTimeout = 3 * time.Second

// persister writes a room's snapshots on its own goroutine. Only the newest
// pending snapshot is kept, so a slow store never holds the room up and
// versions reach the store in order.
type persister struct {
	store repository.SnapshotStore

	mu      sync.Mutex
	pending *repository.RoomSnapshot
	remove  bool
	roomID  string

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func newPersister(store repository.SnapshotStore) *persister {
	if store == nil {
		return nil
	}
	p := &persister{
		store: store,
		wake:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *persister) save(s repository.RoomSnapshot) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.pending = &s
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// stop flushes what is pending and, when remove is set, deletes the room's
// snapshot afterwards.
func (p *persister) stop(remove bool, roomID string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.remove = remove
	p.roomID = roomID
	p.mu.Unlock()
	close(p.quit)
}

// wait blocks until the loop has exited.
func (p *persister) wait() {
	if p == nil {
		return
	}
	<-p.done
}

func (p *persister) loop() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.flush()
		case <-p.quit:
			p.flush()
			p.mu.Lock()
			remove, roomID := p.remove, p.roomID
			p.mu.Unlock()
			if remove {
				ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
				if err := p.store.Delete(ctx, roomID); err != nil {
					logger.Warn("delete room snapshot", "room", roomID, "error", err)
				}
				cancel()
			}
			return
		}
	}
}

func (p *persister) flush() {
	p.mu.Lock()
	s := p.pending
	p.pending = nil
	p.mu.Unlock()
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := p.store.Save(ctx, *s); err != nil {
		logger.Warn("save room snapshot", "room", s.RoomID, "version", s.State.Version, "error", err)
	}
}
