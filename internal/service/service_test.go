package service

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"bookapi/internal/keylock"
	"bookapi/internal/model"
	"bookapi/internal/repository/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	books     *memory.BookMemory
	snapshots *memory.SnapshotMemory
	votes     *memory.VoteMemory
	queue     *memory.DeleteQueueMemory
	lock      *keylock.KeyedLock
	clock     *fakeClock
	manager   BookManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		books:     memory.NewBookMemory(),
		snapshots: memory.NewSnapshotMemory(),
		votes:     memory.NewVoteMemory(),
		queue:     memory.NewDeleteQueueMemory(),
		lock:      keylock.New(),
		clock:     newFakeClock(),
	}
	logger := zaptest.NewLogger(t)
	clock := Clock(f.clock.Now)

	f.manager = NewBookManager(
		f.books,
		NewSnapshotStore[model.Book](f.snapshots, model.EntityBook, clock),
		NewVoteLedger(f.votes, logger, clock),
		NewDeleteQueue(f.queue, clock),
		f.lock,
		logger,
		clock,
	)
	return f
}

var (
	alice  = model.Actor{UserID: "alice", Reputation: 0}
	bob    = model.Actor{UserID: "bob", Reputation: 100, IsRestricted: true}
	system = model.Actor{}
)

func sampleBook() model.BookCreate {
	return model.BookCreate{
		Name:     []string{"The Book", "Das Buch"},
		Category: "manga",
		Rating:   "safe",
		Tags:     map[string][]string{"artist": {"someone"}},
	}
}

func sampleContent(pages int) model.BookContentCreate {
	return model.BookContentCreate{PageCount: pages, Language: "en", Sources: []string{"https://example.com"}}
}

func ptr[T any](v T) *T { return &v }
