package service

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"bookapi/internal/keylock"
	"bookapi/internal/model"
	"bookapi/internal/repository"
)

var tracer = otel.Tracer("bookapi/internal/service")

// BookManager defines the use cases for books. Every mutation of a book runs
// under that book's lock and is followed by a snapshot of the resulting state.
type BookManager interface {
	Get(ctx context.Context, id string) (*model.Book, error)
	GetContent(ctx context.Context, id string, contentID int64) (*model.BookContent, error)

	// ListSnapshots returns a page of the book's history. An empty page is reported as not found.
	ListSnapshots(ctx context.Context, id string, start, count int, chronological bool) ([]model.Snapshot[model.Book], error)
	GetSnapshot(ctx context.Context, id, snapshotID string) (*model.Snapshot[model.Book], error)

	// Create stores a new book with its first content.
	Create(ctx context.Context, book model.BookCreate, content model.BookContentCreate, actor model.Actor) (*model.Book, error)
	Update(ctx context.Context, id string, update model.BookUpdate, actor model.Actor) (*model.Book, error)

	// Delete removes the book and its votes and marks its page files for deletion.
	Delete(ctx context.Context, id string, actor model.Actor) error

	// Revert restores the book to the state recorded by a snapshot. It returns
	// nil when the restored state is a deleted book.
	Revert(ctx context.Context, id, snapshotID string, actor model.Actor) (*model.Book, error)

	AddContent(ctx context.Context, id string, content model.BookContentCreate, actor model.Actor) (*model.Book, *model.BookContent, error)
	UpdateContent(ctx context.Context, id string, contentID int64, update model.BookContentUpdate, actor model.Actor) (*model.BookContent, error)

	// LockContent runs fn with a copy of the content while holding the book's
	// lock. fn's error is returned unchanged.
	LockContent(ctx context.Context, id string, contentID int64, fn func(ctx context.Context, content model.BookContent) error) error

	// RemoveContent removes one content. Removing the last content deletes the whole book.
	RemoveContent(ctx context.Context, id string, contentID int64, actor model.Actor) error

	// Vote casts or changes (non-nil voteType) or retracts (nil) the voter's vote.
	Vote(ctx context.Context, id string, voter model.Actor, voteType *model.VoteType) (*model.Vote, error)
}

// bookManager is the concrete implementation of BookManager.
type bookManager struct {
	books     repository.BookRepository
	snapshots *SnapshotStore[model.Book]
	votes     *VoteLedger
	queue     *DeleteQueue
	lock      *keylock.KeyedLock
	logger    *zap.Logger
	clock     Clock
}

// NewBookManager constructs a BookManager. lock must be dedicated to books;
// a nil clock uses time.Now.
func NewBookManager(
	books repository.BookRepository,
	snapshots *SnapshotStore[model.Book],
	votes *VoteLedger,
	queue *DeleteQueue,
	lock *keylock.KeyedLock,
	logger *zap.Logger,
	clock Clock,
) BookManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bookManager{
		books:     books,
		snapshots: snapshots,
		votes:     votes,
		queue:     queue,
		lock:      lock,
		logger:    logger.Named("books"),
		clock:     clock,
	}
}

func (m *bookManager) Get(ctx context.Context, id string) (book *model.Book, err error) {
	ctx, span := startSpan(ctx, "BookManager.Get", id)
	defer func() { endSpan(span, err) }()

	return m.load(ctx, id)
}

func (m *bookManager) GetContent(ctx context.Context, id string, contentID int64) (content *model.BookContent, err error) {
	ctx, span := startSpan(ctx, "BookManager.GetContent", id)
	defer func() { endSpan(span, err) }()

	book, idx, err := m.loadContent(ctx, id, contentID)
	if err != nil {
		return nil, err
	}
	return &book.Contents[idx], nil
}

func (m *bookManager) ListSnapshots(ctx context.Context, id string, start, count int, chronological bool) (snaps []model.Snapshot[model.Book], err error) {
	ctx, span := startSpan(ctx, "BookManager.ListSnapshots", id)
	defer func() { endSpan(span, err) }()

	snaps, err = m.snapshots.List(ctx, id, start, count, chronological)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, notFound("book", id)
	}
	return snaps, nil
}

func (m *bookManager) GetSnapshot(ctx context.Context, id, snapshotID string) (snap *model.Snapshot[model.Book], err error) {
	ctx, span := startSpan(ctx, "BookManager.GetSnapshot", id)
	defer func() { endSpan(span, err) }()

	return m.snapshots.Get(ctx, snapshotID, id)
}

func (m *bookManager) Create(ctx context.Context, in model.BookCreate, content model.BookContentCreate, actor model.Actor) (book *model.Book, err error) {
	if len(in.Name) == 0 {
		return nil, badRequest("book must have at least one name")
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	book = &model.Book{
		ID:       uuid.New().String(),
		Name:     slices.Clone(in.Name),
		Category: in.Category,
		Rating:   in.Rating,
		Tags:     maps.Clone(in.Tags),
	}

	ctx, span := startSpan(ctx, "BookManager.Create", book.ID)
	defer func() { endSpan(span, err) }()

	release, err := m.enter(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	book.Contents = []model.BookContent{newContent(m.nextContentID(book), content)}

	if err := m.books.Save(ctx, book); err != nil {
		return nil, storageErr("save book", err)
	}
	if _, err := m.snapshots.Record(ctx, model.SnapshotCreated, book.ID, present(book), actor); err != nil {
		return nil, err
	}

	m.logger.Info("book created", zap.String("book_id", book.ID), zap.String("user_id", actor.UserID))
	return book, nil
}

func (m *bookManager) Update(ctx context.Context, id string, update model.BookUpdate, actor model.Actor) (book *model.Book, err error) {
	if update.Name != nil && len(update.Name) == 0 {
		return nil, badRequest("book must have at least one name")
	}

	ctx, span := startSpan(ctx, "BookManager.Update", id)
	defer func() { endSpan(span, err) }()

	release, err := m.enter(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	book, err = m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Apply(book)

	if err := m.save(ctx, book, model.SnapshotModified, actor); err != nil {
		return nil, err
	}
	return book, nil
}

func (m *bookManager) Delete(ctx context.Context, id string, actor model.Actor) (err error) {
	ctx, span := startSpan(ctx, "BookManager.Delete", id)
	defer func() { endSpan(span, err) }()

	release, err := m.enter(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	book, err := m.load(ctx, id)
	if err != nil {
		return err
	}

	if err := m.remove(ctx, id, actor); err != nil {
		return err
	}
	if err := m.queue.MarkForDeletion(ctx, model.BookFiles(book)); err != nil {
		return err
	}

	m.logger.Info("book deleted",
		zap.String("book_id", id),
		zap.String("user_id", actor.UserID),
		zap.String("reason", actor.Reason))
	return nil
}

func (m *bookManager) Revert(ctx context.Context, id, snapshotID string, actor model.Actor) (book *model.Book, err error) {
	ctx, span := startSpan(ctx, "BookManager.Revert", id)
	span.SetAttributes(attribute.String("snapshot.id", snapshotID))
	defer func() { endSpan(span, err) }()

	release, err := m.enter(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := m.snapshots.Get(ctx, snapshotID, id)
	if err != nil {
		return nil, err
	}

	current, err := m.load(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var target *model.Book
	if snap.Type != model.SnapshotDeleted {
		if v, ok := model.StateValue[model.Book](snap.State); ok {
			target = v.Clone()
			target.ID = id
		}
	}

	var state model.EntityState[model.Book] = model.Absent[model.Book]{}
	switch {
	case target != nil:
		// scores belong to the vote ledger; a recreated book has no surviving votes
		target.Score = 0
		if current != nil {
			target.Score = current.Score
		}
		if err := m.books.Save(ctx, target); err != nil {
			return nil, storageErr("save book", err)
		}
		state = present(target)
	case current != nil:
		if _, err := m.votes.DeleteForEntity(ctx, model.EntityBook, id); err != nil {
			return nil, err
		}
		if err := m.books.Delete(ctx, id); err != nil {
			return nil, storageErr("delete book", err)
		}
	}

	if _, err := m.snapshots.Record(ctx, model.SnapshotReverted, id, state, actor); err != nil {
		return nil, err
	}

	var before, after []string
	if current != nil {
		before = model.BookFiles(current)
	}
	if target != nil {
		after = model.BookFiles(target)
	}
	if err := m.queue.MarkForDeletion(ctx, difference(before, after)); err != nil {
		return nil, err
	}
	if err := m.queue.Restore(ctx, after); err != nil {
		return nil, err
	}

	m.logger.Info("book reverted",
		zap.String("book_id", id),
		zap.String("snapshot_id", snapshotID),
		zap.String("user_id", actor.UserID),
		zap.Bool("deleted", target == nil))
	return target, nil
}

func (m *bookManager) AddContent(ctx context.Context, id string, in model.BookContentCreate, actor model.Actor) (book *model.Book, content *model.BookContent, err error) {
	if err := validateContent(in); err != nil {
		return nil, nil, err
	}

	ctx, span := startSpan(ctx, "BookManager.AddContent", id)
	defer func() { endSpan(span, err) }()

	release, err := m.enter(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	book, err = m.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	book.Contents = append(book.Contents, newContent(m.nextContentID(book), in))

	if err := m.save(ctx, book, model.SnapshotModified, actor); err != nil {
		return nil, nil, err
	}
	return book, &book.Contents[len(book.Contents)-1], nil
}

func (m *bookManager) UpdateContent(ctx context.Context, id string, contentID int64, update model.BookContentUpdate, actor model.Actor) (content *model.BookContent, err error) {
	ctx, span := startSpan(ctx, "BookManager.UpdateContent", id)
	defer func() { endSpan(span, err) }()

	release, err := m.enter(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	book, idx, err := m.loadContent(ctx, id, contentID)
	if err != nil {
		return nil, err
	}

	update.Apply(&book.Contents[idx])

	if err := m.save(ctx, book, model.SnapshotModified, actor); err != nil {
		return nil, err
	}
	return &book.Contents[idx], nil
}

func (m *bookManager) LockContent(ctx context.Context, id string, contentID int64, fn func(ctx context.Context, content model.BookContent) error) (err error) {
	ctx, span := startSpan(ctx, "BookManager.LockContent", id)
	defer func() { endSpan(span, err) }()

	release, err := m.enter(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	book, idx, err := m.loadContent(ctx, id, contentID)
	if err != nil {
		return err
	}
	return fn(ctx, book.Contents[idx].Clone())
}

func (m *bookManager) RemoveContent(ctx context.Context, id string, contentID int64, actor model.Actor) (err error) {
	ctx, span := startSpan(ctx, "BookManager.RemoveContent", id)
	defer func() { endSpan(span, err) }()

	release, err := m.enter(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	book, idx, err := m.loadContent(ctx, id, contentID)
	if err != nil {
		return err
	}
	removed := book.Contents[idx]

	if len(book.Contents) == 1 {
		err = m.remove(ctx, id, actor)
	} else {
		book.Contents = slices.Delete(book.Contents, idx, idx+1)
		err = m.save(ctx, book, model.SnapshotModified, actor)
	}
	if err != nil {
		return err
	}

	return m.queue.MarkForDeletion(ctx, model.PageKeys(id, removed))
}

func (m *bookManager) Vote(ctx context.Context, id string, voter model.Actor, voteType *model.VoteType) (vote *model.Vote, err error) {
	if voter.IsSystem() {
		return nil, badRequest("votes must be cast by a user")
	}

	ctx, span := startSpan(ctx, "BookManager.Vote", id)
	defer func() { endSpan(span, err) }()

	release, err := m.enter(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	book, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	vote, err = m.votes.Set(ctx, book, voter, voteType)
	if err != nil || vote == nil {
		return nil, err
	}

	// the vote is already stored; a failed save leaves the score behind it
	if err := m.books.Save(ctx, book); err != nil {
		m.logger.Error("vote stored but book score not saved",
			zap.String("book_id", id),
			zap.String("user_id", voter.UserID),
			zap.Error(err))
		return nil, storageErr("save book score", err)
	}
	return vote, nil
}

func (m *bookManager) enter(ctx context.Context, id string) (func(), error) {
	release, err := m.lock.Enter(ctx, id)
	if err != nil {
		return nil, &cancelledError{op: "lock book " + id, err: err}
	}
	return release, nil
}

func (m *bookManager) load(ctx context.Context, id string) (*model.Book, error) {
	book, err := m.books.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("book", id)
	}
	if err != nil {
		return nil, storageErr("load book", err)
	}
	return book, nil
}

func (m *bookManager) loadContent(ctx context.Context, id string, contentID int64) (*model.Book, int, error) {
	book, err := m.load(ctx, id)
	if err != nil {
		return nil, -1, err
	}
	idx := book.ContentIndex(contentID)
	if idx < 0 {
		return nil, -1, notFound("content", id, formatContentID(contentID))
	}
	return book, idx, nil
}

// save persists the book, then records its new state.
func (m *bookManager) save(ctx context.Context, book *model.Book, typ model.SnapshotType, actor model.Actor) error {
	if err := m.books.Save(ctx, book); err != nil {
		return storageErr("save book", err)
	}
	_, err := m.snapshots.Record(ctx, typ, book.ID, present(book), actor)
	return err
}

// remove purges the book's votes, deletes it and records its absence.
func (m *bookManager) remove(ctx context.Context, id string, actor model.Actor) error {
	n, err := m.votes.DeleteForEntity(ctx, model.EntityBook, id)
	if err != nil {
		return err
	}
	if err := m.books.Delete(ctx, id); err != nil {
		return storageErr("delete book", err)
	}
	if _, err := m.snapshots.Record(ctx, model.SnapshotDeleted, id, model.Absent[model.Book]{}, actor); err != nil {
		return err
	}
	m.logger.Debug("book removed", zap.String("book_id", id), zap.Int64("votes_purged", n))
	return nil
}

// nextContentID derives a content id from the clock, kept above every id
// already used in the book.
func (m *bookManager) nextContentID(book *model.Book) int64 {
	id := m.clock.now().UnixMilli()
	for _, c := range book.Contents {
		if c.ID >= id {
			id = c.ID + 1
		}
	}
	return id
}

func newContent(id int64, in model.BookContentCreate) model.BookContent {
	return model.BookContent{
		ID:        id,
		PageCount: in.PageCount,
		Language:  in.Language,
		IsColor:   in.IsColor,
		Sources:   slices.Clone(in.Sources),
	}
}

func validateContent(in model.BookContentCreate) error {
	if in.PageCount <= 0 {
		return badRequest("content must have at least one page")
	}
	if in.PageCount > model.MaxPageCount {
		return badRequest("content cannot have more than %d pages", model.MaxPageCount)
	}
	return nil
}

func present(book *model.Book) model.EntityState[model.Book] {
	return model.Present[model.Book]{Value: *book.Clone()}
}

// difference returns the elements of a that are not in b.
func difference(a, b []string) []string {
	keep := make(map[string]struct{}, len(b))
	for _, s := range b {
		keep[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := keep[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func startSpan(ctx context.Context, name, bookID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("book.id", bookID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
