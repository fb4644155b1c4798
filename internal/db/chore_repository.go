package db

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/models"
	"choreboard-backend-go/internal/stream"
)

// ChoreRepository binds to the chore subcollection of one household and
// republishes decoded chores ordered by creation date. Documents that fail to
// decode are dropped from the emitted snapshot and reported on the error
// stream; the rest of the snapshot goes through.
type ChoreRepository struct {
	store  Store
	logger *zap.Logger

	mu     sync.Mutex
	gen    int
	handle Handle
	scope  string // household id currently subscribed, "" when none

	chores *stream.State[[]models.Chore]
	errs   *stream.Events[error]
}

// NewChoreRepository creates a ChoreRepository on the given store.
func NewChoreRepository(store Store, logger *zap.Logger) *ChoreRepository {
	return &ChoreRepository{
		store:  store,
		logger: logger,
		chores: stream.NewState[[]models.Chore](nil),
		errs:   stream.NewEvents[error](),
	}
}

// Chores is the stateful stream of the subscribed household's chores.
func (r *ChoreRepository) Chores() *stream.State[[]models.Chore] { return r.chores }

// Errors is the repository's failure stream.
func (r *ChoreRepository) Errors() *stream.Events[error] { return r.errs }

// ReadChores subscribes to households/{householdID}/chores, replacing any
// previous subscription.
func (r *ChoreRepository) ReadChores(householdID string) {
	gen := r.bump(householdID)
	path := ChoresPath(householdID)

	handle := r.store.SubscribeCollection(context.Background(),
		CollectionQuery{Path: path, OrderBy: "createdDate", Ascending: true},
		func(docs []Document) {
			if !r.current(gen) {
				return
			}
			chores := make([]models.Chore, 0, len(docs))
			for _, doc := range docs {
				c, err := models.DecodeChore(path, doc.ID, doc.Data)
				if err != nil {
					r.logger.Warn("chore document failed to decode",
						zap.String("path", path), zap.String("doc", doc.ID), zap.Error(err))
					r.errs.Publish(err)
					continue
				}
				chores = append(chores, c)
			}
			r.chores.Set(chores)
		},
		func(err error) {
			if r.current(gen) {
				r.errs.Publish(err)
			}
		})

	r.mu.Lock()
	if r.gen == gen {
		r.handle = handle
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	handle.Cancel()
}

// Reset cancels the open subscription and clears cached state. Idempotent.
func (r *ChoreRepository) Reset() {
	r.mu.Lock()
	r.gen++
	h := r.handle
	r.handle = nil
	r.scope = ""
	r.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
	if r.chores.Get() != nil {
		r.chores.Set(nil)
	}
}

// Scope returns the household id the repository is currently bound to.
func (r *ChoreRepository) Scope() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scope
}

// CreateChore writes a new chore document and returns its id.
func (r *ChoreRepository) CreateChore(ctx context.Context, householdID string, c models.Chore) (string, error) {
	id := c.ID
	if id == "" {
		id = r.store.NewID(ChoresPath(householdID))
	}
	if err := r.store.SetDocument(ctx, ChorePath(householdID, id), c.Map()); err != nil {
		return "", err
	}
	return id, nil
}

// SetAcceptor records who took the chore. Checked-then-written by the service
// layer; there is no transactional guard against a concurrent acceptance.
func (r *ChoreRepository) SetAcceptor(ctx context.Context, householdID, choreID, acceptorID string) error {
	return r.store.UpdateFields(ctx, ChorePath(householdID, choreID), map[string]interface{}{
		"acceptorId": acceptorID,
	})
}

// SetReadyForReview toggles the gate between "acceptor says done" and
// "requestor confirms".
func (r *ChoreRepository) SetReadyForReview(ctx context.Context, householdID, choreID string, ready bool) error {
	return r.store.UpdateFields(ctx, ChorePath(householdID, choreID), map[string]interface{}{
		"isReadyForReview": ready,
	})
}

// SetFinished stamps the chore's terminal finish date.
func (r *ChoreRepository) SetFinished(ctx context.Context, householdID, choreID string, finished time.Time) error {
	return r.store.UpdateFields(ctx, ChorePath(householdID, choreID), map[string]interface{}{
		"finishedDate": finished,
	})
}

// DeleteChore removes a chore (requestor withdrawal).
func (r *ChoreRepository) DeleteChore(ctx context.Context, householdID, choreID string) error {
	return r.store.DeleteDocument(ctx, ChorePath(householdID, choreID))
}

func (r *ChoreRepository) bump(scope string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.scope = scope
	if r.handle != nil {
		r.handle.Cancel()
		r.handle = nil
	}
	return r.gen
}

func (r *ChoreRepository) current(gen int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen == gen
}
