package db

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/models"
	"choreboard-backend-go/internal/stream"
)

// UserRepository binds to the global profile document at users/{userId} and
// republishes it as a stateful stream. At most one subscription is active at
// a time; ReadUser with a new scope cancels the previous one. A generation
// counter guards against snapshots delivered after cancellation.
type UserRepository struct {
	store  Store
	logger *zap.Logger

	mu     sync.Mutex
	gen    int
	handle Handle

	user *stream.State[*models.User]
	errs *stream.Events[error]
}

// NewUserRepository creates a UserRepository on the given store.
func NewUserRepository(store Store, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		store:  store,
		logger: logger,
		user:   stream.NewState[*models.User](nil),
		errs:   stream.NewEvents[error](),
	}
}

// User is the stateful stream of the subscribed profile; nil while no
// subscription is active or the document is absent.
func (r *UserRepository) User() *stream.State[*models.User] { return r.user }

// Errors is the repository's failure stream.
func (r *UserRepository) Errors() *stream.Events[error] { return r.errs }

// ReadUser opens a live subscription on users/{userID}, replacing any
// previous subscription.
func (r *UserRepository) ReadUser(userID string) {
	gen := r.bump()
	path := UserPath(userID)

	handle := r.store.SubscribeDocument(context.Background(), path,
		func(doc Document, exists bool) {
			if !r.current(gen) {
				return
			}
			if !exists {
				r.user.Set(nil)
				return
			}
			u, err := models.DecodeUser(path, doc.ID, doc.Data)
			if err != nil {
				r.logger.Warn("user document failed to decode", zap.String("path", path), zap.Error(err))
				r.errs.Publish(err)
				return
			}
			r.user.Set(&u)
		},
		func(err error) {
			if r.current(gen) {
				r.errs.Publish(err)
			}
		})

	r.adopt(gen, handle)
}

// Reset cancels the open subscription and clears the cached state. Calling
// it again is a no-op.
func (r *UserRepository) Reset() {
	r.mu.Lock()
	r.gen++
	h := r.handle
	r.handle = nil
	r.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
	if r.user.Get() != nil {
		r.user.Set(nil)
	}
}

// CreateUser writes a new profile document keyed by the auth subject id.
func (r *UserRepository) CreateUser(ctx context.Context, u models.User) error {
	if u.ID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	return r.store.SetDocument(ctx, UserPath(u.ID), u.Map())
}

// SetHouseholdID points the profile at a household; an empty id detaches it.
func (r *UserRepository) SetHouseholdID(ctx context.Context, userID, householdID string) error {
	return r.store.UpdateFields(ctx, UserPath(userID), map[string]interface{}{
		"householdId": householdID,
	})
}

// UpdateProfile rewrites the mutable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID, name, profileColor string) error {
	return r.store.UpdateFields(ctx, UserPath(userID), map[string]interface{}{
		"name":         name,
		"profileColor": profileColor,
	})
}

// GetUser fetches the profile once, outside any subscription.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (models.User, error) {
	doc, err := r.store.GetDocument(ctx, UserPath(userID))
	if err != nil {
		return models.User{}, err
	}
	return models.DecodeUser(UsersCollection, doc.ID, doc.Data)
}

func (r *UserRepository) bump() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.handle != nil {
		r.handle.Cancel()
		r.handle = nil
	}
	return r.gen
}

func (r *UserRepository) current(gen int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen == gen
}

func (r *UserRepository) adopt(gen int, h Handle) {
	r.mu.Lock()
	if r.gen == gen {
		r.handle = h
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	// A newer read or reset raced ahead; this subscription is already stale.
	h.Cancel()
}
