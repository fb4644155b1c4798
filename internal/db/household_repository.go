package db

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/models"
	"choreboard-backend-go/internal/stream"
)

// HouseholdRepository binds to a household document and to its denormalized
// member subcollection. It serves two live queries, each with exactly one
// active subscription; re-reading a different household replaces both.
type HouseholdRepository struct {
	store  Store
	logger *zap.Logger

	mu            sync.Mutex
	gen           int
	householdSub  Handle
	membersSub    Handle

	household *stream.State[*models.Household]
	members   *stream.State[[]models.HouseholdMember]
	errs      *stream.Events[error]
}

// NewHouseholdRepository creates a HouseholdRepository on the given store.
func NewHouseholdRepository(store Store, logger *zap.Logger) *HouseholdRepository {
	return &HouseholdRepository{
		store:     store,
		logger:    logger,
		household: stream.NewState[*models.Household](nil),
		members:   stream.NewState[[]models.HouseholdMember](nil),
		errs:      stream.NewEvents[error](),
	}
}

// Household is the stateful stream of the subscribed household document.
func (r *HouseholdRepository) Household() *stream.State[*models.Household] { return r.household }

// Members is the stateful stream of the denormalized member list.
func (r *HouseholdRepository) Members() *stream.State[[]models.HouseholdMember] { return r.members }

// Errors is the repository's failure stream.
func (r *HouseholdRepository) Errors() *stream.Events[error] { return r.errs }

// ReadHousehold subscribes to households/{householdID} and to its member
// subcollection, replacing any previous subscriptions.
func (r *HouseholdRepository) ReadHousehold(householdID string) {
	gen := r.bump()
	docPath := HouseholdPath(householdID)
	memPath := MembersPath(householdID)

	householdSub := r.store.SubscribeDocument(context.Background(), docPath,
		func(doc Document, exists bool) {
			if !r.current(gen) {
				return
			}
			if !exists {
				r.household.Set(nil)
				return
			}
			h, err := models.DecodeHousehold(docPath, doc.ID, doc.Data)
			if err != nil {
				r.logger.Warn("household document failed to decode", zap.String("path", docPath), zap.Error(err))
				r.errs.Publish(err)
				return
			}
			r.household.Set(&h)
		},
		func(err error) {
			if r.current(gen) {
				r.errs.Publish(err)
			}
		})

	membersSub := r.store.SubscribeCollection(context.Background(),
		CollectionQuery{Path: memPath, OrderBy: "name", Ascending: true},
		func(docs []Document) {
			if !r.current(gen) {
				return
			}
			members := make([]models.HouseholdMember, 0, len(docs))
			for _, doc := range docs {
				m, err := models.DecodeHouseholdMember(memPath, doc.ID, doc.Data)
				if err != nil {
					r.errs.Publish(err)
					continue
				}
				members = append(members, m)
			}
			r.members.Set(members)
		},
		func(err error) {
			if r.current(gen) {
				r.errs.Publish(err)
			}
		})

	r.mu.Lock()
	if r.gen == gen {
		r.householdSub = householdSub
		r.membersSub = membersSub
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	householdSub.Cancel()
	membersSub.Cancel()
}

// Reset cancels both subscriptions and clears the cached state. Idempotent.
func (r *HouseholdRepository) Reset() {
	r.mu.Lock()
	r.gen++
	hs, ms := r.householdSub, r.membersSub
	r.householdSub, r.membersSub = nil, nil
	r.mu.Unlock()

	if hs != nil {
		hs.Cancel()
	}
	if ms != nil {
		ms.Cancel()
	}
	if r.household.Get() != nil {
		r.household.Set(nil)
	}
	if r.members.Get() != nil {
		r.members.Set(nil)
	}
}

// CreateHousehold writes a new household document and returns its id.
func (r *HouseholdRepository) CreateHousehold(ctx context.Context, h models.Household) (string, error) {
	id := h.ID
	if id == "" {
		id = r.store.NewID(HouseholdsCollection)
	}
	if err := r.store.SetDocument(ctx, HouseholdPath(id), h.Map()); err != nil {
		return "", err
	}
	return id, nil
}

// TagExists reports whether any household already uses the given tag. This is
// a plain existence check, not a transactional guard; a concurrent create
// with the same tag can still race.
func (r *HouseholdRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	docs, err := r.store.QueryEquals(ctx, HouseholdsCollection, "tag", tag)
	if err != nil {
		return false, fmt.Errorf("tag lookup: %w", err)
	}
	return len(docs) > 0, nil
}

// PutMember writes through the denormalized member projection.
func (r *HouseholdRepository) PutMember(ctx context.Context, householdID string, m models.HouseholdMember) error {
	if m.ID == "" {
		return fmt.Errorf("member id cannot be empty")
	}
	return r.store.SetDocument(ctx, MemberPath(householdID, m.ID), m.Map())
}

// RemoveMember deletes the denormalized member projection.
func (r *HouseholdRepository) RemoveMember(ctx context.Context, householdID, userID string) error {
	return r.store.DeleteDocument(ctx, MemberPath(householdID, userID))
}

// GetHousehold fetches a household once, outside any subscription.
func (r *HouseholdRepository) GetHousehold(ctx context.Context, householdID string) (models.Household, error) {
	doc, err := r.store.GetDocument(ctx, HouseholdPath(householdID))
	if err != nil {
		return models.Household{}, err
	}
	return models.DecodeHousehold(HouseholdsCollection, doc.ID, doc.Data)
}

func (r *HouseholdRepository) bump() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.householdSub != nil {
		r.householdSub.Cancel()
		r.householdSub = nil
	}
	if r.membersSub != nil {
		r.membersSub.Cancel()
		r.membersSub = nil
	}
	return r.gen
}

func (r *HouseholdRepository) current(gen int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen == gen
}
