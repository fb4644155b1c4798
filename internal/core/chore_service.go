package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/blob"
	"choreboard-backend-go/internal/db"
	"choreboard-backend-go/internal/models"
	"choreboard-backend-go/internal/reward"
	"choreboard-backend-go/internal/stream"
)

// SelectedChore pins a chore alongside the household it was selected in, so
// downstream consumers never mix a chore id with a stale household scope.
type SelectedChore struct {
	HouseholdID string
	Chore       models.Chore
}

// systemMessenger posts machine-generated chat messages into a chore thread.
// ChoreService receives one after construction; the chat service provides it.
type systemMessenger interface {
	PostSystem(ctx context.Context, householdID, choreID string, typ models.MessageType, text string) error
}

// ChoreService owns the chore list of the current household and the chore
// selection. It observes HouseholdService: a new household re-points the
// chore repository, losing the household tears it down and clears the
// selection.
type ChoreService struct {
	userID       string
	chores       *db.ChoreRepository
	householdSvc *HouseholdService
	images       blob.Store
	ledger       reward.Ledger
	notifier     Notifier
	now          func() time.Time
	logger       *zap.Logger

	state    *stream.State[[]models.Chore]
	selected *stream.State[*SelectedChore]
	errs     *stream.Events[error]

	mu        sync.Mutex
	current   string // household id currently bound
	messenger systemMessenger

	subs []*stream.Subscription
}

// Notifier sends a push notification to a set of device tokens.
type Notifier interface {
	Push(tokens []string, title, body string, data map[string]string)
}

func NewChoreService(
	userID string,
	chores *db.ChoreRepository,
	householdSvc *HouseholdService,
	images blob.Store,
	ledger reward.Ledger,
	notifier Notifier,
	now func() time.Time,
	logger *zap.Logger,
) *ChoreService {
	if now == nil {
		now = time.Now
	}
	s := &ChoreService{
		userID:       userID,
		chores:       chores,
		householdSvc: householdSvc,
		images:       images,
		ledger:       ledger,
		notifier:     notifier,
		now:          now,
		logger:       logger,
		state:        stream.NewState[[]models.Chore](nil),
		selected:     stream.NewState[*SelectedChore](nil),
		errs:         stream.NewEvents[error](),
	}

	s.subs = append(s.subs,
		householdSvc.State().Subscribe(s.onHousehold),
		chores.Chores().Subscribe(s.onChores),
		chores.Errors().Subscribe(func(err error) { s.errs.Publish(err) }),
	)
	return s
}

// AttachMessenger wires the chat service in after construction. Chore and
// chat services reference each other, so one side has to be set late.
func (s *ChoreService) AttachMessenger(m systemMessenger) {
	s.mu.Lock()
	s.messenger = m
	s.mu.Unlock()
}

func (s *ChoreService) onHousehold(h *models.Household) {
	householdID := ""
	if h != nil {
		householdID = h.ID
	}

	s.mu.Lock()
	if s.current == householdID {
		s.mu.Unlock()
		return
	}
	s.current = householdID
	s.mu.Unlock()

	s.selected.Set(nil)
	if householdID == "" {
		s.chores.Reset()
		return
	}
	s.chores.ReadChores(householdID)
}

// onChores mirrors the repository list and keeps the selection consistent
// with it: a selected chore that changed is refreshed, one that disappeared
// is deselected.
func (s *ChoreService) onChores(chores []models.Chore) {
	s.state.Set(chores)

	sel := s.selected.Get()
	if sel == nil {
		return
	}
	for _, c := range chores {
		if c.ID == sel.Chore.ID {
			if !choreEqual(c, sel.Chore) {
				s.selected.Set(&SelectedChore{HouseholdID: sel.HouseholdID, Chore: c})
			}
			return
		}
	}
	s.selected.Set(nil)
}

// State is the live chore list of the current household.
func (s *ChoreService) State() *stream.State[[]models.Chore] { return s.state }

// Selected is the currently selected chore; nil when none is selected.
func (s *ChoreService) Selected() *stream.State[*SelectedChore] { return s.selected }

// Errors is the service failure stream.
func (s *ChoreService) Errors() *stream.Events[error] { return s.errs }

// Views derives the per-viewer presentation of the current chore list.
func (s *ChoreService) Views() []ChoreView {
	return ViewsOf(s.state.Get(), s.userID)
}

// Select marks the chore with the given id as selected. Selecting an unknown
// id returns ErrChoreNotFound and leaves the selection untouched.
func (s *ChoreService) Select(choreID string) error {
	householdID := s.householdSvc.HouseholdID()
	if householdID == "" {
		return ErrNoHousehold
	}
	for _, c := range s.state.Get() {
		if c.ID == choreID {
			s.selected.Set(&SelectedChore{HouseholdID: householdID, Chore: c})
			return nil
		}
	}
	return ErrChoreNotFound
}

// Deselect clears the selection.
func (s *ChoreService) Deselect() {
	s.selected.Set(nil)
}

// CreateChore uploads the attached images, writes the chore with the caller
// as requestor, and posts the request message into the chore's thread.
func (s *ChoreService) CreateChore(ctx context.Context, name, description string, rewardAmount float64, images [][]byte) (string, error) {
	if name == "" {
		return "", ErrNameRequired
	}
	householdID := s.householdSvc.HouseholdID()
	if householdID == "" {
		return "", ErrNoHousehold
	}

	urls, err := blob.UploadAll(ctx, s.images, images)
	if err != nil {
		s.errs.Publish(err)
		return "", err
	}

	chore := models.Chore{
		Name:         name,
		Description:  description,
		RewardAmount: rewardAmount,
		ImageURLs:    urls,
		RequestorID:  s.userID,
		CreatedDate:  s.now(),
	}
	id, err := s.chores.CreateChore(ctx, householdID, chore)
	if err != nil {
		s.errs.Publish(err)
		return "", err
	}
	s.postSystem(ctx, householdID, id, models.MessageRequest, name)
	s.logger.Info("chore created", zap.String("chore_id", id), zap.String("household_id", householdID))
	return id, nil
}

// Accept claims an open chore for the caller. The openness check reads the
// mirrored list; a concurrent acceptance can still win the write.
func (s *ChoreService) Accept(ctx context.Context, choreID string) error {
	householdID := s.householdSvc.HouseholdID()
	if householdID == "" {
		return ErrNoHousehold
	}
	chore, ok := s.find(choreID)
	if !ok {
		return ErrChoreNotFound
	}
	if StateOf(chore).Kind != ChoreOpen {
		return ErrChoreNotOpen
	}
	if chore.RequestorID == s.userID {
		return ErrOwnChore
	}
	if err := s.chores.SetAcceptor(ctx, householdID, choreID, s.userID); err != nil {
		s.errs.Publish(err)
		return err
	}
	s.postSystem(ctx, householdID, choreID, models.MessageAccept, chore.Name)
	return nil
}

// MarkReady flags an accepted chore as awaiting the requestor's review and
// pushes a notification to the requestor's devices.
func (s *ChoreService) MarkReady(ctx context.Context, choreID string) error {
	householdID := s.householdSvc.HouseholdID()
	if householdID == "" {
		return ErrNoHousehold
	}
	chore, ok := s.find(choreID)
	if !ok {
		return ErrChoreNotFound
	}
	if chore.AcceptorID != s.userID {
		return ErrNotAcceptor
	}
	if StateOf(chore).Kind != ChoreAccepted {
		return ErrChoreNotOpen
	}
	if err := s.chores.SetReadyForReview(ctx, householdID, choreID, true); err != nil {
		s.errs.Publish(err)
		return err
	}
	s.notifyMembers(chore.RequestorID, "Ready for review", chore.Name, map[string]string{"choreId": choreID})
	return nil
}

// Approve finishes a chore that is ready for review and credits the reward.
// The credit is fire-and-forget: a ledger failure is logged, never surfaced
// to the approver, and the chore stays finished.
func (s *ChoreService) Approve(ctx context.Context, choreID string) error {
	householdID := s.householdSvc.HouseholdID()
	if householdID == "" {
		return ErrNoHousehold
	}
	chore, ok := s.find(choreID)
	if !ok {
		return ErrChoreNotFound
	}
	if chore.RequestorID != s.userID {
		return ErrNotRequestor
	}
	if StateOf(chore).Kind != ChoreReadyForReview {
		return ErrNotReadyForReview
	}
	if err := s.chores.SetFinished(ctx, householdID, choreID, s.now()); err != nil {
		s.errs.Publish(err)
		return err
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.ledger.Credit(ctx, householdID, choreID); err != nil {
			s.logger.Error("reward credit failed",
				zap.String("chore_id", choreID),
				zap.String("household_id", householdID),
				zap.Error(err))
		}
	}()
	s.notifyMembers(chore.AcceptorID, "Chore approved", chore.Name, map[string]string{"choreId": choreID})
	return nil
}

// Deny sends a chore that is ready for review back to the acceptor.
func (s *ChoreService) Deny(ctx context.Context, choreID string) error {
	householdID := s.householdSvc.HouseholdID()
	if householdID == "" {
		return ErrNoHousehold
	}
	chore, ok := s.find(choreID)
	if !ok {
		return ErrChoreNotFound
	}
	if chore.RequestorID != s.userID {
		return ErrNotRequestor
	}
	if StateOf(chore).Kind != ChoreReadyForReview {
		return ErrNotReadyForReview
	}
	if err := s.chores.SetReadyForReview(ctx, householdID, choreID, false); err != nil {
		s.errs.Publish(err)
		return err
	}
	s.notifyMembers(chore.AcceptorID, "Needs another look", chore.Name, map[string]string{"choreId": choreID})
	return nil
}

// Withdraw deletes an open chore the caller requested.
func (s *ChoreService) Withdraw(ctx context.Context, choreID string) error {
	householdID := s.householdSvc.HouseholdID()
	if householdID == "" {
		return ErrNoHousehold
	}
	chore, ok := s.find(choreID)
	if !ok {
		return ErrChoreNotFound
	}
	if chore.RequestorID != s.userID {
		return ErrNotRequestor
	}
	if StateOf(chore).Kind != ChoreOpen {
		return ErrChoreNotOpen
	}
	if err := s.chores.DeleteChore(ctx, householdID, choreID); err != nil {
		s.errs.Publish(err)
		return err
	}
	return nil
}

func (s *ChoreService) find(choreID string) (models.Chore, bool) {
	for _, c := range s.state.Get() {
		if c.ID == choreID {
			return c, true
		}
	}
	return models.Chore{}, false
}

func (s *ChoreService) postSystem(ctx context.Context, householdID, choreID string, typ models.MessageType, text string) {
	s.mu.Lock()
	m := s.messenger
	s.mu.Unlock()
	if m == nil {
		return
	}
	if err := m.PostSystem(ctx, householdID, choreID, typ, text); err != nil {
		// The chore write already landed; a missing system message is cosmetic.
		s.logger.Warn("system message not posted", zap.String("chore_id", choreID), zap.Error(err))
	}
}

// notifyMembers pushes to the devices of a single member, looked up by id in
// the denormalized member list.
func (s *ChoreService) notifyMembers(memberID, title, body string, data map[string]string) {
	if memberID == "" {
		return
	}
	for _, m := range s.householdSvc.Members().Get() {
		if m.ID == memberID && m.ExpoToken != "" {
			s.notifier.Push([]string{m.ExpoToken}, title, body, data)
			return
		}
	}
}

// Reset tears the chore binding down and clears list and selection.
func (s *ChoreService) Reset() {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	s.selected.Set(nil)
	s.chores.Reset()
}

// Close resets the service and detaches it from all upstream streams.
func (s *ChoreService) Close() {
	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.Reset()
}

func choreEqual(a, b models.Chore) bool {
	if a.ID != b.ID || a.Name != b.Name || a.Description != b.Description ||
		a.RewardAmount != b.RewardAmount || a.RequestorID != b.RequestorID ||
		a.AcceptorID != b.AcceptorID || a.IsReadyForReview != b.IsReadyForReview ||
		!a.CreatedDate.Equal(b.CreatedDate) {
		return false
	}
	if (a.FinishedDate == nil) != (b.FinishedDate == nil) {
		return false
	}
	if a.FinishedDate != nil && !a.FinishedDate.Equal(*b.FinishedDate) {
		return false
	}
	if len(a.ImageURLs) != len(b.ImageURLs) {
		return false
	}
	for i := range a.ImageURLs {
		if a.ImageURLs[i] != b.ImageURLs[i] {
			return false
		}
	}
	return true
}
