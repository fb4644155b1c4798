package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/db"
	"choreboard-backend-go/internal/models"
	"choreboard-backend-go/internal/stream"
)

// HouseholdService owns the household the signed-in user belongs to, its
// denormalized member list, and the invite flows. It observes UserService:
// whenever the profile's householdId appears or changes it re-points the
// household repository; when it disappears it resets it.
type HouseholdService struct {
	userID     string
	households *db.HouseholdRepository
	invites    *db.InviteRepository
	users      *db.UserRepository
	userSvc    *UserService
	inviteTTL  time.Duration
	now        func() time.Time
	logger     *zap.Logger

	state   *stream.State[*models.Household]
	members *stream.State[[]models.HouseholdMember]
	errs    *stream.Events[error]

	mu      sync.Mutex
	current string // household id currently bound, "" when none

	subs []*stream.Subscription
}

// NewHouseholdService wires the service into the cascade. inviteTTL bounds
// generated invite codes; now is injectable for expiry tests.
func NewHouseholdService(
	userID string,
	households *db.HouseholdRepository,
	invites *db.InviteRepository,
	users *db.UserRepository,
	userSvc *UserService,
	inviteTTL time.Duration,
	now func() time.Time,
	logger *zap.Logger,
) *HouseholdService {
	if now == nil {
		now = time.Now
	}
	s := &HouseholdService{
		userID:     userID,
		households: households,
		invites:    invites,
		users:      users,
		userSvc:    userSvc,
		inviteTTL:  inviteTTL,
		now:        now,
		logger:     logger,
		state:      stream.NewState[*models.Household](nil),
		members:    stream.NewState[[]models.HouseholdMember](nil),
		errs:       stream.NewEvents[error](),
	}

	s.subs = append(s.subs,
		userSvc.State().Subscribe(s.onUser),
		households.Household().Subscribe(func(h *models.Household) { s.state.Set(h) }),
		households.Members().Subscribe(func(m []models.HouseholdMember) { s.members.Set(m) }),
		households.Errors().Subscribe(func(err error) { s.errs.Publish(err) }),
	)
	return s
}

// onUser is the cascade trigger: a profile pointing at a household opens the
// household read; a profile without one tears it down.
func (s *HouseholdService) onUser(u *models.User) {
	householdID := ""
	if u != nil {
		householdID = u.HouseholdID
	}

	s.mu.Lock()
	if s.current == householdID {
		s.mu.Unlock()
		return
	}
	s.current = householdID
	s.mu.Unlock()

	if householdID == "" {
		s.households.Reset()
		return
	}
	s.logger.Debug("household cascade read", zap.String("household_id", householdID))
	s.households.ReadHousehold(householdID)
}

// State is the current household; nil while the user belongs to none.
func (s *HouseholdService) State() *stream.State[*models.Household] { return s.state }

// Members is the denormalized member list of the current household.
func (s *HouseholdService) Members() *stream.State[[]models.HouseholdMember] { return s.members }

// Errors is the service failure stream.
func (s *HouseholdService) Errors() *stream.Events[error] { return s.errs }

// HouseholdID returns the household the service is currently bound to.
func (s *HouseholdService) HouseholdID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CreateHousehold creates a household with a unique tag and moves the user
// into it. The tag check is an existence query issued before the write; a
// concurrent create with the same tag can still race.
func (s *HouseholdService) CreateHousehold(ctx context.Context, tag string) (string, error) {
	if tag == "" {
		return "", ErrTagRequired
	}
	profile := s.userSvc.State().Get()
	if profile == nil {
		return "", ErrNoProfile
	}
	if profile.HouseholdID != "" {
		return "", ErrAlreadyInHousehold
	}

	taken, err := s.households.TagExists(ctx, tag)
	if err != nil {
		s.errs.Publish(err)
		return "", err
	}
	if taken {
		return "", ErrTagTaken
	}

	id, err := s.households.CreateHousehold(ctx, models.Household{Tag: tag})
	if err != nil {
		s.errs.Publish(err)
		return "", err
	}
	if err := s.enroll(ctx, id, *profile); err != nil {
		return "", err
	}
	s.logger.Info("household created", zap.String("household_id", id), zap.String("tag", tag))
	return id, nil
}

// JoinWithCode resolves an invite code, rejecting unknown and expired codes,
// and moves the user into the referenced household.
func (s *HouseholdService) JoinWithCode(ctx context.Context, code string) error {
	invite, err := s.invites.GetInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrInviteNotFound
		}
		s.errs.Publish(err)
		return err
	}
	if invite.Expired(s.now()) {
		return ErrInviteExpired
	}
	return s.join(ctx, invite.HouseholdID)
}

// JoinWithInvitation resolves an email-keyed invitation, joins its household
// and consumes the invitation.
func (s *HouseholdService) JoinWithInvitation(ctx context.Context, email string) error {
	inv, err := s.invites.GetInvitation(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrInviteNotFound
		}
		s.errs.Publish(err)
		return err
	}
	if err := s.join(ctx, inv.HouseholdID); err != nil {
		return err
	}
	if err := s.invites.DeleteInvitation(ctx, email); err != nil {
		// The join already succeeded; a dangling invitation is harmless.
		s.logger.Warn("failed to consume invitation", zap.String("email", email), zap.Error(err))
	}
	return nil
}

// GenerateInviteCode issues a fresh code for the current household.
func (s *HouseholdService) GenerateInviteCode(ctx context.Context) (string, error) {
	householdID := s.HouseholdID()
	if householdID == "" {
		return "", ErrNoHousehold
	}
	code, err := db.NewCode(8)
	if err != nil {
		return "", err
	}
	invite := models.InviteCode{
		Code:           code,
		HouseholdID:    householdID,
		ExpirationTime: s.now().Add(s.inviteTTL),
	}
	if err := s.invites.CreateInviteCode(ctx, invite); err != nil {
		s.errs.Publish(err)
		return "", err
	}
	return code, nil
}

// InviteByEmail records an email-keyed invitation to the current household.
func (s *HouseholdService) InviteByEmail(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email", ErrNameRequired)
	}
	householdID := s.HouseholdID()
	if householdID == "" {
		return ErrNoHousehold
	}
	if err := s.invites.CreateInvitation(ctx, models.Invitation{Email: email, HouseholdID: householdID}); err != nil {
		s.errs.Publish(err)
		return err
	}
	return nil
}

// RegisterPushToken writes the member's Expo push token through to the
// denormalized member document.
func (s *HouseholdService) RegisterPushToken(ctx context.Context, token string) error {
	profile := s.userSvc.State().Get()
	if profile == nil {
		return ErrNoProfile
	}
	if profile.HouseholdID == "" {
		return ErrNoHousehold
	}
	member := models.HouseholdMember{
		ID:           profile.ID,
		Name:         profile.Name,
		ProfileColor: profile.ProfileColor,
		ExpoToken:    token,
	}
	if err := s.households.PutMember(ctx, profile.HouseholdID, member); err != nil {
		s.errs.Publish(err)
		return err
	}
	return nil
}

// Leave removes the user from the current household.
func (s *HouseholdService) Leave(ctx context.Context) error {
	profile := s.userSvc.State().Get()
	if profile == nil {
		return ErrNoProfile
	}
	if profile.HouseholdID == "" {
		return ErrNoHousehold
	}
	if err := s.households.RemoveMember(ctx, profile.HouseholdID, s.userID); err != nil {
		s.errs.Publish(err)
		return err
	}
	if err := s.users.SetHouseholdID(ctx, s.userID, ""); err != nil {
		s.errs.Publish(err)
		return err
	}
	return nil
}

// join points the profile at the household and writes the denormalized
// member copy. The household subscription follows through the cascade.
func (s *HouseholdService) join(ctx context.Context, householdID string) error {
	profile := s.userSvc.State().Get()
	if profile == nil {
		return ErrNoProfile
	}
	if profile.HouseholdID != "" {
		return ErrAlreadyInHousehold
	}
	return s.enroll(ctx, householdID, *profile)
}

func (s *HouseholdService) enroll(ctx context.Context, householdID string, profile models.User) error {
	if err := s.users.SetHouseholdID(ctx, s.userID, householdID); err != nil {
		s.errs.Publish(err)
		return err
	}
	member := models.HouseholdMember{
		ID:           profile.ID,
		Name:         profile.Name,
		ProfileColor: profile.ProfileColor,
	}
	if err := s.households.PutMember(ctx, householdID, member); err != nil {
		s.errs.Publish(err)
		return fmt.Errorf("member write-through: %w", err)
	}
	return nil
}

// Reset tears the household binding down and clears state.
func (s *HouseholdService) Reset() {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	s.households.Reset()
}

// Close resets the service and detaches it from all upstream streams.
func (s *HouseholdService) Close() {
	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.Reset()
}
