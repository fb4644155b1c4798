package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/db"
	"choreboard-backend-go/internal/models"
	"choreboard-backend-go/internal/stream"
)

// UserService owns the signed-in user's global profile. It is the root of the
// service cascade: HouseholdService reacts to its state stream.
type UserService struct {
	userID     string
	users      *db.UserRepository
	households *db.HouseholdRepository
	logger     *zap.Logger

	state *stream.State[*models.User]
	errs  *stream.Events[error]

	repoSub *stream.Subscription
	errSub  *stream.Subscription
}

// NewUserService creates the service for one signed-in user. The household
// repository is used only to keep the denormalized member copy in sync with
// profile edits.
func NewUserService(userID string, users *db.UserRepository, households *db.HouseholdRepository, logger *zap.Logger) *UserService {
	s := &UserService{
		userID:     userID,
		users:      users,
		households: households,
		logger:     logger,
		state:      stream.NewState[*models.User](nil),
		errs:       stream.NewEvents[error](),
	}
	s.repoSub = users.User().Subscribe(func(u *models.User) { s.state.Set(u) })
	s.errSub = users.Errors().Subscribe(func(err error) { s.errs.Publish(err) })
	return s
}

// State is the current profile; nil before the first snapshot and after
// reset.
func (s *UserService) State() *stream.State[*models.User] { return s.state }

// Errors is the service failure stream.
func (s *UserService) Errors() *stream.Events[error] { return s.errs }

// Start opens the live profile subscription and with it the whole cascade.
func (s *UserService) Start() {
	s.users.ReadUser(s.userID)
}

// EnsureProfile creates the profile document on first sign-in. An existing
// profile is left untouched.
func (s *UserService) EnsureProfile(ctx context.Context, name string, role models.Role, profileColor string) (created bool, err error) {
	_, err = s.users.GetUser(ctx, s.userID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		s.errs.Publish(err)
		return false, fmt.Errorf("profile lookup: %w", err)
	}

	if name == "" {
		return false, ErrNameRequired
	}
	if role == "" {
		role = models.RoleParent
	}
	u := models.User{ID: s.userID, Name: name, Role: role, ProfileColor: profileColor}
	if err := s.users.CreateUser(ctx, u); err != nil {
		s.errs.Publish(err)
		return false, err
	}
	s.logger.Info("user profile created", zap.String("user_id", s.userID))
	return true, nil
}

// UpdateProfile rewrites the mutable profile fields and writes through the
// denormalized member copy when the user belongs to a household.
func (s *UserService) UpdateProfile(ctx context.Context, name, profileColor string) error {
	if name == "" {
		return ErrNameRequired
	}
	if err := s.users.UpdateProfile(ctx, s.userID, name, profileColor); err != nil {
		s.errs.Publish(err)
		return err
	}

	u := s.state.Get()
	if u == nil || u.HouseholdID == "" {
		return nil
	}
	member := models.HouseholdMember{ID: s.userID, Name: name, ProfileColor: profileColor}
	if err := s.households.PutMember(ctx, u.HouseholdID, member); err != nil {
		s.errs.Publish(err)
		return fmt.Errorf("member write-through: %w", err)
	}
	return nil
}

// Reset cancels the profile subscription and clears state.
func (s *UserService) Reset() {
	s.users.Reset()
}

// Close resets the service and detaches it from its repository streams.
func (s *UserService) Close() {
	s.Reset()
	s.repoSub.Cancel()
	s.errSub.Cancel()
}
