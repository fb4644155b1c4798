package core

import (
	"time"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/blob"
	"choreboard-backend-go/internal/db"
	"choreboard-backend-go/internal/reward"
)

// SessionDeps carries the process-wide dependencies a session composes over.
type SessionDeps struct {
	Store     db.Store
	Blob      blob.Store
	Ledger    reward.Ledger
	Notifier  Notifier
	Logger    *zap.Logger
	InviteTTL time.Duration
	Now       func() time.Time
}

// Session is the per-user object graph: one repository and one service per
// entity, wired so that state cascades from the profile outward. Sessions are
// created on first authenticated request and torn down on sign-out.
type Session struct {
	UserID string

	Users      *UserService
	Households *HouseholdService
	Chores     *ChoreService
	Messages   *ChatMessageService

	userRepo      *db.UserRepository
	householdRepo *db.HouseholdRepository
	choreRepo     *db.ChoreRepository
	messageRepo   *db.ChatMessageRepository
	inviteRepo    *db.InviteRepository
}

// NewSession builds the full graph for one user. Construction order follows
// the cascade: repositories first, then services from the profile downward.
// The chore/chat cycle is closed with a late messenger attachment.
func NewSession(userID string, deps SessionDeps) *Session {
	logger := deps.Logger.With(zap.String("uid", userID))

	userRepo := db.NewUserRepository(deps.Store, logger)
	householdRepo := db.NewHouseholdRepository(deps.Store, logger)
	choreRepo := db.NewChoreRepository(deps.Store, logger)
	messageRepo := db.NewChatMessageRepository(deps.Store, logger)
	inviteRepo := db.NewInviteRepository(deps.Store, logger)

	users := NewUserService(userID, userRepo, householdRepo, logger)
	households := NewHouseholdService(userID, householdRepo, inviteRepo, userRepo, users, deps.InviteTTL, deps.Now, logger)
	chores := NewChoreService(userID, choreRepo, households, deps.Blob, deps.Ledger, deps.Notifier, deps.Now, logger)
	messages := NewChatMessageService(userID, messageRepo, chores, households, deps.Blob, deps.Notifier, deps.Now, logger)
	chores.AttachMessenger(messages)

	return &Session{
		UserID:        userID,
		Users:         users,
		Households:    households,
		Chores:        chores,
		Messages:      messages,
		userRepo:      userRepo,
		householdRepo: householdRepo,
		choreRepo:     choreRepo,
		messageRepo:   messageRepo,
		inviteRepo:    inviteRepo,
	}
}

// Start opens the profile subscription. Everything downstream follows from
// the profile snapshot through the cascade.
func (s *Session) Start() {
	s.Users.Start()
}

// Invites exposes the invite repository for handlers that need direct reads.
func (s *Session) Invites() *db.InviteRepository { return s.inviteRepo }

// Close tears the session down in dependency order: the profile first, so
// nothing re-triggers a downstream read while the outer layers reset, then
// household, chores, and finally the message thread.
func (s *Session) Close() {
	s.Users.Close()
	s.Households.Close()
	s.Chores.Close()
	s.Messages.Close()
}
