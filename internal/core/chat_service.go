package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/blob"
	"choreboard-backend-go/internal/db"
	"choreboard-backend-go/internal/models"
	"choreboard-backend-go/internal/stream"
)

// ChatMessageService owns the message thread of the selected chore. It
// observes ChoreService's selection: a new selection re-points the message
// repository, a cleared selection resets it.
type ChatMessageService struct {
	userID       string
	messages     *db.ChatMessageRepository
	choreSvc     *ChoreService
	householdSvc *HouseholdService
	images       blob.Store
	notifier     Notifier
	now          func() time.Time
	logger       *zap.Logger

	state *stream.State[[]ChatView]
	errs  *stream.Events[error]

	mu      sync.Mutex
	scope   SelectedChore // zero value when no chore is selected
	bound   bool
	subs    []*stream.Subscription
}

func NewChatMessageService(
	userID string,
	messages *db.ChatMessageRepository,
	choreSvc *ChoreService,
	householdSvc *HouseholdService,
	images blob.Store,
	notifier Notifier,
	now func() time.Time,
	logger *zap.Logger,
) *ChatMessageService {
	if now == nil {
		now = time.Now
	}
	s := &ChatMessageService{
		userID:       userID,
		messages:     messages,
		choreSvc:     choreSvc,
		householdSvc: householdSvc,
		images:       images,
		notifier:     notifier,
		now:          now,
		logger:       logger,
		state:        stream.NewState[[]ChatView](nil),
		errs:         stream.NewEvents[error](),
	}

	s.subs = append(s.subs,
		choreSvc.Selected().Subscribe(s.onSelected),
		messages.Messages().Subscribe(func(msgs []models.ChatMessage) {
			if msgs == nil {
				s.state.Set(nil)
				return
			}
			s.state.Set(DecorateMessages(msgs, s.userID))
		}),
		messages.Errors().Subscribe(func(err error) { s.errs.Publish(err) }),
	)
	return s
}

func (s *ChatMessageService) onSelected(sel *SelectedChore) {
	s.mu.Lock()
	if sel == nil {
		if !s.bound {
			s.mu.Unlock()
			return
		}
		s.bound = false
		s.scope = SelectedChore{}
		s.mu.Unlock()
		s.messages.Reset()
		return
	}
	// A refreshed selection of the same chore keeps the live query.
	if s.bound && s.scope.HouseholdID == sel.HouseholdID && s.scope.Chore.ID == sel.Chore.ID {
		s.scope = *sel
		s.mu.Unlock()
		return
	}
	s.bound = true
	s.scope = *sel
	s.mu.Unlock()
	s.messages.ReadMessages(sel.HouseholdID, sel.Chore.ID)
}

// State is the decorated message thread of the selected chore.
func (s *ChatMessageService) State() *stream.State[[]ChatView] { return s.state }

// Errors is the service failure stream.
func (s *ChatMessageService) Errors() *stream.Events[error] { return s.errs }

// Send posts a message from the caller into the selected chore's thread and
// pushes a notification to every other member with a registered device.
func (s *ChatMessageService) Send(ctx context.Context, text string, images [][]byte) error {
	s.mu.Lock()
	bound, scope := s.bound, s.scope
	s.mu.Unlock()
	if !bound {
		return ErrNoChoreSelected
	}
	if text == "" && len(images) == 0 {
		return ErrEmptyMessage
	}

	urls, err := blob.UploadAll(ctx, s.images, images)
	if err != nil {
		s.errs.Publish(err)
		return err
	}

	msg := models.ChatMessage{
		Message:   text,
		SenderID:  s.userID,
		ImageURLs: urls,
		SendDate:  s.now(),
		Type:      models.MessageNormal,
	}
	if _, err := s.messages.CreateMessage(ctx, scope.HouseholdID, scope.Chore.ID, msg); err != nil {
		s.errs.Publish(err)
		return err
	}
	s.notifyOthers(scope.Chore.Name, text)
	return nil
}

// PostSystem writes a machine-generated message into an arbitrary chore's
// thread. System messages carry no sender attribution in push traffic and do
// not require the chore to be selected.
func (s *ChatMessageService) PostSystem(ctx context.Context, householdID, choreID string, typ models.MessageType, text string) error {
	msg := models.ChatMessage{
		Message:  text,
		SenderID: s.userID,
		SendDate: s.now(),
		Type:     typ,
	}
	if _, err := s.messages.CreateMessage(ctx, householdID, choreID, msg); err != nil {
		s.errs.Publish(err)
		return err
	}
	return nil
}

// notifyOthers pushes to every member except the sender.
func (s *ChatMessageService) notifyOthers(choreName, text string) {
	var tokens []string
	for _, m := range s.householdSvc.Members().Get() {
		if m.ID == s.userID || m.ExpoToken == "" {
			continue
		}
		tokens = append(tokens, m.ExpoToken)
	}
	if len(tokens) == 0 {
		return
	}
	body := text
	if body == "" {
		body = "Sent a photo"
	}
	s.notifier.Push(tokens, choreName, body, nil)
}

// Reset tears the thread binding down and clears state.
func (s *ChatMessageService) Reset() {
	s.mu.Lock()
	s.bound = false
	s.scope = SelectedChore{}
	s.mu.Unlock()
	s.messages.Reset()
}

// Close resets the service and detaches it from all upstream streams.
func (s *ChatMessageService) Close() {
	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.Reset()
}
