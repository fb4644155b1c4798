package db

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/models"
	"choreboard-backend-go/internal/stream"
)

// ChatMessageRepository binds to the chat subcollection of one chore and
// republishes decoded messages in chronological order.
type ChatMessageRepository struct {
	store  Store
	logger *zap.Logger

	mu     sync.Mutex
	gen    int
	handle Handle

	messages *stream.State[[]models.ChatMessage]
	errs     *stream.Events[error]
}

// NewChatMessageRepository creates a ChatMessageRepository on the given store.
func NewChatMessageRepository(store Store, logger *zap.Logger) *ChatMessageRepository {
	return &ChatMessageRepository{
		store:    store,
		logger:   logger,
		messages: stream.NewState[[]models.ChatMessage](nil),
		errs:     stream.NewEvents[error](),
	}
}

// Messages is the stateful stream of the subscribed chore's chat thread.
func (r *ChatMessageRepository) Messages() *stream.State[[]models.ChatMessage] { return r.messages }

// Errors is the repository's failure stream.
func (r *ChatMessageRepository) Errors() *stream.Events[error] { return r.errs }

// ReadMessages subscribes to the chat thread of one chore, replacing any
// previous subscription.
func (r *ChatMessageRepository) ReadMessages(householdID, choreID string) {
	gen := r.bump()
	path := ChatMessagesPath(householdID, choreID)

	handle := r.store.SubscribeCollection(context.Background(),
		CollectionQuery{Path: path, OrderBy: "sendDate", Ascending: true},
		func(docs []Document) {
			if !r.current(gen) {
				return
			}
			msgs := make([]models.ChatMessage, 0, len(docs))
			for _, doc := range docs {
				m, err := models.DecodeChatMessage(path, doc.ID, doc.Data)
				if err != nil {
					r.logger.Warn("chat message failed to decode",
						zap.String("path", path), zap.String("doc", doc.ID), zap.Error(err))
					r.errs.Publish(err)
					continue
				}
				msgs = append(msgs, m)
			}
			r.messages.Set(msgs)
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
func (r *ChatMessageRepository) Reset() {
	r.mu.Lock()
	r.gen++
	h := r.handle
	r.handle = nil
	r.mu.Unlock()

	if h != nil {
		h.Cancel()
	}
	if r.messages.Get() != nil {
		r.messages.Set(nil)
	}
}

// CreateMessage appends a message to a chore's chat thread and returns its id.
func (r *ChatMessageRepository) CreateMessage(ctx context.Context, householdID, choreID string, m models.ChatMessage) (string, error) {
	id := m.ID
	if id == "" {
		id = r.store.NewID(ChatMessagesPath(householdID, choreID))
	}
	if err := r.store.SetDocument(ctx, ChatMessagePath(householdID, choreID, id), m.Map()); err != nil {
		return "", err
	}
	return id, nil
}

func (r *ChatMessageRepository) bump() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.handle != nil {
		r.handle.Cancel()
		r.handle = nil
	}
	return r.gen
}

func (r *ChatMessageRepository) current(gen int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen == gen
}
