package core

import "choreboard-backend-go/internal/models"

// ChatView is a chat message decorated with the derived presentation fields.
// Sequence flags group consecutive messages from the same sender; they are
// recomputed over the whole thread on every update.
type ChatView struct {
	models.ChatMessage
	IsFirstInSequence bool `json:"isFirstInSequence"`
	IsLastInSequence  bool `json:"isLastInSequence"`
	IsFromCurrentUser bool `json:"isFromCurrentUser"`
}

// DecorateMessages derives the sequence flags for a chronologically ordered
// thread in one linear pass. A message is first in its sequence when it is
// the first message or the previous sender differs, last when it is the last
// message or the next sender differs.
func DecorateMessages(msgs []models.ChatMessage, viewerID string) []ChatView {
	views := make([]ChatView, len(msgs))
	for i, m := range msgs {
		views[i] = ChatView{
			ChatMessage:       m,
			IsFirstInSequence: i == 0 || msgs[i-1].SenderID != m.SenderID,
			IsLastInSequence:  i == len(msgs)-1 || msgs[i+1].SenderID != m.SenderID,
			IsFromCurrentUser: m.SenderID == viewerID,
		}
	}
	return views
}
