package models

import "time"

// MessageType tags a chat message's provenance: typed by a user, or emitted
// automatically when a chore is requested or accepted.
type MessageType string

const (
	MessageNormal  MessageType = "normal"
	MessageRequest MessageType = "request"
	MessageAccept  MessageType = "accept"
)

// ChatMessage is stored at
// households/{householdId}/chores/{choreId}/chatMessages/{messageId}.
// Sequence grouping and the is-from-current-user flag are derived at the
// service boundary, never stored.
type ChatMessage struct {
	ID        string      `json:"id" firestore:"-"`
	Message   string      `json:"message" firestore:"message"`
	SenderID  string      `json:"senderId" firestore:"senderId"`
	ImageURLs []string    `json:"imageUrls,omitempty" firestore:"imageUrls,omitempty"`
	SendDate  time.Time   `json:"sendDate" firestore:"sendDate"`
	Type      MessageType `json:"type" firestore:"type"`
}

// DecodeChatMessage builds a ChatMessage from a raw document map.
func DecodeChatMessage(path, id string, data map[string]interface{}) (ChatMessage, error) {
	sender, err := reqString(data, "senderId")
	if err != nil {
		return ChatMessage{}, decodeErr(path, id, "%v", err)
	}
	sent, err := reqTime(data, "sendDate")
	if err != nil {
		return ChatMessage{}, decodeErr(path, id, "%v", err)
	}
	typ := MessageType(optString(data, "type"))
	if typ == "" {
		typ = MessageNormal
	}
	return ChatMessage{
		ID:        id,
		Message:   optString(data, "message"),
		SenderID:  sender,
		ImageURLs: optStringSlice(data, "imageUrls"),
		SendDate:  sent,
		Type:      typ,
	}, nil
}

// Map returns the document representation written to the store.
func (m ChatMessage) Map() map[string]interface{} {
	out := map[string]interface{}{
		"message":  m.Message,
		"senderId": m.SenderID,
		"sendDate": m.SendDate,
		"type":     string(m.Type),
	}
	if len(m.ImageURLs) > 0 {
		out["imageUrls"] = m.ImageURLs
	}
	return out
}
