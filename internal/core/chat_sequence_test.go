package core

import (
	"testing"
	"time"

	"choreboard-backend-go/internal/models"
)

func thread(senders ...string) []models.ChatMessage {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := make([]models.ChatMessage, len(senders))
	for i, s := range senders {
		msgs[i] = models.ChatMessage{
			ID:       string(rune('a' + i)),
			SenderID: s,
			SendDate: base.Add(time.Duration(i) * time.Minute),
			Type:     models.MessageNormal,
		}
	}
	return msgs
}

func TestDecorateMessagesSequencing(t *testing.T) {
	views := DecorateMessages(thread("A", "A", "B", "A"), "A")

	wantFirst := []bool{true, false, true, true}
	wantLast := []bool{false, true, true, true}
	for i, v := range views {
		if v.IsFirstInSequence != wantFirst[i] {
			t.Errorf("message %d: IsFirstInSequence = %v, want %v", i, v.IsFirstInSequence, wantFirst[i])
		}
		if v.IsLastInSequence != wantLast[i] {
			t.Errorf("message %d: IsLastInSequence = %v, want %v", i, v.IsLastInSequence, wantLast[i])
		}
	}
}

func TestDecorateMessagesFromCurrentUser(t *testing.T) {
	views := DecorateMessages(thread("A", "B"), "B")
	if views[0].IsFromCurrentUser || !views[1].IsFromCurrentUser {
		t.Errorf("viewer attribution wrong: %+v", views)
	}
}

func TestDecorateMessagesEdges(t *testing.T) {
	if got := DecorateMessages(nil, "A"); len(got) != 0 {
		t.Fatalf("empty thread should decorate to empty, got %d", len(got))
	}

	single := DecorateMessages(thread("A"), "B")
	if !single[0].IsFirstInSequence || !single[0].IsLastInSequence {
		t.Errorf("single message must be both first and last: %+v", single[0])
	}
}
