package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/models"
)

func seedUser(s *MemoryStore, id, name, householdID string) {
	data := map[string]interface{}{"name": name, "role": "parent"}
	if householdID != "" {
		data["householdId"] = householdID
	}
	s.Seed(UserPath(id), data)
}

func seedChore(s *MemoryStore, householdID, id, name, requestorID string, created time.Time) {
	s.Seed(ChorePath(householdID, id), map[string]interface{}{
		"name":             name,
		"requestorId":      requestorID,
		"createdDate":      created,
		"rewardAmount":     float64(5),
		"isReadyForReview": false,
	})
}

func TestUserRepositoryReadPublishesSnapshot(t *testing.T) {
	store := NewMemoryStore()
	seedUser(store, "u1", "Alice", "h1")

	repo := NewUserRepository(store, zap.NewNop())
	repo.ReadUser("u1")

	u := repo.User().Get()
	if u == nil || u.ID != "u1" || u.Name != "Alice" || u.HouseholdID != "h1" {
		t.Fatalf("unexpected user state: %+v", u)
	}

	// A live update must flow through.
	if err := repo.SetHouseholdID(context.Background(), "u1", "h2"); err != nil {
		t.Fatalf("SetHouseholdID: %v", err)
	}
	if got := repo.User().Get().HouseholdID; got != "h2" {
		t.Fatalf("expected live update to h2, got %q", got)
	}
}

func TestUserRepositorySingleSubscription(t *testing.T) {
	store := NewMemoryStore()
	seedUser(store, "a", "Alice", "")
	seedUser(store, "b", "Bob", "")

	repo := NewUserRepository(store, zap.NewNop())
	repo.ReadUser("a")
	repo.ReadUser("b")

	if got := repo.User().Get(); got == nil || got.ID != "b" {
		t.Fatalf("expected state bound to b, got %+v", got)
	}

	// Writes to the abandoned scope must not reach consumers.
	if err := repo.UpdateProfile(context.Background(), "a", "Alice II", "red"); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got := repo.User().Get(); got.ID != "b" || got.Name != "Bob" {
		t.Fatalf("emission from canceled subscription leaked: %+v", got)
	}
}

func TestUserRepositoryResetIdempotent(t *testing.T) {
	store := NewMemoryStore()
	seedUser(store, "u1", "Alice", "")

	repo := NewUserRepository(store, zap.NewNop())
	repo.ReadUser("u1")

	emissions := 0
	sub := repo.User().Subscribe(func(*models.User) { emissions++ })
	defer sub.Cancel()
	emissions = 0 // ignore the replay

	repo.Reset()
	if repo.User().Get() != nil {
		t.Fatal("state not cleared by reset")
	}
	if emissions != 1 {
		t.Fatalf("expected exactly one nil emission, got %d", emissions)
	}

	repo.Reset()
	if emissions != 1 {
		t.Fatalf("second reset must not emit, got %d emissions", emissions)
	}

	// A subscription canceled by reset must not deliver stale snapshots.
	if err := repo.UpdateProfile(context.Background(), "u1", "Alice II", ""); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if repo.User().Get() != nil {
		t.Fatal("snapshot delivered after reset")
	}
}

func TestChoreRepositoryDecodeResilience(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"c1", "c2", "c3", "c4"} {
		seedChore(store, "h1", id, "chore "+id, "u1", base.Add(time.Duration(i)*time.Minute))
	}
	// Malformed: requestorId missing.
	store.Seed(ChorePath("h1", "bad"), map[string]interface{}{
		"name":        "broken",
		"createdDate": base,
	})

	repo := NewChoreRepository(store, zap.NewNop())

	var decodeErrs []error
	errSub := repo.Errors().Subscribe(func(err error) { decodeErrs = append(decodeErrs, err) })
	defer errSub.Cancel()

	repo.ReadChores("h1")

	chores := repo.Chores().Get()
	if len(chores) != 4 {
		t.Fatalf("expected 4 decodable chores, got %d", len(chores))
	}
	if len(decodeErrs) != 1 {
		t.Fatalf("expected 1 decode error, got %d", len(decodeErrs))
	}
	var de *models.DecodeError
	if !errors.As(decodeErrs[0], &de) {
		t.Fatalf("expected DecodeError, got %T", decodeErrs[0])
	}
	if de.DocID != "bad" {
		t.Fatalf("decode error for wrong doc: %s", de.DocID)
	}
}

func TestChoreRepositoryOrdering(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	seedChore(store, "h1", "later", "later", "u1", base.Add(time.Hour))
	seedChore(store, "h1", "earlier", "earlier", "u1", base)

	repo := NewChoreRepository(store, zap.NewNop())
	repo.ReadChores("h1")

	chores := repo.Chores().Get()
	if len(chores) != 2 || chores[0].ID != "earlier" || chores[1].ID != "later" {
		t.Fatalf("expected createdDate ordering, got %+v", chores)
	}
}

func TestChatRepositoryLiveAppend(t *testing.T) {
	store := NewMemoryStore()
	repo := NewChatMessageRepository(store, zap.NewNop())
	repo.ReadMessages("h1", "c1")

	if msgs := repo.Messages().Get(); len(msgs) != 0 {
		t.Fatalf("expected empty thread, got %d messages", len(msgs))
	}

	_, err := repo.CreateMessage(context.Background(), "h1", "c1", models.ChatMessage{
		Message:  "hello",
		SenderID: "u1",
		SendDate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Type:     models.MessageNormal,
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	msgs := repo.Messages().Get()
	if len(msgs) != 1 || msgs[0].Message != "hello" {
		t.Fatalf("expected live append, got %+v", msgs)
	}
}

func TestInviteRepositoryRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	repo := NewInviteRepository(store, zap.NewNop())
	ctx := context.Background()

	code := models.InviteCode{
		Code:           "ABCD2345",
		HouseholdID:    "h1",
		ExpirationTime: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateInviteCode(ctx, code); err != nil {
		t.Fatalf("CreateInviteCode: %v", err)
	}
	got, err := repo.GetInviteCode(ctx, "ABCD2345")
	if err != nil {
		t.Fatalf("GetInviteCode: %v", err)
	}
	if got.HouseholdID != "h1" || !got.ExpirationTime.Equal(code.ExpirationTime) {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, err := repo.GetInviteCode(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewCodeShape(t *testing.T) {
	code, err := NewCode(8)
	if err != nil {
		t.Fatalf("NewCode: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("expected 8 characters, got %q", code)
	}
	for _, r := range code {
		if r == '0' || r == 'O' || r == '1' || r == 'I' {
			t.Fatalf("ambiguous character %q in code %q", r, code)
		}
	}
}
