package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"choreboard-backend-go/internal/db"
	"choreboard-backend-go/internal/models"
)

type fakeBlob struct {
	mu sync.Mutex
	n  int
}

func (f *fakeBlob) Upload(_ context.Context, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return fmt.Sprintf("https://blob.test/img-%d", f.n), nil
}

type fakeLedger struct {
	credits chan string // choreID per credit
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{credits: make(chan string, 4)}
}

func (f *fakeLedger) Credit(_ context.Context, _, choreID string) error {
	f.credits <- choreID
	return nil
}

type push struct {
	tokens []string
	title  string
	body   string
}

type fakeNotifier struct {
	mu     sync.Mutex
	pushes []push
}

func (f *fakeNotifier) Push(tokens []string, title, body string, _ map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, push{tokens: tokens, title: title, body: body})
}

func (f *fakeNotifier) all() []push {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]push, len(f.pushes))
	copy(out, f.pushes)
	return out
}

// testClock advances one second per call so ordered collections stay stable.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	store    *db.MemoryStore
	blob     *fakeBlob
	ledger   *fakeLedger
	notifier *fakeNotifier
	clock    *testClock
}

func newFixture() *fixture {
	return &fixture{
		store:    db.NewMemoryStore(),
		blob:     &fakeBlob{},
		ledger:   newFakeLedger(),
		notifier: &fakeNotifier{},
		clock:    newTestClock(),
	}
}

func (f *fixture) deps() SessionDeps {
	return SessionDeps{
		Store:     f.store,
		Blob:      f.blob,
		Ledger:    f.ledger,
		Notifier:  f.notifier,
		Logger:    zap.NewNop(),
		InviteTTL: 48 * time.Hour,
		Now:       f.clock.Now,
	}
}

func (f *fixture) session(t *testing.T, userID string) *Session {
	t.Helper()
	s := NewSession(userID, f.deps())
	t.Cleanup(s.Close)
	s.Start()
	return s
}

func (f *fixture) seedProfile(uid, name, householdID string) {
	data := map[string]interface{}{"name": name, "role": "parent"}
	if householdID != "" {
		data["householdId"] = householdID
	}
	f.store.Seed(db.UserPath(uid), data)
}

func (f *fixture) seedHousehold(id, tag string) {
	f.store.Seed(db.HouseholdPath(id), map[string]interface{}{"tag": tag})
}

func (f *fixture) seedMember(householdID, uid, name, expoToken string) {
	data := map[string]interface{}{"name": name}
	if expoToken != "" {
		data["expoToken"] = expoToken
	}
	f.store.Seed(db.MemberPath(householdID, uid), data)
}

func (f *fixture) seedChore(householdID, id, name, requestorID string, mutate func(map[string]interface{})) {
	data := map[string]interface{}{
		"name":        name,
		"requestorId": requestorID,
		"createdDate": f.clock.Now(),
	}
	if mutate != nil {
		mutate(data)
	}
	f.store.Seed(db.ChorePath(householdID, id), data)
}

func TestSessionCascadeWithHousehold(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedMember("h1", "u1", "Alice", "")
	f.seedMember("h1", "u2", "Bob", "")
	f.seedChore("h1", "c1", "Dishes", "u1", nil)
	f.seedChore("h1", "c2", "Laundry", "u2", nil)

	s := f.session(t, "u1")

	h := s.Households.State().Get()
	if h == nil || h.Tag != "smiths" {
		t.Fatalf("household = %+v, want tag smiths", h)
	}
	if got := len(s.Households.Members().Get()); got != 2 {
		t.Fatalf("members = %d, want 2", got)
	}
	if got := len(s.Chores.State().Get()); got != 2 {
		t.Fatalf("chores = %d, want 2", got)
	}
	if got := s.Messages.State().Get(); got != nil {
		t.Fatalf("messages = %v, want none before a selection", got)
	}
}

func TestSessionCascadeWithoutHousehold(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "")

	s := f.session(t, "u1")

	if u := s.Users.State().Get(); u == nil || u.Name != "Alice" {
		t.Fatalf("user = %+v, want Alice", u)
	}
	if h := s.Households.State().Get(); h != nil {
		t.Fatalf("household = %+v, want nil", h)
	}
	if c := s.Chores.State().Get(); c != nil {
		t.Fatalf("chores = %v, want nil", c)
	}
}

func TestCreateHousehold(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "")
	s := f.session(t, "u1")

	id, err := s.Households.CreateHousehold(context.Background(), "smiths")
	if err != nil {
		t.Fatalf("CreateHousehold: %v", err)
	}
	h := s.Households.State().Get()
	if h == nil || h.ID != id || h.Tag != "smiths" {
		t.Fatalf("household = %+v, want id %s tag smiths", h, id)
	}
	members := s.Households.Members().Get()
	if len(members) != 1 || members[0].ID != "u1" {
		t.Fatalf("members = %+v, want [u1]", members)
	}
}

func TestCreateHouseholdTagTaken(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "")
	f.seedHousehold("h9", "smiths")
	s := f.session(t, "u1")

	if _, err := s.Households.CreateHousehold(context.Background(), "smiths"); !errors.Is(err, ErrTagTaken) {
		t.Fatalf("err = %v, want ErrTagTaken", err)
	}
	if h := s.Households.State().Get(); h != nil {
		t.Fatalf("household = %+v, want nil after rejected create", h)
	}
}

func TestJoinWithCode(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "")
	f.seedHousehold("h1", "smiths")
	f.store.Seed(db.InviteCodePath("GOODCODE"), map[string]interface{}{
		"householdId":    "h1",
		"expirationTime": f.clock.Now().Add(time.Hour),
	})
	s := f.session(t, "u1")

	if err := s.Households.JoinWithCode(context.Background(), "GOODCODE"); err != nil {
		t.Fatalf("JoinWithCode: %v", err)
	}
	h := s.Households.State().Get()
	if h == nil || h.ID != "h1" {
		t.Fatalf("household = %+v, want h1", h)
	}
}

func TestJoinWithCodeExpired(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "")
	f.seedHousehold("h1", "smiths")
	f.store.Seed(db.InviteCodePath("OLDCODE"), map[string]interface{}{
		"householdId":    "h1",
		"expirationTime": f.clock.Now().Add(-time.Minute),
	})
	s := f.session(t, "u1")

	if err := s.Households.JoinWithCode(context.Background(), "OLDCODE"); !errors.Is(err, ErrInviteExpired) {
		t.Fatalf("err = %v, want ErrInviteExpired", err)
	}
	if u := s.Users.State().Get(); u.HouseholdID != "" {
		t.Fatalf("householdId = %q, want empty after expired code", u.HouseholdID)
	}
}

func TestJoinWithCodeUnknown(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "")
	s := f.session(t, "u1")

	if err := s.Households.JoinWithCode(context.Background(), "NOPE"); !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("err = %v, want ErrInviteNotFound", err)
	}
}

func TestGenerateInviteCodeRoundTrip(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedMember("h1", "u1", "Alice", "")
	s := f.session(t, "u1")

	code, err := s.Households.GenerateInviteCode(context.Background())
	if err != nil {
		t.Fatalf("GenerateInviteCode: %v", err)
	}
	invite, err := s.Invites().GetInviteCode(context.Background(), code)
	if err != nil {
		t.Fatalf("GetInviteCode: %v", err)
	}
	if invite.HouseholdID != "h1" {
		t.Fatalf("householdId = %q, want h1", invite.HouseholdID)
	}
	if invite.Expired(f.clock.Now()) {
		t.Fatal("fresh code already expired")
	}
}

func TestChoreAccept(t *testing.T) {
	f := newFixture()
	f.seedProfile("u2", "Bob", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedMember("h1", "u1", "Alice", "")
	f.seedMember("h1", "u2", "Bob", "")
	f.seedChore("h1", "c1", "Dishes", "u1", nil)
	s := f.session(t, "u2")

	if err := s.Chores.Accept(context.Background(), "c1"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	chores := s.Chores.State().Get()
	if len(chores) != 1 || chores[0].AcceptorID != "u2" {
		t.Fatalf("chores = %+v, want c1 accepted by u2", chores)
	}

	// The acceptance message lands in the chore's thread.
	if err := s.Chores.Select("c1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	msgs := s.Messages.State().Get()
	if len(msgs) != 1 || msgs[0].Type != models.MessageAccept {
		t.Fatalf("messages = %+v, want one accept message", msgs)
	}
}

func TestChoreAcceptValidations(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedChore("h1", "own", "Dishes", "u1", nil)
	f.seedChore("h1", "taken", "Laundry", "u2", func(d map[string]interface{}) {
		d["acceptorId"] = "u3"
	})
	s := f.session(t, "u1")

	ctx := context.Background()
	if err := s.Chores.Accept(ctx, "own"); !errors.Is(err, ErrOwnChore) {
		t.Fatalf("own chore err = %v, want ErrOwnChore", err)
	}
	if err := s.Chores.Accept(ctx, "taken"); !errors.Is(err, ErrChoreNotOpen) {
		t.Fatalf("taken chore err = %v, want ErrChoreNotOpen", err)
	}
	if err := s.Chores.Accept(ctx, "ghost"); !errors.Is(err, ErrChoreNotFound) {
		t.Fatalf("missing chore err = %v, want ErrChoreNotFound", err)
	}
}

func TestChoreReviewFlow(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedMember("h1", "u1", "Alice", "tok-alice")
	f.seedMember("h1", "u2", "Bob", "tok-bob")
	f.seedChore("h1", "c1", "Dishes", "u1", func(d map[string]interface{}) {
		d["acceptorId"] = "u2"
		d["isReadyForReview"] = true
	})
	s := f.session(t, "u1")

	ctx := context.Background()
	if err := s.Chores.Approve(ctx, "c1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	chores := s.Chores.State().Get()
	if len(chores) != 1 || StateOf(chores[0]).Kind != ChoreFinished {
		t.Fatalf("chores = %+v, want c1 finished", chores)
	}

	select {
	case choreID := <-f.ledger.credits:
		if choreID != "c1" {
			t.Fatalf("credited chore = %q, want c1", choreID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reward credit never issued")
	}

	pushes := f.notifier.all()
	if len(pushes) != 1 || pushes[0].tokens[0] != "tok-bob" {
		t.Fatalf("pushes = %+v, want one push to the acceptor", pushes)
	}
}

func TestChoreDenyReturnsToAccepted(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedChore("h1", "c1", "Dishes", "u1", func(d map[string]interface{}) {
		d["acceptorId"] = "u2"
		d["isReadyForReview"] = true
	})
	s := f.session(t, "u1")

	if err := s.Chores.Deny(context.Background(), "c1"); err != nil {
		t.Fatalf("Deny: %v", err)
	}
	chores := s.Chores.State().Get()
	if StateOf(chores[0]).Kind != ChoreAccepted {
		t.Fatalf("state = %v, want accepted after deny", StateOf(chores[0]).Kind)
	}
}

func TestChoreApproveValidations(t *testing.T) {
	f := newFixture()
	f.seedProfile("u2", "Bob", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedChore("h1", "c1", "Dishes", "u1", func(d map[string]interface{}) {
		d["acceptorId"] = "u2"
		d["isReadyForReview"] = true
	})
	f.seedChore("h1", "c2", "Laundry", "u2", func(d map[string]interface{}) {
		d["acceptorId"] = "u3"
	})
	s := f.session(t, "u2")

	ctx := context.Background()
	if err := s.Chores.Approve(ctx, "c1"); !errors.Is(err, ErrNotRequestor) {
		t.Fatalf("foreign approve err = %v, want ErrNotRequestor", err)
	}
	if err := s.Chores.Approve(ctx, "c2"); !errors.Is(err, ErrNotReadyForReview) {
		t.Fatalf("premature approve err = %v, want ErrNotReadyForReview", err)
	}
}

func TestChoreWithdrawClearsSelection(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedChore("h1", "c1", "Dishes", "u1", nil)
	s := f.session(t, "u1")

	if err := s.Chores.Select("c1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Chores.Withdraw(context.Background(), "c1"); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if got := len(s.Chores.State().Get()); got != 0 {
		t.Fatalf("chores = %d, want 0", got)
	}
	if sel := s.Chores.Selected().Get(); sel != nil {
		t.Fatalf("selection = %+v, want cleared after withdraw", sel)
	}
}

func TestChoreCreatePostsRequestMessage(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	s := f.session(t, "u1")

	id, err := s.Chores.CreateChore(context.Background(), "Dishes", "after dinner", 2.50, [][]byte{[]byte("img")})
	if err != nil {
		t.Fatalf("CreateChore: %v", err)
	}
	chores := s.Chores.State().Get()
	if len(chores) != 1 || chores[0].ID != id || len(chores[0].ImageURLs) != 1 {
		t.Fatalf("chores = %+v, want created chore with one image", chores)
	}
	if err := s.Chores.Select(id); err != nil {
		t.Fatalf("Select: %v", err)
	}
	msgs := s.Messages.State().Get()
	if len(msgs) != 1 || msgs[0].Type != models.MessageRequest {
		t.Fatalf("messages = %+v, want one request message", msgs)
	}
}

func TestChatSend(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedMember("h1", "u1", "Alice", "tok-alice")
	f.seedMember("h1", "u2", "Bob", "tok-bob")
	f.seedMember("h1", "u3", "Cara", "")
	f.seedChore("h1", "c1", "Dishes", "u2", nil)
	s := f.session(t, "u1")

	ctx := context.Background()
	if err := s.Messages.Send(ctx, "hello", nil); !errors.Is(err, ErrNoChoreSelected) {
		t.Fatalf("unselected send err = %v, want ErrNoChoreSelected", err)
	}
	if err := s.Chores.Select("c1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Messages.Send(ctx, "", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("empty send err = %v, want ErrEmptyMessage", err)
	}
	if err := s.Messages.Send(ctx, "on it", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := s.Messages.State().Get()
	if len(msgs) != 1 || msgs[0].Message != "on it" || !msgs[0].IsFromCurrentUser {
		t.Fatalf("messages = %+v, want one own message", msgs)
	}
	pushes := f.notifier.all()
	if len(pushes) != 1 || len(pushes[0].tokens) != 1 || pushes[0].tokens[0] != "tok-bob" {
		t.Fatalf("pushes = %+v, want one push to tok-bob only", pushes)
	}
}

func TestChatThreadFollowsSelection(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedChore("h1", "c1", "Dishes", "u1", nil)
	f.seedChore("h1", "c2", "Laundry", "u1", nil)
	f.store.Seed(db.ChatMessagePath("h1", "c1", "m1"), map[string]interface{}{
		"message": "first", "senderId": "u2", "sendDate": f.clock.Now(),
	})
	s := f.session(t, "u1")

	if err := s.Chores.Select("c1"); err != nil {
		t.Fatalf("Select c1: %v", err)
	}
	if msgs := s.Messages.State().Get(); len(msgs) != 1 || msgs[0].Message != "first" {
		t.Fatalf("messages = %+v, want [first]", msgs)
	}
	if err := s.Chores.Select("c2"); err != nil {
		t.Fatalf("Select c2: %v", err)
	}
	if msgs := s.Messages.State().Get(); len(msgs) != 0 {
		t.Fatalf("messages = %+v, want empty thread for c2", msgs)
	}
	s.Chores.Deselect()
	if msgs := s.Messages.State().Get(); msgs != nil {
		t.Fatalf("messages = %+v, want nil after deselect", msgs)
	}
}

type staticVerifier struct{ uid string }

func (v staticVerifier) Verify(context.Context, string) (string, error) { return v.uid, nil }

func TestSignOutResetsCascade(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedMember("h1", "u1", "Alice", "")
	f.seedChore("h1", "c1", "Dishes", "u1", nil)

	auth := NewAuthService(staticVerifier{uid: "u1"}, f.deps(), zap.NewNop())
	s := auth.Session("u1")
	if s.Households.State().Get() == nil {
		t.Fatal("household never loaded")
	}
	if err := s.Chores.Select("c1"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	auth.SignOut("u1")

	if u := s.Users.State().Get(); u != nil {
		t.Fatalf("user = %+v, want nil after sign-out", u)
	}
	if h := s.Households.State().Get(); h != nil {
		t.Fatalf("household = %+v, want nil after sign-out", h)
	}
	if c := s.Chores.State().Get(); c != nil {
		t.Fatalf("chores = %v, want nil after sign-out", c)
	}
	if sel := s.Chores.Selected().Get(); sel != nil {
		t.Fatalf("selection = %+v, want nil after sign-out", sel)
	}

	// A fresh sign-in builds a new graph that loads again.
	s2 := auth.Session("u1")
	defer auth.SignOut("u1")
	if s2 == s {
		t.Fatal("sign-in after sign-out reused the closed session")
	}
	if h := s2.Households.State().Get(); h == nil || h.ID != "h1" {
		t.Fatalf("household = %+v, want h1 after re-sign-in", h)
	}
}

func TestLeaveHousehold(t *testing.T) {
	f := newFixture()
	f.seedProfile("u1", "Alice", "h1")
	f.seedHousehold("h1", "smiths")
	f.seedMember("h1", "u1", "Alice", "")
	s := f.session(t, "u1")

	if err := s.Households.Leave(context.Background()); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if u := s.Users.State().Get(); u == nil || u.HouseholdID != "" {
		t.Fatalf("user = %+v, want profile without household", u)
	}
	if h := s.Households.State().Get(); h != nil {
		t.Fatalf("household = %+v, want nil after leave", h)
	}
}
