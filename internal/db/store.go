package db

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a document does not exist in the store.
var ErrNotFound = errors.New("document not found")

// Document is a raw stored document: its ID plus the dynamic field map the
// store decoded it into. Typed decoding happens per entity in models, so one
// malformed document never poisons a whole collection snapshot.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// CollectionQuery describes a live collection subscription: the collection
// path plus an optional ordering field.
type CollectionQuery struct {
	Path      string
	OrderBy   string
	Ascending bool
}

// Handle is an active subscription. Cancel is synchronous: once it returns,
// the owning repository will discard any snapshot still in flight.
type Handle interface {
	Cancel()
}

// Store is the narrow contract this layer consumes from the remote document
// database. The production implementation is Firestore; tests use the
// in-memory store in this package.
type Store interface {
	// GetDocument fetches a single document, returning ErrNotFound if absent.
	GetDocument(ctx context.Context, path string) (Document, error)
	// SetDocument writes the full document, creating it if necessary.
	SetDocument(ctx context.Context, path string, data map[string]interface{}) error
	// UpdateFields merges the given fields into an existing document.
	UpdateFields(ctx context.Context, path string, fields map[string]interface{}) error
	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, path string) error

	// SubscribeDocument opens a live subscription on a single document.
	// onSnapshot receives the current contents immediately and again on every
	// change; exists is false when the document is absent or deleted.
	SubscribeDocument(ctx context.Context, path string, onSnapshot func(doc Document, exists bool), onError func(error)) Handle

	// SubscribeCollection opens a live subscription on a collection. The full
	// ordered snapshot is delivered immediately and again on every change.
	SubscribeCollection(ctx context.Context, q CollectionQuery, onSnapshot func([]Document), onError func(error)) Handle

	// QueryEquals returns all documents in a collection whose field equals
	// value. Used for the pre-create household tag existence check.
	QueryEquals(ctx context.Context, collectionPath, field string, value interface{}) ([]Document, error)

	// NewID returns a fresh document ID for the given collection.
	NewID(collectionPath string) string
}

// Collection layout. Everything hangs off households/{id} except the global
// user profiles and the two invite collections.
const (
	UsersCollection       = "users"
	HouseholdsCollection  = "households"
	InviteCodesCollection = "inviteCodes"
	InvitationsCollection = "invitations"
)

// UserPath returns users/{userID}.
func UserPath(userID string) string {
	return fmt.Sprintf("%s/%s", UsersCollection, userID)
}

// HouseholdPath returns households/{householdID}.
func HouseholdPath(householdID string) string {
	return fmt.Sprintf("%s/%s", HouseholdsCollection, householdID)
}

// MembersPath returns the denormalized member subcollection of a household.
func MembersPath(householdID string) string {
	return fmt.Sprintf("%s/%s/users", HouseholdsCollection, householdID)
}

// MemberPath returns a single denormalized member document.
func MemberPath(householdID, userID string) string {
	return fmt.Sprintf("%s/%s", MembersPath(householdID), userID)
}

// ChoresPath returns the chore subcollection of a household.
func ChoresPath(householdID string) string {
	return fmt.Sprintf("%s/%s/chores", HouseholdsCollection, householdID)
}

// ChorePath returns a single chore document.
func ChorePath(householdID, choreID string) string {
	return fmt.Sprintf("%s/%s", ChoresPath(householdID), choreID)
}

// ChatMessagesPath returns the chat subcollection of a chore.
func ChatMessagesPath(householdID, choreID string) string {
	return fmt.Sprintf("%s/chatMessages", ChorePath(householdID, choreID))
}

// ChatMessagePath returns a single chat message document.
func ChatMessagePath(householdID, choreID, messageID string) string {
	return fmt.Sprintf("%s/%s", ChatMessagesPath(householdID, choreID), messageID)
}

// InviteCodePath returns inviteCodes/{code}.
func InviteCodePath(code string) string {
	return fmt.Sprintf("%s/%s", InviteCodesCollection, code)
}

// InvitationPath returns invitations/{email}.
func InvitationPath(email string) string {
	return fmt.Sprintf("%s/%s", InvitationsCollection, email)
}
