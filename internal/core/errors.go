package core

import "errors"

// Validation failures returned synchronously from service commands. Transport
// failures are wrapped and additionally published on the owning service's
// error stream.
var (
	// ErrNoProfile is returned when a command needs the signed-in user's
	// profile and none exists yet.
	ErrNoProfile = errors.New("user profile not found")
	// ErrNameRequired is returned when a profile or chore name is missing.
	ErrNameRequired = errors.New("name is required")

	// ErrTagRequired is returned when a household is created without a tag.
	ErrTagRequired = errors.New("household tag is required")
	// ErrTagTaken is returned when the chosen household tag already exists.
	ErrTagTaken = errors.New("household tag is already taken")
	// ErrNoHousehold is returned when a command requires household membership.
	ErrNoHousehold = errors.New("user does not belong to a household")
	// ErrAlreadyInHousehold is returned when a member tries to create or join
	// another household without leaving first.
	ErrAlreadyInHousehold = errors.New("user already belongs to a household")

	// ErrInviteNotFound is returned for an unknown invite code or email.
	ErrInviteNotFound = errors.New("invite not found")
	// ErrInviteExpired is returned when a code is used at or after its
	// expiration instant.
	ErrInviteExpired = errors.New("invite code has expired")

	// ErrChoreNotFound is returned when the chore id is not in the current
	// household's chore list.
	ErrChoreNotFound = errors.New("chore not found")
	// ErrChoreNotOpen is returned when accept or withdraw hits a chore that
	// has left the open state.
	ErrChoreNotOpen = errors.New("chore is not open")
	// ErrOwnChore is returned when a requestor tries to accept their own
	// chore.
	ErrOwnChore = errors.New("cannot accept your own chore")
	// ErrNotRequestor is returned when a non-requestor tries a
	// requestor-only transition.
	ErrNotRequestor = errors.New("only the requestor may do this")
	// ErrNotAcceptor is returned when a non-acceptor tries an acceptor-only
	// transition.
	ErrNotAcceptor = errors.New("only the acceptor may do this")
	// ErrNotReadyForReview is returned when approve or deny hits a chore that
	// is not awaiting review.
	ErrNotReadyForReview = errors.New("chore is not ready for review")

	// ErrNoChoreSelected is returned when a chat command runs without a
	// selected chore.
	ErrNoChoreSelected = errors.New("no chore selected")
	// ErrEmptyMessage is returned when a chat message has neither text nor
	// images.
	ErrEmptyMessage = errors.New("message is empty")
)
