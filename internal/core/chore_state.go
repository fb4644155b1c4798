package core

import (
	"time"

	"choreboard-backend-go/internal/models"
)

// StateKind enumerates the chore lifecycle states.
type StateKind string

const (
	ChoreOpen           StateKind = "open"
	ChoreAccepted       StateKind = "accepted"
	ChoreReadyForReview StateKind = "readyForReview"
	ChoreFinished       StateKind = "finished"
)

// ChoreState is the tagged lifecycle variant derived from a stored chore. It
// carries only the fields meaningful for its kind: AcceptorID from Accepted
// onward, FinishedAt only when finished. All lifecycle decisions go through
// this variant rather than inspecting the raw optional fields.
type ChoreState struct {
	Kind       StateKind
	AcceptorID string
	FinishedAt time.Time
}

// StateOf is the single mapping from a stored chore document to its
// lifecycle state. Precedence: a finish date wins over the review flag, which
// wins over the acceptor field.
func StateOf(c models.Chore) ChoreState {
	switch {
	case c.FinishedDate != nil:
		return ChoreState{Kind: ChoreFinished, AcceptorID: c.AcceptorID, FinishedAt: *c.FinishedDate}
	case c.IsReadyForReview:
		return ChoreState{Kind: ChoreReadyForReview, AcceptorID: c.AcceptorID}
	case c.AcceptorID != "":
		return ChoreState{Kind: ChoreAccepted, AcceptorID: c.AcceptorID}
	default:
		return ChoreState{Kind: ChoreOpen}
	}
}

// Action is the single button a viewer may act on for a chore.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionFinish   Action = "finish"
	ActionWithdraw Action = "withdraw"
	ActionNone     Action = "nothing"
)

// ActionFor derives the viewer's action for a chore. The requestor check runs
// before the acceptor check, so a viewer who is neither gets ActionNone. The
// derivation is pure and recomputed on every emission; it is never cached.
func ActionFor(c models.Chore, viewerID string) Action {
	state := StateOf(c)
	switch state.Kind {
	case ChoreOpen:
		if viewerID == c.RequestorID {
			return ActionWithdraw
		}
		return ActionAccept
	case ChoreAccepted:
		if viewerID == c.RequestorID {
			return ActionNone
		}
		if viewerID == state.AcceptorID {
			return ActionFinish
		}
		return ActionNone
	default:
		// ReadyForReview resolves through the review prompt, not an action
		// button; Finished is terminal.
		return ActionNone
	}
}

// NeedsReview reports whether the viewer should be prompted to approve or
// deny the chore.
func NeedsReview(c models.Chore, viewerID string) bool {
	return StateOf(c).Kind == ChoreReadyForReview && viewerID == c.RequestorID
}

// ChoreView is a chore decorated with the viewer-specific derived state the
// consumer layer renders from.
type ChoreView struct {
	models.Chore
	State       StateKind `json:"state"`
	Action      Action    `json:"action"`
	NeedsReview bool      `json:"needsReview"`
}

// ViewOf decorates one chore for one viewer.
func ViewOf(c models.Chore, viewerID string) ChoreView {
	return ChoreView{
		Chore:       c,
		State:       StateOf(c).Kind,
		Action:      ActionFor(c, viewerID),
		NeedsReview: NeedsReview(c, viewerID),
	}
}

// ViewsOf decorates a chore list for one viewer.
func ViewsOf(chores []models.Chore, viewerID string) []ChoreView {
	views := make([]ChoreView, len(chores))
	for i, c := range chores {
		views[i] = ViewOf(c, viewerID)
	}
	return views
}
