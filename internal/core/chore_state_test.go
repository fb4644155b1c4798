package core

import (
	"testing"
	"time"

	"choreboard-backend-go/internal/models"
)

const (
	requestor = "requestor"
	acceptor  = "acceptor"
	other     = "other"
)

func choreIn(kind StateKind) models.Chore {
	c := models.Chore{
		ID:          "c1",
		Name:        "dishes",
		RequestorID: requestor,
		CreatedDate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	switch kind {
	case ChoreAccepted:
		c.AcceptorID = acceptor
	case ChoreReadyForReview:
		c.AcceptorID = acceptor
		c.IsReadyForReview = true
	case ChoreFinished:
		c.AcceptorID = acceptor
		finished := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
		c.FinishedDate = &finished
	}
	return c
}

func TestStateOf(t *testing.T) {
	for _, kind := range []StateKind{ChoreOpen, ChoreAccepted, ChoreReadyForReview, ChoreFinished} {
		if got := StateOf(choreIn(kind)).Kind; got != kind {
			t.Errorf("StateOf(%s chore) = %s", kind, got)
		}
	}

	// A finish date wins even if the review flag was left set.
	c := choreIn(ChoreFinished)
	c.IsReadyForReview = true
	if got := StateOf(c).Kind; got != ChoreFinished {
		t.Errorf("finished chore with stale review flag derived as %s", got)
	}
}

// TestActionForTotality pins the full viewer-by-state grid.
func TestActionForTotality(t *testing.T) {
	tests := []struct {
		state  StateKind
		viewer string
		want   Action
	}{
		{ChoreOpen, requestor, ActionWithdraw},
		{ChoreOpen, acceptor, ActionAccept}, // not yet acceptor, just another member
		{ChoreOpen, other, ActionAccept},

		{ChoreAccepted, requestor, ActionNone},
		{ChoreAccepted, acceptor, ActionFinish},
		{ChoreAccepted, other, ActionNone},

		{ChoreReadyForReview, requestor, ActionNone},
		{ChoreReadyForReview, acceptor, ActionNone},
		{ChoreReadyForReview, other, ActionNone},

		{ChoreFinished, requestor, ActionNone},
		{ChoreFinished, acceptor, ActionNone},
		{ChoreFinished, other, ActionNone},
	}
	for _, tt := range tests {
		if got := ActionFor(choreIn(tt.state), tt.viewer); got != tt.want {
			t.Errorf("ActionFor(%s, %s) = %s, want %s", tt.state, tt.viewer, got, tt.want)
		}
	}
}

func TestNeedsReview(t *testing.T) {
	c := choreIn(ChoreReadyForReview)
	if !NeedsReview(c, requestor) {
		t.Error("requestor must be prompted for review")
	}
	if NeedsReview(c, acceptor) || NeedsReview(c, other) {
		t.Error("only the requestor reviews")
	}
	if NeedsReview(choreIn(ChoreAccepted), requestor) {
		t.Error("accepted chore must not prompt for review")
	}
}

func TestViewOf(t *testing.T) {
	v := ViewOf(choreIn(ChoreAccepted), acceptor)
	if v.State != ChoreAccepted || v.Action != ActionFinish || v.NeedsReview {
		t.Errorf("unexpected view: %+v", v)
	}
}
