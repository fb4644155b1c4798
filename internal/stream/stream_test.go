package stream

import "testing"

func TestStateReplaysCurrentValue(t *testing.T) {
	s := NewState(42)

	var got []int
	sub := s.Subscribe(func(v int) { got = append(got, v) })
	defer sub.Cancel()

	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("expected immediate replay of 42, got %v", got)
	}

	s.Set(7)
	if len(got) != 2 || got[1] != 7 {
		t.Fatalf("expected update 7, got %v", got)
	}
	if s.Get() != 7 {
		t.Fatalf("Get() = %d, want 7", s.Get())
	}
}

func TestStateCancelStopsDelivery(t *testing.T) {
	s := NewState("a")

	count := 0
	sub := s.Subscribe(func(string) { count++ })
	sub.Cancel()
	sub.Cancel() // idempotent

	s.Set("b")
	if count != 1 {
		t.Fatalf("expected only the replay delivery, got %d", count)
	}
}

func TestStateSubscriberMayCancelAnother(t *testing.T) {
	s := NewState(0)

	var other *Subscription
	other = s.Subscribe(func(int) {})
	sub := s.Subscribe(func(v int) {
		if v == 1 {
			other.Cancel()
		}
	})
	defer sub.Cancel()

	// Must not deadlock.
	s.Set(1)
	s.Set(2)
}

func TestEventsNoReplay(t *testing.T) {
	e := NewEvents[string]()
	e.Publish("lost")

	var got []string
	sub := e.Subscribe(func(v string) { got = append(got, v) })
	defer sub.Cancel()

	if len(got) != 0 {
		t.Fatalf("events must not replay, got %v", got)
	}

	e.Publish("seen")
	if len(got) != 1 || got[0] != "seen" {
		t.Fatalf("expected [seen], got %v", got)
	}
}

func TestWatchDeliversLatest(t *testing.T) {
	s := NewState(1)
	ch, cancel := s.Watch(1)
	defer cancel()

	if v := <-ch; v != 1 {
		t.Fatalf("expected replayed 1, got %d", v)
	}

	// Overflow the buffer; the newest value must survive.
	s.Set(2)
	s.Set(3)
	if v := <-ch; v != 3 {
		t.Fatalf("expected latest value 3, got %d", v)
	}
}
