package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hverma/ringline/internal/domain"
)

func TestStoreCreateAndGet(t *testing.T) {
	st := NewSessionStore(newFakeClock())
	sess, err := st.Create("a", "b", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := st.Get(sess.CallID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != domain.StateRinging {
		t.Fatalf("state = %s, want ringing", got.State)
	}

	if _, err := st.Get("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get(unknown) = %v, want ErrNotFound", err)
	}
}

func TestStorePairConflict(t *testing.T) {
	st := NewSessionStore(newFakeClock())
	first, err := st.Create("a", "b", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Same pair, either direction, must conflict while the first is alive.
	if _, err := st.Create("a", "b", true); !errors.Is(err, domain.ErrSessionConflict) {
		t.Fatalf("duplicate create = %v, want ErrSessionConflict", err)
	}
	if _, err := st.Create("b", "a", false); !errors.Is(err, domain.ErrSessionConflict) {
		t.Fatalf("reverse create = %v, want ErrSessionConflict", err)
	}

	// The original session is unaffected by the rejected attempts.
	if got, err := st.Get(first.CallID); err != nil || got.State != domain.StateRinging {
		t.Fatalf("original session disturbed: %+v, %v", got, err)
	}

	// Unrelated pairs are fine.
	if _, err := st.Create("a", "c", false); err != nil {
		t.Fatalf("unrelated pair rejected: %v", err)
	}

	// Removing the session frees the pair.
	st.Remove(first.CallID)
	if _, err := st.Create("b", "a", false); err != nil {
		t.Fatalf("pair still busy after remove: %v", err)
	}
}

func TestStoreRemoveClaimedOnce(t *testing.T) {
	st := NewSessionStore(newFakeClock())
	sess, _ := st.Create("a", "b", false)

	var wg sync.WaitGroup
	claims := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := st.Remove(sess.CallID)
			claims <- ok
		}()
	}
	wg.Wait()
	close(claims)

	won := 0
	for ok := range claims {
		if ok {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("%d removers claimed the session, want exactly 1", won)
	}
	if _, err := st.Get(sess.CallID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("session still readable after remove")
	}
}

func TestStoreApplySerializesTransitions(t *testing.T) {
	st := NewSessionStore(newFakeClock())
	sess, _ := st.Create("a", "b", false)

	// accept and reject racing from the callee's two devices: exactly one
	// may finalize, the other must observe the already-applied state.
	var wg sync.WaitGroup
	outcomes := make(chan error, 2)
	run := func(ev domain.Event) {
		defer wg.Done()
		_, err := st.Apply(sess.CallID, func(s *domain.CallSession) error {
			if s.Accepted || s.State != domain.StateRinging {
				return domain.ErrInvalidTransition
			}
			next, err := domain.NextState(s.State, ev)
			if err != nil {
				return err
			}
			s.State = next
			if ev == domain.EventAccept {
				s.Accepted = true
			}
			return nil
		})
		outcomes <- err
	}
	wg.Add(2)
	go run(domain.EventAccept)
	go run(domain.EventReject)
	wg.Wait()
	close(outcomes)

	succeeded := 0
	for err := range outcomes {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	got, err := st.Get(sess.CallID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// Either accept won (ringing+accepted) or reject won (rejected); the
	// interleaving where both apply is impossible.
	if got.Accepted && got.State != domain.StateRinging {
		t.Fatalf("inconsistent state after race: %+v", got)
	}
	if !got.Accepted && got.State != domain.StateRejected {
		t.Fatalf("neither transition applied cleanly: %+v", got)
	}
	if succeeded != 1 {
		t.Fatalf("%d transitions succeeded, want exactly 1", succeeded)
	}
}

func TestStoreApplyRefreshesActivity(t *testing.T) {
	clock := newFakeClock()
	st := NewSessionStore(clock)
	sess, _ := st.Create("a", "b", false)

	clock.Advance(10 * time.Second)
	got, err := st.Transition(sess.CallID, domain.EventOffer)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if !got.LastActivityAt.Equal(clock.Now()) {
		t.Fatalf("LastActivityAt not refreshed on transition")
	}
	if got.State != domain.StateActive {
		t.Fatalf("state = %s, want active", got.State)
	}
}

func TestStoreTransitionInvalid(t *testing.T) {
	st := NewSessionStore(newFakeClock())
	sess, _ := st.Create("a", "b", false)
	if _, err := st.Transition(sess.CallID, domain.EventAnswer); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("answer while ringing = %v, want ErrInvalidTransition", err)
	}
	// Failed guard must not mutate.
	got, _ := st.Get(sess.CallID)
	if got.State != domain.StateRinging {
		t.Fatalf("state mutated by invalid transition: %s", got.State)
	}
}
