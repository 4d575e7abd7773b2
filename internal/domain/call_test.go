package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNextState(t *testing.T) {
	cases := []struct {
		state CallState
		event Event
		next  CallState
		ok    bool
	}{
		{StateRinging, EventAccept, StateRinging, true},
		{StateRinging, EventReject, StateRejected, true},
		{StateRinging, EventOffer, StateActive, true},
		{StateRinging, EventCandidate, StateRinging, true},
		{StateRinging, EventEnd, StateEnded, true},
		{StateRinging, EventAnswer, StateRinging, false},
		{StateActive, EventOffer, StateActive, true},
		{StateActive, EventAnswer, StateActive, true},
		{StateActive, EventCandidate, StateActive, true},
		{StateActive, EventEnd, StateEnded, true},
		{StateActive, EventAccept, StateActive, false},
		{StateActive, EventReject, StateActive, false},
		{StateEnded, EventOffer, StateEnded, false},
		{StateEnded, EventEnd, StateEnded, false},
		{StateRejected, EventAccept, StateRejected, false},
	}
	for _, tc := range cases {
		next, err := NextState(tc.state, tc.event)
		if tc.ok {
			if err != nil {
				t.Errorf("NextState(%s, %s): unexpected error %v", tc.state, tc.event, err)
				continue
			}
			if next != tc.next {
				t.Errorf("NextState(%s, %s) = %s, want %s", tc.state, tc.event, next, tc.next)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("NextState(%s, %s): want ErrInvalidTransition, got %v", tc.state, tc.event, err)
		}
	}
}

// Terminal states must accept no event at all: once a session leaves
// ringing it can never come back.
func TestTerminalStatesAreDeadEnds(t *testing.T) {
	events := []Event{EventStart, EventAccept, EventReject, EventOffer, EventAnswer, EventCandidate, EventEnd}
	for _, state := range []CallState{StateEnded, StateRejected} {
		for _, ev := range events {
			if _, err := NextState(state, ev); err == nil {
				t.Errorf("state %s accepted event %s", state, ev)
			}
		}
	}
}

func TestPairKeyOrderIndependent(t *testing.T) {
	if PairKey("alice", "bob") != PairKey("bob", "alice") {
		t.Fatalf("PairKey must not depend on argument order")
	}
	if PairKey("alice", "bob") == PairKey("alice", "carol") {
		t.Fatalf("distinct pairs must map to distinct keys")
	}
}

func TestNewCallSession(t *testing.T) {
	now := time.Unix(100, 0)
	s := NewCallSession("a", "b", true, now)
	if s.State != StateRinging {
		t.Fatalf("new session state = %s, want ringing", s.State)
	}
	if s.CallID == "" {
		t.Fatalf("call id not generated")
	}
	if !s.IsVideo || s.CallerID != "a" || s.CalleeID != "b" {
		t.Fatalf("session fields not set: %+v", s)
	}
	if !s.CreatedAt.Equal(now) || !s.LastActivityAt.Equal(now) {
		t.Fatalf("timestamps not initialized from clock")
	}
	if s.OtherParty("a") != "b" || s.OtherParty("b") != "a" {
		t.Fatalf("OtherParty broken")
	}
	if s.HasParticipant("c") {
		t.Fatalf("stranger counted as participant")
	}
}
