package telegram

import (
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	s := newSessionStore(time.Minute, 10)

	if got := s.get(1); got != nil {
		t.Fatalf("expected no session, got %+v", got)
	}
	if !s.begin(1) {
		t.Fatal("begin refused with empty store")
	}

	sess := s.get(1)
	if sess == nil || sess.step != stepTime {
		t.Fatalf("expected time step session, got %+v", sess)
	}

	s.advance(1, "13:00")
	sess = s.get(1)
	if sess.step != stepText || sess.timeHHMM != "13:00" {
		t.Fatalf("advance not applied: %+v", sess)
	}

	s.end(1)
	if s.get(1) != nil {
		t.Fatal("session survived end")
	}
}

func TestSessionExpiry(t *testing.T) {
	s := newSessionStore(-time.Second, 10) // already expired on creation
	s.begin(1)
	if s.get(1) != nil {
		t.Fatal("expired session returned")
	}
}

func TestSessionCapSweepsExpired(t *testing.T) {
	s := newSessionStore(-time.Second, 2)
	s.begin(1)
	s.begin(2)
	// Both entries are expired; a third begin must sweep and succeed.
	if !s.begin(3) {
		t.Fatal("begin refused despite expired entries")
	}
}

func TestSessionCapRefusesWhenFull(t *testing.T) {
	s := newSessionStore(time.Minute, 2)
	s.begin(1)
	s.begin(2)
	if s.begin(3) {
		t.Fatal("begin accepted past the cap")
	}
	// An existing user may still restart their wizard.
	if !s.begin(2) {
		t.Fatal("restart refused for existing session")
	}
}
