package marquee

import (
	"context"
	"errors"
	"testing"
)

func TestSignIn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := SeedAdmin(ctx, s, "admin@example.com", "hunter2"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	sess, err := SignIn(ctx, s, "admin@example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.Email != "admin@example.com" || sess.LoggedInAt.IsZero() {
		t.Errorf("session = %+v", sess)
	}

	if _, err := SignIn(ctx, s, "admin@example.com", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong password: err = %v, want ErrUnauthorized", err)
	}
	if _, err := SignIn(ctx, s, "nobody@example.com", "hunter2"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unknown account: err = %v, want ErrUnauthorized", err)
	}
}

func TestRequestPasswordReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := SeedAdmin(ctx, s, "admin@example.com", "hunter2"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	// Unknown accounts report success so the form cannot probe addresses.
	if err := RequestPasswordReset(ctx, s, "nobody@example.com"); err != nil {
		t.Errorf("unknown account: %v", err)
	}

	if err := RequestPasswordReset(ctx, s, "admin@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	a, err := s.GetAdmin(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("GetAdmin: %v", err)
	}
	if a.ResetToken == "" || a.ResetExpires.IsZero() {
		t.Errorf("token not stored: %+v", a)
	}
}

func TestSeedAdminKeepsOneRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := SeedAdmin(ctx, s, "admin@example.com", "first"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	if err := SeedAdmin(ctx, s, "admin@example.com", "second"); err != nil {
		t.Fatalf("SeedAdmin again: %v", err)
	}
	if n, _ := s.countRows(ctx, "admins"); n != 1 {
		t.Errorf("admin rows = %d, want 1", n)
	}
	if _, err := SignIn(ctx, s, "admin@example.com", "second"); err != nil {
		t.Errorf("latest password rejected: %v", err)
	}
}

func TestAuthWatcher(t *testing.T) {
	w := NewAuthWatcher()

	var events []bool
	unsub := w.Subscribe(func(s Session, signedIn bool) {
		events = append(events, signedIn)
	})

	w.Notify(Session{Email: "a@b.com"}, true)
	w.Notify(Session{}, false)
	if len(events) != 2 || !events[0] || events[1] {
		t.Fatalf("events = %v", events)
	}

	unsub()
	w.Notify(Session{Email: "a@b.com"}, true)
	if len(events) != 2 {
		t.Errorf("notified after unsubscribe: %v", events)
	}
}
