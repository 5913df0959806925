package marquee

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SignIn verifies email and password against the admin store and returns a
// Session. Bad credentials and unknown accounts both map to ErrUnauthorized.
func SignIn(ctx context.Context, store AdminStore, email, password string) (Session, error) {
	a, err := store.GetAdmin(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrUnauthorized
	}
	return Session{Email: a.Email, LoggedInAt: time.Now()}, nil
}

// RequestPasswordReset stores a fresh reset token for email, valid for one
// hour. Unknown accounts are reported as success so the form cannot be used
// to probe which addresses exist.
func RequestPasswordReset(ctx context.Context, store AdminStore, email string) error {
	if _, err := store.GetAdmin(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return store.SaveResetToken(ctx, email, uuid.NewString(), time.Now().Add(time.Hour))
}

// SeedAdmin ensures a credential row exists for the configured admin account.
func SeedAdmin(ctx context.Context, store AdminStore, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return store.UpsertAdmin(ctx, Admin{Email: email, PasswordHash: string(hash)})
}

// AuthWatcher fans session-change notifications out to subscribers. A
// subscription is registered once at admin-view activation and the returned
// unsubscribe func released on teardown.
type AuthWatcher struct {
	mu   sync.Mutex
	next int
	subs map[int]func(s Session, signedIn bool)
}

// NewAuthWatcher creates an empty watcher.
func NewAuthWatcher() *AuthWatcher {
	return &AuthWatcher{subs: make(map[int]func(Session, bool))}
}

// Subscribe registers fn for sign-in/sign-out events and returns its
// unsubscribe func.
func (w *AuthWatcher) Subscribe(fn func(s Session, signedIn bool)) (unsubscribe func()) {
	w.mu.Lock()
	id := w.next
	w.next++
	w.subs[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// Notify delivers a session-change event to every subscriber.
func (w *AuthWatcher) Notify(s Session, signedIn bool) {
	w.mu.Lock()
	fns := make([]func(Session, bool), 0, len(w.subs))
	for _, fn := range w.subs {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(s, signedIn)
	}
}
