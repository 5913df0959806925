// Package newsletter implements the subscription flow shared by the site
// form and the thin JSON endpoint: one syntactic email check, one duplicate
// lookup, one insert.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// emailPattern is a deliberately simple syntactic check, not RFC validation:
// non-whitespace, "@", non-whitespace, ".", non-whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	// ErrInvalidEmail rejects a malformed address before any store access.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrAlreadySubscribed marks a duplicate signup. It is a distinct,
	// user-readable condition, never conflated with a generic store error.
	ErrAlreadySubscribed = errors.New("this email is already subscribed")
)

// ConfirmationMessage is returned to the user on a successful signup.
const ConfirmationMessage = "Subscribed! Check your email for confirmation."

// Store is the slice of the content store the flow needs.
type Store interface {
	FindSubscriber(ctx context.Context, email string) (bool, error)
	InsertSubscriber(ctx context.Context, email string) error
}

// Service runs the subscription flow against a Store.
type Service struct {
	store Store
}

// NewService creates a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Subscribe validates email, rejects duplicates, and inserts the row.
// Store failures are wrapped with the store's message; nothing is retried.
func (s *Service) Subscribe(ctx context.Context, email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	exists, err := s.store.FindSubscriber(ctx, email)
	if err != nil {
		return fmt.Errorf("check subscription: %w", err)
	}
	if exists {
		return ErrAlreadySubscribed
	}
	if err := s.store.InsertSubscriber(ctx, email); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}
