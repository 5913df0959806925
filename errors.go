package marquee

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = sql.ErrNoRows

	// ErrUnauthorized means there is no valid admin session or the supplied
	// credentials were rejected. Callers redirect to the login view.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidFileType rejects an upload whose declared content type is
	// outside the allowed set for its field, before any storage call.
	ErrInvalidFileType = errors.New("invalid file type")
)

// ValidationError carries per-field messages for inline display. It is
// resolved locally and never reaches the content store.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for name := range v {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fmt.Sprintf("invalid fields: %s", strings.Join(fields, ", "))
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}
