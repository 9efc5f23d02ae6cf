package gateway

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured reports that a backend has no credentials or address.
	// It routes like any other failure but is logged as expected.
	ErrNotConfigured = errors.New("backend not configured")
	// ErrEmptyMessage is returned when a chat message has no text.
	ErrEmptyMessage = errors.New("message text is empty")
	// ErrInvalidVideo is returned when a video lacks an id or title.
	ErrInvalidVideo = errors.New("video requires id and title")
)

// ExhaustedError is returned by writes that no remote tier accepted.
type ExhaustedError struct {
	Op          string
	Outcomes    []Outcome
	KeptLocally bool
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: every backend failed", e.Op)
	for _, o := range e.Outcomes {
		fmt.Fprintf(&b, "; %s (%s): %v", o.Tier, o.Name, o.Err)
	}
	if e.KeptLocally {
		b.WriteString("; kept on this device")
	}
	return b.String()
}

// Unwrap exposes every tier's cause to errors.Is and errors.As.
func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}
