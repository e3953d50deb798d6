package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// SetupError marks a failure that prevented the run from starting at all
// (missing credential, unreachable session, bad config). It is the only error
// class that propagates to the process boundary.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string { return "setup: " + e.Err.Error() }
func (e *SetupError) Unwrap() error { return e.Err }

// Per-posting failures. All three are caught at the loop boundary, turned
// into a failed ledger record, and never abort the run.

type ExtractionError struct {
	PostingID string
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.PostingID, e.Err)
}
func (e *ExtractionError) Unwrap() error { return e.Err }

type GenerationError struct {
	PostingID string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.PostingID, e.Err)
}
func (e *GenerationError) Unwrap() error { return e.Err }

type SubmissionError struct {
	PostingID string
	Note      string
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s (%s): %v", e.PostingID, e.Note, e.Err)
}
func (e *SubmissionError) Unwrap() error { return e.Err }

// IsTransientNetwork reports whether an error looks like a transient network
// failure worth retrying, as opposed to an application-level failure (missing
// form field, degenerate generation output) that a retry cannot fix.
func IsTransientNetwork(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"http 5",
		"timeout",
		"connection reset",
		"connection refused",
		"connection closed",
		"broken pipe",
		"tls handshake",
		"eof",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
