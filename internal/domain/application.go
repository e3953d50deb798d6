package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	StatusDryRun  Status = "dry_run"

	// StatusPending marks a submission that was started but whose outcome was
	// never recorded (process killed mid-submit). A posting whose latest
	// record is pending must be re-verified against the live page before any
	// new submission.
	StatusPending Status = "pending"
)

// Terminal reports whether the status is a final outcome for one attempt.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// ApplicationRecord is one row of the ledger. Records are append-only:
// corrections get a new record, never an edit.
type ApplicationRecord struct {
	PostingID   string
	CompanyName string
	JobTitle    string
	URL         string
	MessageSent string // empty for skips and failures before generation
	Status      Status
	Timestamp   time.Time
	Notes       string
}

// Draft is an unapproved candidate message for a posting. An edited draft
// supersedes the generated one; only the final approved text gets recorded.
type Draft struct {
	PostingID   string
	Text        string
	WordCount   int
	CharCount   int
	GeneratedAt time.Time
}

func NewDraft(postingID, text string) Draft {
	return Draft{
		PostingID:   postingID,
		Text:        text,
		WordCount:   len(strings.Fields(text)),
		CharCount:   utf8.RuneCountInString(text),
		GeneratedAt: time.Now().UTC(),
	}
}

// WithText returns a copy carrying new text, recounted.
func (d Draft) WithText(text string) Draft {
	nd := NewDraft(d.PostingID, text)
	nd.GeneratedAt = d.GeneratedAt
	return nd
}
