// Package orchestrator drives postings through extract -> generate -> review
// -> submit -> record, one at a time, in scanner order. It owns the run's
// invariants: never two sent records for one posting, never more than cap
// sent in a run, never a failed submission recorded as sent, and no
// per-posting failure ever aborts the run.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"waas-apply/internal/browser"
	"waas-apply/internal/config"
	"waas-apply/internal/domain"
	"waas-apply/internal/generate"
	"waas-apply/internal/review"
	"waas-apply/internal/scan"
	"waas-apply/internal/submit"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeLive   Mode = "live"
	ModeDryRun Mode = "dry_run"
)

// Narrow views of the collaborators, so tests can script every stage.

type Scanner interface {
	Start(ctx context.Context, url string) error
	Next(ctx context.Context) (domain.Stub, error)
}

type Extractor interface {
	Fetch(ctx context.Context, stub domain.Stub) (domain.Posting, error)
}

type Generator interface {
	Generate(ctx context.Context, profile config.Profile, p domain.Posting) (domain.Draft, error)
}

type Gate interface {
	Present(p domain.Posting, draft domain.Draft, number, total int) (review.Outcome, error)
}

type Submitter interface {
	Submit(ctx context.Context, p domain.Posting, message string) (submit.Result, error)
	OnPage(ctx context.Context, p domain.Posting) (bool, error)
}

type Ledger interface {
	HasSent(ctx context.Context, postingID string) (bool, error)
	Append(ctx context.Context, rec domain.ApplicationRecord) error
	Inconclusive(ctx context.Context) (map[string]bool, error)
	PendingMessage(ctx context.Context, postingID string) (string, error)
}

type Deps struct {
	Session   browser.Session // exclusive for the run; released on every exit path
	Scanner   Scanner
	Extractor Extractor
	Generator Generator
	Gate      Gate
	Submitter Submitter
	Ledger    Ledger

	Profile config.Profile
	Message config.Message

	Retry RetryPolicy
	Pacer *Pacer
}

type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	Scanned    int
	Deduped    int
	Sent       int
	Skipped    int
	Failed     int
	DryRun     int
	Truncated  bool // operator abort
	CapReached bool
}

type Orchestrator struct {
	deps Deps
}

func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// Run processes the filtered listing until the cap, the operator, or the
// listing itself stops it. Mode is fixed for the whole run. The returned
// error is setup-class only; per-posting failures land in the ledger.
func (o *Orchestrator) Run(ctx context.Context, filters config.Filters, cap int, mode Mode) (RunSummary, error) {
	summary := RunSummary{
		RunID:     uuid.NewString()[:8],
		StartedAt: time.Now().UTC(),
	}
	if cap < 1 {
		return summary, &SetupError{Err: errors.New("application cap must be > 0")}
	}
	if o.deps.Session != nil {
		defer o.deps.Session.Close()
	}

	log.Printf("[run %s] starting: cap=%d mode=%s", summary.RunID, cap, mode)

	inconclusive, err := o.deps.Ledger.Inconclusive(ctx)
	if err != nil {
		return summary, &SetupError{Err: err}
	}
	if len(inconclusive) > 0 {
		log.Printf("[run %s] %d posting(s) with inconclusive prior submissions; will re-verify on sight",
			summary.RunID, len(inconclusive))
	}

	if err := o.deps.Scanner.Start(ctx, scan.BuildJobsURL(filters)); err != nil {
		return summary, &SetupError{Err: err}
	}

	for {
		if summary.Sent >= cap {
			log.Printf("[run %s] cap reached (%d sent), stopping", summary.RunID, summary.Sent)
			summary.CapReached = true
			break
		}

		stub, err := o.deps.Scanner.Next(ctx)
		if errors.Is(err, scan.ErrNoMore) {
			break
		}
		if err != nil {
			// A dead scanner mid-run cannot be recovered posting-by-posting;
			// stop here, everything recorded so far stays valid.
			log.Printf("[run %s] scanner failed, ending run: %v", summary.RunID, err)
			summary.Truncated = true
			break
		}
		summary.Scanned++

		abort, err := o.processOne(ctx, &summary, stub, inconclusive, filters, cap, mode)
		if err != nil {
			// processOne only returns context errors
			log.Printf("[run %s] cancelled: %v", summary.RunID, err)
			summary.Truncated = true
			break
		}
		if abort {
			log.Printf("[run %s] operator aborted the session", summary.RunID)
			summary.Truncated = true
			break
		}
	}

	log.Printf("[run %s] done: scanned=%d sent=%d skipped=%d failed=%d dry_run=%d deduped=%d",
		summary.RunID, summary.Scanned, summary.Sent, summary.Skipped,
		summary.Failed, summary.DryRun, summary.Deduped)
	return summary, nil
}

// processOne runs one posting through the stages. Per-posting failures are
// recorded and swallowed; the bool result is the operator's abort.
func (o *Orchestrator) processOne(ctx context.Context, summary *RunSummary, stub domain.Stub,
	inconclusive map[string]bool, filters config.Filters, cap int, mode Mode) (abort bool, err error) {

	d := &o.deps

	// 1. Dedup: a sent record from any run wins, silently. If the ledger
	// cannot answer, skip the posting rather than risk a double apply.
	sentAlready, ledgerErr := d.Ledger.HasSent(ctx, stub.ID)
	if ledgerErr != nil {
		log.Printf("[run %s] dedup lookup failed for %s, skipping: %v", summary.RunID, stub.ID, ledgerErr)
		return false, ctx.Err()
	}
	if sentAlready {
		summary.Deduped++
		return false, ctx.Err()
	}

	// 1b. Inconclusive prior submission: the last record for this posting is
	// a pending with no outcome. Re-verification drives the live page through
	// the submitter and may produce a sent record, so it only happens in a
	// live run. A dry run steps over the posting without appending anything,
	// keeping the pending record latest for a future live run to resolve.
	if inconclusive[stub.ID] {
		if mode != ModeLive {
			log.Printf("[run %s] %s has an inconclusive prior submission; leaving it for a live run",
				summary.RunID, stub.ID)
			summary.Skipped++
			return false, ctx.Err()
		}
		if recovered := o.recoverInconclusive(ctx, summary, stub); recovered {
			return false, ctx.Err()
		}
	}

	// 2. Detail fetch. Transient network errors retry; anything left records
	// a failure and moves on.
	var posting domain.Posting
	fetchErr := d.Retry.Do(ctx, "detail fetch", func(ctx context.Context) error {
		var err error
		posting, err = d.Extractor.Fetch(ctx, stub)
		return err
	})
	if fetchErr != nil {
		perr := &ExtractionError{PostingID: stub.ID, Err: fetchErr}
		log.Printf("[run %s] %v", summary.RunID, perr)
		o.record(ctx, summary, recordFor(postingFromStub(stub), "", domain.StatusFailed, perr.Error()))
		summary.Failed++
		return false, o.pace(ctx)
	}

	// 2b. Post-extraction location filter: the board's URL filters are
	// coarse, so listings outside the allowlist get an automatic skip.
	if keep, why := scan.KeepPosting(filters, posting); !keep {
		o.record(ctx, summary, recordFor(posting, "", domain.StatusSkipped, why))
		summary.Skipped++
		return false, o.pace(ctx)
	}

	// 3. Generation, same failure handling. The fallback template is only a
	// stand-in when configured, and still goes through review.
	var draft domain.Draft
	genErr := d.Retry.Do(ctx, "message generation", func(ctx context.Context) error {
		var err error
		draft, err = d.Generator.Generate(ctx, d.Profile, posting)
		return err
	})
	if genErr != nil {
		if d.Message.AllowFallback {
			log.Printf("[run %s] generation failed for %s, offering fallback template: %v",
				summary.RunID, posting.ID, genErr)
			draft = domain.NewDraft(posting.ID, generate.FallbackMessage(d.Profile, posting))
		} else {
			perr := &GenerationError{PostingID: posting.ID, Err: genErr}
			log.Printf("[run %s] %v", summary.RunID, perr)
			o.record(ctx, summary, recordFor(posting, "", domain.StatusFailed, perr.Error()))
			summary.Failed++
			return false, o.pace(ctx)
		}
	}

	// 4. Review gate.
	outcome, gateErr := d.Gate.Present(posting, draft, summary.Scanned, 0)
	if gateErr != nil {
		log.Printf("[run %s] review gate failed for %s: %v", summary.RunID, posting.ID, gateErr)
		o.record(ctx, summary, recordFor(posting, "", domain.StatusFailed, "review: "+gateErr.Error()))
		summary.Failed++
		return false, o.pace(ctx)
	}

	message := outcome.Text
	switch outcome.Decision {
	case review.Abort:
		return true, nil
	case review.Skip:
		o.record(ctx, summary, recordFor(posting, "", domain.StatusSkipped, "operator_skip"))
		summary.Skipped++
		return false, o.pace(ctx)
	case review.ApproveEdited:
		if strings.TrimSpace(message) == "" {
			// an edit down to nothing is a skip, not an empty application
			o.record(ctx, summary, recordFor(posting, "", domain.StatusSkipped, "edited_to_empty"))
			summary.Skipped++
			return false, o.pace(ctx)
		}
	case review.Approve:
		// unmodified draft
	}

	// 5. Submission.
	if mode == ModeDryRun {
		o.record(ctx, summary, recordFor(posting, message, domain.StatusDryRun, ""))
		summary.DryRun++
		return false, o.pace(ctx)
	}

	// A pending record lands before the submitter runs, so a crash mid-submit
	// leaves evidence instead of silence.
	o.record(ctx, summary, recordFor(posting, message, domain.StatusPending, "submission_started"))

	var res submit.Result
	subErr := d.Retry.Do(ctx, "submission", func(ctx context.Context) error {
		var err error
		res, err = d.Submitter.Submit(ctx, posting, message)
		return err
	})
	if subErr != nil {
		note := "submit_failed"
		var se *submit.Error
		if errors.As(subErr, &se) {
			note = se.Note
		}
		perr := &SubmissionError{PostingID: posting.ID, Note: note, Err: subErr}
		log.Printf("[run %s] %v", summary.RunID, perr)
		// Never counted as sent: the posting stays eligible for a future run.
		o.record(ctx, summary, recordFor(posting, "", domain.StatusFailed, perr.Error()))
		summary.Failed++
		return false, o.pace(ctx)
	}

	if res == submit.AlreadyApplied {
		o.record(ctx, summary, recordFor(posting, "", domain.StatusSkipped, "already_applied_on_site"))
		summary.Skipped++
		return false, o.pace(ctx)
	}

	o.record(ctx, summary, recordFor(posting, message, domain.StatusSent, ""))
	summary.Sent++
	log.Printf("[run %s] sent %d/%d: %s at %s", summary.RunID, summary.Sent, cap,
		posting.Title, posting.Company.Name)
	return false, o.pace(ctx)
}

// recoverInconclusive checks the live page for a posting whose last ledger
// record is pending. If the board shows an application, the interrupted
// submission actually landed: record it as sent (with the captured message)
// and count it against this run's cap, since a sent record is being produced
// now. Returns true when the posting needs no further processing.
func (o *Orchestrator) recoverInconclusive(ctx context.Context, summary *RunSummary, stub domain.Stub) bool {
	posting := postingFromStub(stub)
	applied, err := o.deps.Submitter.OnPage(ctx, posting)
	if err != nil {
		log.Printf("[run %s] could not re-verify inconclusive posting %s: %v",
			summary.RunID, stub.ID, err)
		// leave it pending; do not risk a double apply
		o.record(ctx, summary, recordFor(posting, "", domain.StatusSkipped, "inconclusive_unverifiable"))
		summary.Skipped++
		return true
	}
	if !applied {
		// submission never landed; process normally
		return false
	}

	msg, _ := o.deps.Ledger.PendingMessage(ctx, stub.ID)
	o.record(ctx, summary, recordFor(posting, msg, domain.StatusSent, "recovered_interrupted_submission"))
	summary.Sent++
	log.Printf("[run %s] recovered interrupted submission for %s", summary.RunID, stub.ID)
	return true
}

// record logs instead of failing the run if the append errors: the ledger is
// audit truth, but a single bad write must not take down the session. The
// dedup pre-check does not depend on this record existing.
func (o *Orchestrator) record(ctx context.Context, summary *RunSummary, rec domain.ApplicationRecord) {
	if err := o.deps.Ledger.Append(ctx, rec); err != nil {
		log.Printf("[run %s] LEDGER APPEND FAILED for %s: %v", summary.RunID, rec.PostingID, err)
	}
}

func (o *Orchestrator) pace(ctx context.Context) error {
	if o.deps.Pacer == nil {
		return ctx.Err()
	}
	if err := o.deps.Pacer.Wait(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

func recordFor(p domain.Posting, message string, status domain.Status, notes string) domain.ApplicationRecord {
	return domain.ApplicationRecord{
		PostingID:   p.ID,
		CompanyName: p.Company.Name,
		JobTitle:    p.Title,
		URL:         p.URL,
		MessageSent: message,
		Status:      status,
		Timestamp:   time.Now().UTC(),
		Notes:       notes,
	}
}

func postingFromStub(stub domain.Stub) domain.Posting {
	return domain.Posting{
		ID:      stub.ID,
		Title:   stub.Title,
		URL:     stub.URL,
		Company: domain.Company{Name: stub.CompanyName, Description: stub.Blurb},
	}
}
