package scan

import (
	"context"
	"errors"
	"log"
	"time"

	"waas-apply/internal/browser"
	"waas-apply/internal/domain"
	"waas-apply/internal/selectors"
)

// ErrNoMore signals a normally exhausted listing.
var ErrNoMore = errors.New("no more postings")

const maxScrollRounds = 25

// Scanner walks the filtered listing page lazily: stubs already rendered are
// served from a buffer, and when the buffer runs dry it scrolls / clicks
// "load more" to pull the next batch. Restartable across runs because the
// listing URL is derived purely from the configured filters.
type Scanner struct {
	sess    browser.Session
	sel     selectors.Table
	maxJobs int

	buf     []domain.Stub
	next    int
	served  int
	seen    map[string]bool
	rounds  int
	height  int64
	started bool
	done    bool
}

func NewScanner(sess browser.Session, sel selectors.Table, maxJobs int) *Scanner {
	return &Scanner{
		sess:    sess,
		sel:     sel,
		maxJobs: maxJobs,
		seen:    map[string]bool{},
	}
}

// Start navigates to the filtered listing and loads the first batch.
func (s *Scanner) Start(ctx context.Context, url string) error {
	log.Printf("[scan] navigating to jobs page: %s", url)
	if err := s.sess.Navigate(ctx, url); err != nil {
		return err
	}
	s.started = true
	return s.refill(ctx)
}

// Next returns the next unseen posting stub, in page order. Returns ErrNoMore
// when the listing is exhausted or the configured scan limit is reached.
func (s *Scanner) Next(ctx context.Context) (domain.Stub, error) {
	if !s.started {
		return domain.Stub{}, errors.New("scanner not started")
	}
	for {
		if s.maxJobs > 0 && s.served >= s.maxJobs {
			return domain.Stub{}, ErrNoMore
		}
		if s.next < len(s.buf) {
			stub := s.buf[s.next]
			s.next++
			s.served++
			return stub, nil
		}
		if s.done {
			return domain.Stub{}, ErrNoMore
		}
		if err := s.refill(ctx); err != nil {
			return domain.Stub{}, err
		}
	}
}

// refill scrolls for lazily loaded content and re-parses the page, appending
// only stubs it has not handed out before. Two quiet rounds in a row (no new
// stubs, no height change) mark the listing exhausted.
func (s *Scanner) refill(ctx context.Context) error {
	for s.rounds < maxScrollRounds {
		s.rounds++

		html, err := s.sess.HTML(ctx)
		if err != nil {
			return err
		}
		stubs, err := ParseListing(html)
		if err != nil {
			return err
		}

		added := 0
		for _, st := range stubs {
			if s.seen[st.ID] {
				continue
			}
			s.seen[st.ID] = true
			s.buf = append(s.buf, st)
			added++
		}
		if added > 0 {
			log.Printf("[scan] round %d: %d new stubs (%d total)", s.rounds, added, len(s.buf))
			return nil
		}

		height, err := s.sess.ScrollBottom(ctx)
		if err != nil {
			return err
		}
		s.clickMoreButtons(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second): // let lazy content render
		}

		if height == s.height {
			break
		}
		s.height = height
	}

	s.done = true
	if s.next >= len(s.buf) {
		log.Printf("[scan] listing exhausted after %d rounds, %d stubs", s.rounds, len(s.buf))
	}
	return nil
}

func (s *Scanner) clickMoreButtons(ctx context.Context) {
	for _, role := range []string{selectors.RoleLoadMore, selectors.RoleShowMore} {
		css, err := s.sel.Find(role)
		if err != nil {
			continue
		}
		found, err := s.sess.Exists(ctx, css)
		if err != nil || !found {
			continue
		}
		if err := s.sess.Click(ctx, css); err == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(1500 * time.Millisecond):
			}
		}
	}
}
