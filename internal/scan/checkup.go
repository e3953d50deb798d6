package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"waas-apply/internal/browser"
	"waas-apply/internal/selectors"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/sync/errgroup"
)

type CheckResult struct {
	Role      string
	Locator   string
	Err       error // locator failed to compile
	OnListing bool
	OnDetail  bool
}

// CheckSelectors exercises every configured locator against live snapshots of
// the listing page and one detail page. Read-only: it never clicks, fills, or
// submits anything.
func CheckSelectors(ctx context.Context, sess browser.Session, sel selectors.Table, listingURL string) ([]CheckResult, error) {
	if err := sess.Navigate(ctx, listingURL); err != nil {
		return nil, fmt.Errorf("navigate listing: %w", err)
	}
	listingHTML, err := sess.HTML(ctx)
	if err != nil {
		return nil, err
	}
	listingDoc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	if err != nil {
		return nil, err
	}

	// One detail page, if the listing yielded anything.
	var detailDoc *goquery.Document
	if stubs, err := ParseListing(listingHTML); err == nil && len(stubs) > 0 {
		if err := sess.Navigate(ctx, stubs[0].URL); err == nil {
			if detailHTML, err := sess.HTML(ctx); err == nil {
				detailDoc, _ = goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
			}
		}
	}

	roles := sel.Roles()
	results := make([]CheckResult, len(roles))
	var mu sync.Mutex

	var g errgroup.Group
	for i, role := range roles {
		i, role := i, role
		g.Go(func() error {
			locator, _ := sel.Find(role)
			res := CheckResult{Role: role, Locator: locator}

			matcher, err := cascadia.Compile(locator)
			if err != nil {
				res.Err = fmt.Errorf("locator does not compile: %w", err)
			} else {
				res.OnListing = listingDoc.FindMatcher(matcher).Length() > 0
				if detailDoc != nil {
					res.OnDetail = detailDoc.FindMatcher(matcher).Length() > 0
				}
			}

			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}
