package browser

import (
	"bufio"
	"context"
	"log"
	"os"
	"time"

	"waas-apply/internal/selectors"
)

const (
	BoardURL = "https://www.workatastartup.com"
	LoginURL = "https://www.workatastartup.com/companies/jobs"
)

// LoggedIn navigates to the board and checks for the authenticated UI marker.
func LoggedIn(ctx context.Context, s Session, sel selectors.Table) (bool, error) {
	if err := s.Navigate(ctx, BoardURL); err != nil {
		return false, err
	}
	css, err := sel.Find(selectors.RoleLoggedIn)
	if err != nil {
		return false, err
	}
	if err := s.WaitVisible(ctx, css, 5*time.Second); err != nil {
		return false, nil
	}
	return true, nil
}

// WaitForManualLogin opens the login page and polls for the logged-in marker
// until the operator finishes signing in or the deadline passes.
func WaitForManualLogin(ctx context.Context, s Session, sel selectors.Table, timeout time.Duration) (bool, error) {
	log.Printf("[browser] please log in to the board in the browser window...")
	if err := s.Navigate(ctx, LoginURL); err != nil {
		return false, err
	}
	css, err := sel.Find(selectors.RoleLoggedIn)
	if err != nil {
		return false, err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := s.WaitVisible(ctx, css, 2*time.Second); err == nil {
			log.Printf("[browser] login detected")
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	log.Printf("[browser] login timeout after %s", timeout)
	return false, nil
}

// CaptchaPresent reports whether a bot challenge is on the current page. The
// captcha role is optional configuration; absent means no detection.
func CaptchaPresent(ctx context.Context, s Session, sel selectors.Table) bool {
	css, err := sel.Find(selectors.RoleCaptcha)
	if err != nil {
		return false
	}
	found, err := s.Exists(ctx, css)
	return err == nil && found
}

// PauseForCaptcha blocks until the operator confirms the challenge is solved.
func PauseForCaptcha() {
	log.Printf("[browser] bot detection triggered! solve the CAPTCHA in the browser, then press Enter.")
	r := bufio.NewReader(os.Stdin)
	_, _ = r.ReadString('\n')
}
