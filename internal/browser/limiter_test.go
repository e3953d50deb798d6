package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"waas-apply/internal/selectors"
)

type stubSession struct {
	navigated  []string
	visibleErr error
	existing   map[string]bool
}

func (s *stubSession) Navigate(ctx context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return nil
}

func (s *stubSession) CurrentURL(ctx context.Context) (string, error) { return "", nil }

func (s *stubSession) HTML(ctx context.Context) (string, error) { return "", nil }

func (s *stubSession) Exists(ctx context.Context, css string) (bool, error) {
	return s.existing[css], nil
}

func (s *stubSession) Click(ctx context.Context, css string) error { return nil }

func (s *stubSession) Fill(ctx context.Context, css, text string) error { return nil }

func (s *stubSession) WaitVisible(ctx context.Context, css string, timeout time.Duration) error {
	return s.visibleErr
}

func (s *stubSession) WaitHidden(ctx context.Context, css string, timeout time.Duration) error {
	return nil
}

func (s *stubSession) PressEscape(ctx context.Context) error { return nil }

func (s *stubSession) ScrollBottom(ctx context.Context) (int64, error) { return 0, nil }

func (s *stubSession) Close() error { return nil }

func TestPacedNavigatePassesThrough(t *testing.T) {
	inner := &stubSession{}
	p := NewPaced(inner, 1000, 10)

	if err := p.Navigate(context.Background(), "https://a.test/x"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if len(inner.navigated) != 1 || inner.navigated[0] != "https://a.test/x" {
		t.Errorf("navigated = %v", inner.navigated)
	}
}

func TestPacedThrottlesSameHost(t *testing.T) {
	inner := &stubSession{}
	p := NewPaced(inner, 50, 1) // 20ms between requests after the burst

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Navigate(ctx, "https://a.test/x"); err != nil {
			t.Fatalf("Navigate %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("three navigations took %v; the limiter is not pacing", elapsed)
	}
	if len(inner.navigated) != 3 {
		t.Errorf("navigated %d times", len(inner.navigated))
	}
}

func TestPacedHonorsCancellation(t *testing.T) {
	p := NewPaced(&stubSession{}, 0.001, 1)
	ctx := context.Background()

	// Burn the burst token, then a cancelled wait must surface.
	if err := p.Navigate(ctx, "https://a.test/x"); err != nil {
		t.Fatal(err)
	}
	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := p.Navigate(cctx, "https://a.test/x"); err == nil {
		t.Fatal("Navigate should fail when the limiter wait outlives the context")
	}
}

func TestLoggedIn(t *testing.T) {
	sel := selectors.Table{selectors.RoleLoggedIn: "a.profile"}

	sess := &stubSession{}
	ok, err := LoggedIn(context.Background(), sess, sel)
	if err != nil || !ok {
		t.Errorf("LoggedIn = %v, %v; want true", ok, err)
	}
	if len(sess.navigated) != 1 || sess.navigated[0] != BoardURL {
		t.Errorf("navigated = %v", sess.navigated)
	}

	sess = &stubSession{visibleErr: errors.New("timeout")}
	ok, err = LoggedIn(context.Background(), sess, sel)
	if err != nil {
		t.Fatalf("an absent marker is not an error: %v", err)
	}
	if ok {
		t.Error("LoggedIn true without the marker")
	}
}

func TestCaptchaPresent(t *testing.T) {
	ctx := context.Background()

	// No captcha role configured: detection is off.
	if CaptchaPresent(ctx, &stubSession{}, selectors.Table{}) {
		t.Error("captcha reported with no locator configured")
	}

	sel := selectors.Table{selectors.RoleCaptcha: "iframe.captcha"}
	sess := &stubSession{existing: map[string]bool{"iframe.captcha": true}}
	if !CaptchaPresent(ctx, sess, sel) {
		t.Error("captcha on the page not detected")
	}
	if CaptchaPresent(ctx, &stubSession{}, sel) {
		t.Error("captcha reported on a clean page")
	}
}
