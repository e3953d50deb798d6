package browser

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiter rate-limits per hostname so a run can never hammer the board
// faster than the configured budget, whatever the orchestrator is doing.
type hostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

func newHostLimiter(reqPerSec float64, burst int) *hostLimiter {
	return &hostLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Limit(reqPerSec),
		b: burst,
	}
}

func (hl *hostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, hl.b)
	hl.m[host] = lim
	return lim
}

func (hl *hostLimiter) waitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return hl.limiterFor("_").Wait(ctx)
	}
	return hl.limiterFor(u.Host).Wait(ctx)
}

// Paced wraps a Session so every navigation waits on the per-host limiter.
// Everything else passes straight through.
type Paced struct {
	Session
	lim *hostLimiter
}

func NewPaced(s Session, reqPerSec float64, burst int) *Paced {
	return &Paced{Session: s, lim: newHostLimiter(reqPerSec, burst)}
}

func (p *Paced) Navigate(ctx context.Context, url string) error {
	if err := p.lim.waitURL(ctx, url); err != nil {
		return err
	}
	return p.Session.Navigate(ctx, url)
}

var (
	_ Session = (*Chrome)(nil)
	_ Session = (*Paced)(nil)
)
