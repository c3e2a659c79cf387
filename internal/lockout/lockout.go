package lockout

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const keyLoginFailures = "login:failures:%s"

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// AttemptStore counts events per key. The first Incr of a key starts a TTL
// of window; the key disappears when it runs out.
type AttemptStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type Guard struct {
	Store       AttemptStore
	MaxAttempts int64
	Window      time.Duration
}

func NewGuard(store AttemptStore, maxAttempts int, window time.Duration) *Guard {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{Store: store, MaxAttempts: int64(maxAttempts), Window: window}
}

func key(identity string) string {
	return fmt.Sprintf(keyLoginFailures, strings.ToLower(strings.TrimSpace(identity)))
}

// Locked reports whether identity has used up its attempts in the current window.
func (g *Guard) Locked(ctx context.Context, identity string) (bool, error) {
	n, err := g.Store.Get(ctx, key(identity))
	if err != nil {
		return false, err
	}
	return n >= g.MaxAttempts, nil
}

func (g *Guard) Fail(ctx context.Context, identity string) (int64, error) {
	return g.Store.Incr(ctx, key(identity), g.Window)
}

func (g *Guard) Succeed(ctx context.Context, identity string) error {
	return g.Store.Reset(ctx, key(identity))
}
