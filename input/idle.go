/*
NAME
  idle.go

DESCRIPTION
  idle.go detects a live source that has stopped producing data: a
  token-bucket limiter (golang.org/x/time/rate) is used in reverse, as
  a deadman's switch rather than a rate cap, counting down to zero if
  Touch is not called often enough.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package input

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IdleTimeout reports whether a live source has gone quiet for longer
// than a configured duration. Touch must be called on every byte
// received; Expired polls whether the timeout has elapsed since.
type IdleTimeout struct {
	mu      sync.Mutex
	limit   rate.Limit
	limiter *rate.Limiter
	timeout time.Duration
}

// NewIdleTimeout returns an IdleTimeout that considers a source idle
// once timeout has elapsed without a Touch call.
func NewIdleTimeout(timeout time.Duration) *IdleTimeout {
	limit := rate.Every(timeout)
	return &IdleTimeout{
		limit:   limit,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
	}
}

// Touch records activity, resetting the idle countdown.
func (t *IdleTimeout) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limiter = rate.NewLimiter(t.limit, 1)
}

// Expired reports whether timeout has elapsed since the last Touch.
// It polls the limiter's token level rather than consuming a token, so
// repeated calls between Touches do not themselves trigger expiry.
func (t *IdleTimeout) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limiter.TokensAt(time.Now()) < 1
}
