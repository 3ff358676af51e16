package kis

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket refilled once per second.
type RateLimiter struct {
	requests chan struct{}
	stop     chan struct{}
	once     sync.Once
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}

	rl := &RateLimiter{
		requests: make(chan struct{}, requestsPerSecond),
		stop:     make(chan struct{}),
	}

	for i := 0; i < requestsPerSecond; i++ {
		rl.requests <- struct{}{}
	}

	go rl.refillBucket(requestsPerSecond)

	return rl
}

func (rl *RateLimiter) refillBucket(requestsPerSecond int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			for i := 0; i < requestsPerSecond; i++ {
				select {
				case rl.requests <- struct{}{}:
				default:
					// bucket full
				}
			}
		}
	}
}

// Wait blocks until a request slot is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	select {
	case <-rl.requests:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}
