package ratelimit

import "context"

// RateLimiter bounds our own outbound call rate per platform. It never
// re-issues platform calls on its own; a denied slot surfaces to the caller.
type RateLimiter interface {
	Allow(ctx context.Context, platform string) (bool, error)
	Wait(ctx context.Context, platform string) error
}
