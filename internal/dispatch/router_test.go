package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tnrbusiness/outreach/internal/adapter"
	"github.com/tnrbusiness/outreach/internal/domain"
	"github.com/tnrbusiness/outreach/internal/ratelimit"
	"go.uber.org/zap"
)

type scriptedAdapter struct {
	platform domain.Platform
	remoteID string
	err      error
	calls    atomic.Int64
}

func (s *scriptedAdapter) Platform() domain.Platform { return s.platform }

func (s *scriptedAdapter) Post(context.Context, adapter.PostInput) (*adapter.PostResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &adapter.PostResult{RemoteID: s.remoteID, StatusCode: 200}, nil
}

func (s *scriptedAdapter) Verify(context.Context, domain.Credential) error { return nil }

type scriptedLimiter struct {
	denied map[string]bool
	err    error
}

func (l *scriptedLimiter) Allow(_ context.Context, platform string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return !l.denied[platform], nil
}

func (l *scriptedLimiter) Wait(context.Context, string) error { return nil }

func newTestRouter(t *testing.T, limiter *scriptedLimiter, adapters ...adapter.Adapter) *Router {
	t.Helper()

	registry, err := adapter.NewRegistry(adapters...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	var rl ratelimit.RateLimiter
	if limiter != nil {
		rl = limiter
	}
	router, err := NewRouter(registry, rl, zap.NewNop(), time.Second)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return router
}

func TestDispatchPreservesRequestOrder(t *testing.T) {
	t.Parallel()

	facebook := &scriptedAdapter{platform: domain.PlatformFacebook, remoteID: "fb-1"}
	twitter := &scriptedAdapter{
		platform: domain.PlatformTwitter,
		err:      &adapter.Error{Kind: domain.FailureTransientNetwork, Message: "connection reset"},
	}
	linkedin := &scriptedAdapter{platform: domain.PlatformLinkedIn, remoteID: "li-1"}

	router := newTestRouter(t, nil, facebook, twitter, linkedin)

	results, err := router.Dispatch(context.Background(), domain.DispatchRequest{
		Platforms: []domain.Platform{domain.PlatformTwitter, domain.PlatformLinkedIn, domain.PlatformFacebook},
		Content:   "Grand opening this Saturday",
	})
	if err != nil {
		t.Fatalf("Dispatch() unexpected error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	wantOrder := []domain.Platform{domain.PlatformTwitter, domain.PlatformLinkedIn, domain.PlatformFacebook}
	for i, want := range wantOrder {
		if results[i].Platform != want {
			t.Fatalf("results[%d].Platform = %q, want %q", i, results[i].Platform, want)
		}
	}

	if results[0].Success {
		t.Fatal("twitter result succeeded, want failure")
	}
	if results[0].Error == nil || results[0].Error.Kind != domain.FailureTransientNetwork {
		t.Fatalf("twitter error = %+v, want TRANSIENT_NETWORK", results[0].Error)
	}
	if !results[1].Success || results[1].RemoteID != "li-1" {
		t.Fatalf("linkedin result = %+v, want success with remote id", results[1])
	}
	if !results[2].Success || results[2].RemoteID != "fb-1" {
		t.Fatalf("facebook result = %+v, want success with remote id", results[2])
	}
}

func TestDispatchFailureDoesNotCancelOthers(t *testing.T) {
	t.Parallel()

	failing := &scriptedAdapter{
		platform: domain.PlatformWix,
		err:      &adapter.Error{Kind: domain.FailureExpired, Message: "token expired"},
	}
	healthy := &scriptedAdapter{platform: domain.PlatformWhatsApp, remoteID: "wa-1"}

	router := newTestRouter(t, nil, failing, healthy)

	results, err := router.Dispatch(context.Background(), domain.DispatchRequest{
		Platforms: []domain.Platform{domain.PlatformWix, domain.PlatformWhatsApp},
		Content:   "hello",
	})
	if err != nil {
		t.Fatalf("Dispatch() unexpected error = %v", err)
	}

	if healthy.calls.Load() != 1 {
		t.Fatalf("healthy adapter called %d times, want 1", healthy.calls.Load())
	}
	if !results[1].Success {
		t.Fatal("healthy platform should succeed despite the other failing")
	}
}

func TestDispatchUnknownPlatformYieldsNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, nil, &scriptedAdapter{platform: domain.PlatformFacebook, remoteID: "fb-1"})

	results, err := router.Dispatch(context.Background(), domain.DispatchRequest{
		Platforms: []domain.Platform{domain.PlatformFacebook, domain.PlatformTwitter},
		Content:   "hello",
	})
	if err != nil {
		t.Fatalf("Dispatch() unexpected error = %v", err)
	}

	if results[1].Success {
		t.Fatal("unregistered platform reported success")
	}
	if results[1].Error == nil || results[1].Error.Kind != domain.FailureNotFound {
		t.Fatalf("error = %+v, want NOT_FOUND", results[1].Error)
	}
}

func TestDispatchRateLimitedSkipsPlatformCall(t *testing.T) {
	t.Parallel()

	throttled := &scriptedAdapter{platform: domain.PlatformTwitter, remoteID: "tw-1"}
	limiter := &scriptedLimiter{denied: map[string]bool{"twitter": true}}
	router := newTestRouter(t, limiter, throttled)

	results, err := router.Dispatch(context.Background(), domain.DispatchRequest{
		Platforms: []domain.Platform{domain.PlatformTwitter},
		Content:   "hello",
	})
	if err != nil {
		t.Fatalf("Dispatch() unexpected error = %v", err)
	}

	if throttled.calls.Load() != 0 {
		t.Fatalf("adapter called %d times while rate limited, want 0", throttled.calls.Load())
	}
	if results[0].Error == nil || results[0].Error.Kind != domain.FailureRateLimited {
		t.Fatalf("error = %+v, want RATE_LIMITED", results[0].Error)
	}
}

func TestDispatchLimiterErrorFailsOpen(t *testing.T) {
	t.Parallel()

	adp := &scriptedAdapter{platform: domain.PlatformFacebook, remoteID: "fb-1"}
	limiter := &scriptedLimiter{err: errors.New("redis down")}
	router := newTestRouter(t, limiter, adp)

	results, err := router.Dispatch(context.Background(), domain.DispatchRequest{
		Platforms: []domain.Platform{domain.PlatformFacebook},
		Content:   "hello",
	})
	if err != nil {
		t.Fatalf("Dispatch() unexpected error = %v", err)
	}

	if !results[0].Success {
		t.Fatalf("result = %+v, want success when the limiter itself is down", results[0])
	}
}

func TestDispatchWithoutLimiterConfigured(t *testing.T) {
	t.Parallel()

	adp := &scriptedAdapter{platform: domain.PlatformLinkedIn, remoteID: "li-9"}
	router := newTestRouter(t, nil, adp)

	results, err := router.Dispatch(context.Background(), domain.DispatchRequest{
		Platforms: []domain.Platform{domain.PlatformLinkedIn},
		Content:   "hello",
	})
	if err != nil {
		t.Fatalf("Dispatch() unexpected error = %v", err)
	}
	if !results[0].Success || results[0].RemoteID != "li-9" {
		t.Fatalf("result = %+v, want successful dispatch with no limiter", results[0])
	}
	if got := adp.calls.Load(); got != 1 {
		t.Fatalf("adapter calls = %d, want 1", got)
	}
}

func TestDispatchEmptyPlatforms(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, nil, &scriptedAdapter{platform: domain.PlatformFacebook})

	results, err := router.Dispatch(context.Background(), domain.DispatchRequest{
		Platforms: []domain.Platform{},
		Content:   "hello",
	})
	if err != nil {
		t.Fatalf("Dispatch() unexpected error = %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("len(results) = %d, want 0", len(results))
	}
}

func TestDispatchRejectsInvalidRequest(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, nil, &scriptedAdapter{platform: domain.PlatformFacebook})

	tests := []struct {
		name string
		req  domain.DispatchRequest
	}{
		{
			name: "empty content",
			req:  domain.DispatchRequest{Platforms: []domain.Platform{domain.PlatformFacebook}, Content: "  "},
		},
		{
			name: "duplicate platform",
			req: domain.DispatchRequest{
				Platforms: []domain.Platform{domain.PlatformFacebook, domain.PlatformFacebook},
				Content:   "hello",
			},
		},
		{
			name: "unknown platform name",
			req: domain.DispatchRequest{
				Platforms: []domain.Platform{domain.Platform("MYSPACE")},
				Content:   "hello",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := router.Dispatch(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Dispatch() error = %v, want ErrValidation", err)
			}
		})
	}
}
