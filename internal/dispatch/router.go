package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/tnrbusiness/outreach/internal/adapter"
	"github.com/tnrbusiness/outreach/internal/domain"
	"github.com/tnrbusiness/outreach/internal/observability"
	"github.com/tnrbusiness/outreach/internal/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultAdapterTimeout = 15 * time.Second

// Router fans a dispatch request out to the requested platform adapters.
// Each platform gets one independent attempt; one platform failing never
// cancels or retries another. Results come back in request order.
type Router struct {
	registry *adapter.Registry
	limiter  ratelimit.RateLimiter
	logger   *zap.Logger
	timeout  time.Duration
	metrics  *observability.Metrics
}

func NewRouter(registry *adapter.Registry, limiter ratelimit.RateLimiter, logger *zap.Logger, timeout time.Duration) (*Router, error) {
	if registry == nil {
		return nil, fmt.Errorf("adapter registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultAdapterTimeout
	}

	return &Router{
		registry: registry,
		limiter:  limiter,
		logger:   logger,
		timeout:  timeout,
	}, nil
}

func (r *Router) SetMetrics(metrics *observability.Metrics) {
	r.metrics = metrics
}

// Dispatch validates the request and runs one attempt per platform
// concurrently. The returned slice always has one entry per requested
// platform, in the order the request named them.
func (r *Router) Dispatch(ctx context.Context, req domain.DispatchRequest) ([]domain.DispatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(req.Platforms) == 0 {
		return []domain.DispatchResult{}, nil
	}

	input := adapter.PostInput{Content: req.Content, Media: req.Media}
	results := make([]domain.DispatchResult, len(req.Platforms))

	g, ctx := errgroup.WithContext(ctx)
	for i, platform := range req.Platforms {
		i, platform := i, platform
		g.Go(func() error {
			results[i] = r.dispatchOne(ctx, platform, input)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func (r *Router) dispatchOne(ctx context.Context, platform domain.Platform, input adapter.PostInput) domain.DispatchResult {
	result := domain.DispatchResult{Platform: platform}

	adp, ok := r.registry.Lookup(platform)
	if !ok {
		result.Error = &domain.ErrorDetail{
			Kind:    domain.FailureNotFound,
			Message: fmt.Sprintf("no adapter registered for platform %q", platform),
		}
		return result
	}

	if r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, platform.String())
		if err != nil {
			// A broken limiter must not block outbound posts.
			r.logger.Warn("rate limiter unavailable, allowing dispatch",
				zap.String("platform", platform.String()),
				zap.Error(err),
			)
		} else if !allowed {
			result.Error = &domain.ErrorDetail{
				Kind:    domain.FailureRateLimited,
				Message: "outbound rate limit reached, slow down",
			}
			if r.metrics != nil {
				r.metrics.IncPostFailed(platform.String(), domain.FailureRateLimited.String())
			}
			return result
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.metrics != nil {
		r.metrics.IncInFlight()
		defer r.metrics.DecInFlight()
	}

	start := time.Now()
	posted, err := adp.Post(callCtx, input)
	elapsed := time.Since(start)

	if r.metrics != nil {
		r.metrics.ObserveSendDuration(platform.String(), elapsed)
	}

	if err != nil {
		result.Error = adapter.Detail(err)
		r.logger.Warn("platform dispatch failed",
			zap.String("platform", platform.String()),
			zap.String("failure_kind", result.Error.Kind.String()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		if r.metrics != nil {
			r.metrics.IncPostFailed(platform.String(), result.Error.Kind.String())
		}
		return result
	}

	result.Success = true
	result.RemoteID = posted.RemoteID
	r.logger.Info("platform dispatch succeeded",
		zap.String("platform", platform.String()),
		zap.String("remote_id", posted.RemoteID),
		zap.Duration("elapsed", elapsed),
	)
	if r.metrics != nil {
		r.metrics.IncPostSent(platform.String())
	}
	return result
}
