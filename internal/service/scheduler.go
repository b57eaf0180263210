package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tnrbusiness/outreach/internal/observability"
	"github.com/tnrbusiness/outreach/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSchedulerScanInterval = 15 * time.Second
	defaultSchedulerScanLimit    = 50
)

// Scheduler periodically dispatches scheduled posts that have come due.
type Scheduler struct {
	posts    repository.PostRepository
	service  *PostService
	logger   *zap.Logger
	metrics  *observability.Metrics
	interval time.Duration
	limit    int
	now      func() time.Time
}

func NewScheduler(
	posts repository.PostRepository,
	service *PostService,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*Scheduler, error) {
	if posts == nil {
		return nil, fmt.Errorf("post repository is required")
	}
	if service == nil {
		return nil, fmt.Errorf("post service is required")
	}
	if interval <= 0 {
		interval = defaultSchedulerScanInterval
	}
	if limit <= 0 {
		limit = defaultSchedulerScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		posts:    posts,
		service:  service,
		logger:   logger,
		interval: interval,
		limit:    limit,
		now:      time.Now,
	}, nil
}

func (s *Scheduler) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

func (s *Scheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.scanDue(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("scheduler initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scanDue(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("scheduler scan failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) scanDue(ctx context.Context) error {
	duePosts, err := s.posts.GetDueScheduled(ctx, s.now(), s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch due scheduled posts: %w", err)
	}

	for i := range duePosts {
		post := duePosts[i]
		if _, err := s.service.DispatchExisting(ctx, &post); err != nil {
			s.logger.Error("failed to dispatch scheduled post",
				zap.String("post_id", post.ID),
				zap.Error(err),
			)
			if s.metrics != nil {
				s.metrics.IncScheduledFailed()
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.IncScheduledDispatched()
		}
	}

	return nil
}
