package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tnrbusiness/outreach/internal/domain"
	"github.com/tnrbusiness/outreach/internal/observability"
	"github.com/tnrbusiness/outreach/internal/repository"
	"go.uber.org/zap"
)

// Dispatcher fans a request out to the platform adapters.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.DispatchRequest) ([]domain.DispatchResult, error)
}

// EventEmitter raises fire-and-forget notification events.
type EventEmitter interface {
	Notify(ctx context.Context, kind domain.EventKind, payload map[string]any)
}

// PostService owns the post lifecycle: accept a dispatch request, record it,
// fan it out (now or when due), and persist the per-platform results.
type PostService struct {
	posts    repository.PostRepository
	router   Dispatcher
	notifier EventEmitter
	logger   *zap.Logger
	now      func() time.Time
}

func NewPostService(posts repository.PostRepository, router Dispatcher, notifier EventEmitter, logger *zap.Logger) (*PostService, error) {
	if posts == nil {
		return nil, fmt.Errorf("post repository is required")
	}
	if router == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PostService{
		posts:    posts,
		router:   router,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Create accepts a dispatch request. A request scheduled for the future is
// stored and left for the scheduler; anything else is dispatched immediately.
// A scheduled time in the past is treated as "now".
func (s *PostService) Create(ctx context.Context, req domain.DispatchRequest) (*domain.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:          uuid.NewString(),
		Platforms:   req.Platforms,
		Content:     req.Content,
		Media:       req.Media,
		Status:      domain.PostStatusScheduled,
		ScheduledAt: req.ScheduledAt,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("recording post: %w", err)
	}

	if req.ScheduledAt != nil && req.ScheduledAt.After(s.now()) {
		observability.WithContextLogger(s.logger, ctx).Info("post scheduled",
			zap.String("post_id", post.ID),
			zap.Time("scheduled_at", *req.ScheduledAt),
		)
		return post, nil
	}

	return s.dispatchPost(ctx, post)
}

// DispatchExisting runs a stored post through the router. Used by the
// scheduler when a scheduled post comes due.
func (s *PostService) DispatchExisting(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if post == nil {
		return nil, fmt.Errorf("%w: post is required", domain.ErrValidation)
	}
	if post.Status != domain.PostStatusScheduled {
		return nil, fmt.Errorf("%w: post %s is %s, only scheduled posts can be dispatched", domain.ErrConflict, post.ID, post.Status)
	}
	return s.dispatchPost(ctx, post)
}

func (s *PostService) dispatchPost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	logger := observability.WithContextLogger(s.logger, ctx)

	// The claim is exclusive. A post that cannot be claimed was already
	// picked up elsewhere, so no platform call is made for it; this also
	// keeps a post whose result write failed from being dispatched again
	// on the next scheduler scan.
	if err := s.posts.ClaimForDispatch(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("claiming post %s: %w", post.ID, err)
	}

	results, err := s.router.Dispatch(ctx, domain.DispatchRequest{
		Platforms: post.Platforms,
		Content:   post.Content,
		Media:     post.Media,
	})
	if err != nil {
		return nil, err
	}

	status := domain.AggregateStatus(results)
	if err := s.posts.SetResults(ctx, post.ID, status, results); err != nil {
		// The platform calls already happened; the caller still gets the
		// results even when recording them fails.
		logger.Error("failed to record dispatch results",
			zap.String("post_id", post.ID),
			zap.Error(err),
		)
	}

	post.Status = status
	post.Results = results

	logger.Info("post dispatched",
		zap.String("post_id", post.ID),
		zap.String("status", status.String()),
		zap.Int("platforms", len(results)),
	)

	if s.notifier != nil && (status == domain.PostStatusSent || status == domain.PostStatusPartial) {
		s.notifier.Notify(ctx, domain.EventCampaignSent, map[string]any{
			"post_id": post.ID,
			"status":  status.String(),
		})
	}

	return post, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: post id is required", domain.ErrValidation)
	}
	return s.posts.GetByID(ctx, id)
}

func (s *PostService) List(ctx context.Context, params repository.PostListParams) ([]domain.Post, int64, error) {
	return s.posts.List(ctx, params)
}
