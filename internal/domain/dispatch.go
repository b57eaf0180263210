package domain

import (
	"fmt"
	"strings"
	"time"
)

// DispatchRequest is a single logical "post" fanned out to one or more
// platforms. Immutable once submitted to the router.
type DispatchRequest struct {
	Platforms   []Platform
	Content     string
	Media       []string
	ScheduledAt *time.Time
}

func (r DispatchRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}

	seen := make(map[Platform]struct{}, len(r.Platforms))
	for _, p := range r.Platforms {
		if !p.IsValid() {
			return fmt.Errorf("%w: invalid platform %q", ErrValidation, p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate platform %q", ErrValidation, p)
		}
		seen[p] = struct{}{}
	}

	for _, m := range r.Media {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("%w: media url must not be empty", ErrValidation)
		}
	}

	return nil
}

// ErrorDetail is the caller-visible failure shape inside a DispatchResult.
type ErrorDetail struct {
	Kind       FailureKind
	Message    string
	RetryAfter *time.Duration
}

// DispatchResult is one platform's outcome for a request. The aggregate is
// always a list in request order; partial success is expected, not special.
type DispatchResult struct {
	Platform Platform
	Success  bool
	RemoteID string
	Error    *ErrorDetail
}

// PostStatus is the lifecycle state of a recorded post.
type PostStatus string

const (
	PostStatusScheduled   PostStatus = "SCHEDULED"
	PostStatusDispatching PostStatus = "DISPATCHING"
	PostStatusSent        PostStatus = "SENT"
	PostStatusFailed      PostStatus = "FAILED"
	PostStatusPartial     PostStatus = "PARTIAL"
)

func (s PostStatus) String() string { return string(s) }

func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusScheduled, PostStatusDispatching, PostStatusSent, PostStatusFailed, PostStatusPartial:
		return true
	}
	return false
}

func ParsePostStatusFromString(s string) (PostStatus, error) {
	st := PostStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid post status %q", ErrValidation, s)
	}
	return st, nil
}

// Post is the persisted history of one dispatch request.
type Post struct {
	ID          string
	Platforms   []Platform
	Content     string
	Media       []string
	Status      PostStatus
	ScheduledAt *time.Time
	Results     []DispatchResult
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AggregateStatus folds per-platform results into a post status.
func AggregateStatus(results []DispatchResult) PostStatus {
	if len(results) == 0 {
		return PostStatusSent
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	switch succeeded {
	case len(results):
		return PostStatusSent
	case 0:
		return PostStatusFailed
	default:
		return PostStatusPartial
	}
}
