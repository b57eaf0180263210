package adapter

import (
	"context"
	"fmt"

	"github.com/tnrbusiness/outreach/internal/domain"
)

// PostInput is the generic content shape every adapter translates into its
// platform's wire format.
type PostInput struct {
	Content string
	Media   []string
}

// PostResult stores platform call metadata for audit and persistence.
type PostResult struct {
	RemoteID   string
	StatusCode int
	Body       string
}

// CredentialSource resolves the stored credential for a platform. Lookups are
// snapshot-at-call-time: a credential refreshed mid-dispatch does not affect
// in-flight adapter calls.
type CredentialSource interface {
	Credential(ctx context.Context, platform domain.Platform) (domain.Credential, error)
}

// Adapter is the outbound publishing port, one implementation per platform.
// Post issues exactly one network call per invocation; there are no hidden
// retries that could double-post.
type Adapter interface {
	Platform() domain.Platform
	Post(ctx context.Context, input PostInput) (*PostResult, error)
	Verify(ctx context.Context, cred domain.Credential) error
}

// Registry maps platforms to their adapters.
type Registry struct {
	adapters map[domain.Platform]Adapter
}

func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[domain.Platform]Adapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			return nil, fmt.Errorf("nil adapter")
		}
		platform := a.Platform()
		if !platform.IsValid() {
			return nil, fmt.Errorf("adapter reports invalid platform %q", platform)
		}
		if _, dup := r.adapters[platform]; dup {
			return nil, fmt.Errorf("duplicate adapter for platform %q", platform)
		}
		r.adapters[platform] = a
	}
	return r, nil
}

// Lookup returns the adapter for a platform.
func (r *Registry) Lookup(platform domain.Platform) (Adapter, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.adapters[platform]
	return a, ok
}

// Platforms returns every registered platform in domain order.
func (r *Registry) Platforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(r.adapters))
	for _, p := range domain.AllPlatforms() {
		if _, ok := r.adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
