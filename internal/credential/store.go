package credential

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tnrbusiness/outreach/internal/adapter"
	"github.com/tnrbusiness/outreach/internal/domain"
	"github.com/tnrbusiness/outreach/internal/repository"
	"go.uber.org/zap"
)

// TestReport is the outcome of a credential connectivity probe.
type TestReport struct {
	Platform domain.Platform
	Valid    bool
	Reason   string
}

// Store holds per-platform credentials. Get distinguishes Expired from
// NotFound so callers can answer "reconnect" vs "connect". Set persists
// durably before returning; Test never mutates stored state.
type Store struct {
	repo     repository.CredentialRepository
	registry *adapter.Registry
	logger   *zap.Logger
	now      func() time.Time
}

var _ adapter.CredentialSource = (*Store)(nil)

func NewStore(repo repository.CredentialRepository, logger *zap.Logger) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("credential repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}, nil
}

// SetRegistry wires the adapter registry used by Test. Set after adapter
// construction because adapters themselves read credentials from this store.
func (s *Store) SetRegistry(registry *adapter.Registry) {
	if s == nil {
		return
	}
	s.registry = registry
}

// Get returns the stored credential. A credential past its validity yields
// ErrExpired, not ErrNotFound.
func (s *Store) Get(ctx context.Context, platform domain.Platform) (*domain.Credential, error) {
	if !platform.IsValid() {
		return nil, fmt.Errorf("%w: invalid platform %q", domain.ErrValidation, platform)
	}

	cred, err := s.repo.Get(ctx, platform)
	if err != nil {
		return nil, err
	}
	if cred.Expired(s.now()) {
		return nil, fmt.Errorf("%w: %s token expired at %s",
			domain.ErrExpired, strings.ToLower(platform.String()), cred.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return cred, nil
}

// Credential implements adapter.CredentialSource. Lookups are
// snapshot-at-call-time for in-flight dispatches.
func (s *Store) Credential(ctx context.Context, platform domain.Platform) (domain.Credential, error) {
	cred, err := s.Get(ctx, platform)
	if err != nil {
		return domain.Credential{}, err
	}
	return *cred, nil
}

// Set persists the credential. On a durable-write error nothing is treated
// as updated.
func (s *Store) Set(ctx context.Context, cred *domain.Credential) error {
	if cred == nil {
		return fmt.Errorf("%w: credential is required", domain.ErrValidation)
	}
	cred.AccessToken = strings.TrimSpace(cred.AccessToken)
	cred.RefreshToken = strings.TrimSpace(cred.RefreshToken)
	if err := cred.Validate(); err != nil {
		return err
	}

	now := s.now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	if err := s.repo.Upsert(ctx, cred); err != nil {
		return fmt.Errorf("failed to store %s credential: %w", strings.ToLower(cred.Platform.String()), err)
	}

	s.logger.Info("credential stored",
		zap.String("platform", strings.ToLower(cred.Platform.String())),
		zap.Bool("hasExpiry", cred.ExpiresAt != nil),
	)
	return nil
}

// Delete disconnects a platform.
func (s *Store) Delete(ctx context.Context, platform domain.Platform) error {
	if !platform.IsValid() {
		return fmt.Errorf("%w: invalid platform %q", domain.ErrValidation, platform)
	}
	return s.repo.Delete(ctx, platform)
}

// List returns all stored credentials. Callers are responsible for redacting
// tokens before exposing them.
func (s *Store) List(ctx context.Context) ([]domain.Credential, error) {
	return s.repo.List(ctx)
}

// Test performs a lightweight authenticated probe against the platform. It
// reads the stored credential and reports validity without mutating anything:
// two consecutive calls with no intervening Set yield the same result.
func (s *Store) Test(ctx context.Context, platform domain.Platform) (*TestReport, error) {
	if !platform.IsValid() {
		return nil, fmt.Errorf("%w: invalid platform %q", domain.ErrValidation, platform)
	}

	cred, err := s.repo.Get(ctx, platform)
	if err != nil {
		return nil, err
	}

	report := &TestReport{Platform: platform}

	if cred.Expired(s.now()) {
		report.Reason = "token expired, reconnect required"
		return report, nil
	}

	if s.registry == nil {
		return nil, fmt.Errorf("adapter registry is not configured")
	}
	a, ok := s.registry.Lookup(platform)
	if !ok {
		return nil, fmt.Errorf("no adapter registered for platform %q", platform)
	}

	if err := a.Verify(ctx, *cred); err != nil {
		report.Reason = err.Error()
		return report, nil
	}

	report.Valid = true
	return report, nil
}
