package crm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tnrbusiness/outreach/internal/domain"
	"github.com/tnrbusiness/outreach/internal/observability"
	"github.com/tnrbusiness/outreach/internal/repository"
	"go.uber.org/zap"
)

// Receipt reports where a write landed.
type Receipt struct {
	ID     string
	Source domain.Source
}

// ReconcileSummary reports the outcome of one reconciliation run.
type ReconcileSummary struct {
	Migrated int `json:"migrated"`
	Failed   int `json:"failed"`
}

// Facade fronts two persistence paths: the remote store and an on-disk local
// fallback. Writes try remote first and fall back to local with the same id,
// so a later Reconcile can migrate fallback records without changing identity.
type Facade struct {
	remote  repository.RecordStore
	local   repository.RecordStore
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewFacade(remote, local repository.RecordStore, logger *zap.Logger) (*Facade, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote record store is required")
	}
	if local == nil {
		return nil, fmt.Errorf("local record store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Facade{
		remote: remote,
		local:  local,
		logger: logger,
	}, nil
}

func (f *Facade) SetMetrics(metrics *observability.Metrics) {
	f.metrics = metrics
}

// Write persists a record, remote first. The fallback write reuses the id the
// remote attempt was given, and the receipt names the path that committed.
// The two attempts are sequential; the record is never written twice.
func (f *Facade) Write(ctx context.Context, record *domain.Record) (*Receipt, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: record is required", domain.ErrValidation)
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	remoteErr := f.remote.Create(ctx, record)
	if remoteErr == nil {
		return &Receipt{ID: record.ID, Source: domain.SourceRemote}, nil
	}

	f.logger.Warn("remote write failed, falling back to local store",
		zap.String("kind", record.Kind.String()),
		zap.String("record_id", record.ID),
		zap.Error(remoteErr),
	)

	localErr := f.local.Create(ctx, record)
	if localErr == nil {
		if f.metrics != nil {
			f.metrics.IncFallbackWrite(record.Kind.String())
		}
		return &Receipt{ID: record.ID, Source: domain.SourceLocal}, nil
	}

	return nil, fmt.Errorf("%w: remote: %v; local: %v",
		domain.ErrPersistenceUnavailable, remoteErr, localErr)
}

// Read serves from the remote store whenever it answers. The local fallback is
// consulted only after the remote path fails, and the two result sets are never
// merged.
func (f *Facade) Read(ctx context.Context, kind domain.EntityKind, filter map[string]any) ([]domain.Record, domain.Source, error) {
	if !kind.IsValid() {
		return nil, "", fmt.Errorf("%w: invalid entity kind %q", domain.ErrValidation, kind)
	}

	records, remoteErr := f.remote.List(ctx, kind, filter)
	if remoteErr == nil {
		return records, domain.SourceRemote, nil
	}

	f.logger.Warn("remote read failed, serving from local store",
		zap.String("kind", kind.String()),
		zap.Error(remoteErr),
	)

	records, localErr := f.local.List(ctx, kind, filter)
	if localErr != nil {
		return nil, "", fmt.Errorf("%w: remote: %v; local: %v",
			domain.ErrPersistenceUnavailable, remoteErr, localErr)
	}
	return records, domain.SourceLocal, nil
}

// Delete removes a record from both paths. A record that only ever landed in
// the fallback store must not survive a delete, so the local removal runs even
// when the remote delete succeeds.
func (f *Facade) Delete(ctx context.Context, kind domain.EntityKind, id string) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: invalid entity kind %q", domain.ErrValidation, kind)
	}
	if id == "" {
		return fmt.Errorf("%w: record id is required", domain.ErrValidation)
	}

	remoteErr := f.remote.Delete(ctx, kind, id)
	localErr := f.local.Delete(ctx, kind, id)

	if remoteErr == nil || localErr == nil {
		return nil
	}
	if errors.Is(remoteErr, domain.ErrNotFound) && errors.Is(localErr, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	if !errors.Is(remoteErr, domain.ErrNotFound) {
		return remoteErr
	}
	return localErr
}

// Reconcile migrates fallback records into the remote store, keeping their
// ids, and removes the local copies that made it across. It only ever runs
// when called; reads never trigger it.
func (f *Facade) Reconcile(ctx context.Context) (*ReconcileSummary, error) {
	records, err := f.local.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing local records: %w", err)
	}

	summary := &ReconcileSummary{}
	for i := range records {
		record := records[i]
		if err := f.remote.Upsert(ctx, &record); err != nil {
			summary.Failed++
			f.logger.Warn("reconcile: remote upsert failed",
				zap.String("kind", record.Kind.String()),
				zap.String("record_id", record.ID),
				zap.Error(err),
			)
			continue
		}
		if err := f.local.Delete(ctx, record.Kind, record.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			f.logger.Warn("reconcile: migrated record still present locally",
				zap.String("record_id", record.ID),
				zap.Error(err),
			)
		}
		summary.Migrated++
	}

	f.logger.Info("reconciliation finished",
		zap.Int("migrated", summary.Migrated),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
