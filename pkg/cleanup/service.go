// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/aldergate-legal/core/pkg/models"
)

// TenantLister enumerates every tenant the sweep must visit.
// *database.Client satisfies this via ListTenantIDs.
type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
}

// DocumentRetention is the subset of *database.DocumentRepository the
// sweep needs to dead-letter abandoned ingestion attempts.
type DocumentRetention interface {
	ListStaleProcessing(ctx context.Context, tenantID string, olderThanSeconds int) ([]models.Document, error)
	RecordFailure(ctx context.Context, tenantID, documentID, message string) error
}

// CacheRetention is the subset of *database.SemanticCacheRepository the
// sweep needs to purge expired entries.
type CacheRetention interface {
	DeleteExpired(ctx context.Context, tenantID string) (int64, error)
}

// Service periodically enforces retention policies across every
// tenant:
//   - Records an ingestion failure against documents stuck past their
//     stale-processing timeout in a non-terminal ingestion state; the
//     document is dead-lettered once its retry limit is reached (spec.md §7)
//   - Purges expired semantic cache entries past their TTL
//
// All operations are idempotent and safe to run from multiple
// processes, adapted from tarsy's pkg/cleanup.Service ticker/run loop.
type Service struct {
	tenants   TenantLister
	documents DocumentRetention
	cache     CacheRetention

	cleanupInterval     time.Duration
	staleTimeoutSeconds int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(
	tenants TenantLister,
	documents DocumentRetention,
	cache CacheRetention,
	cleanupInterval time.Duration,
	staleTimeoutSeconds int,
) *Service {
	return &Service{
		tenants:             tenants,
		documents:           documents,
		cache:               cache,
		cleanupInterval:     cleanupInterval,
		staleTimeoutSeconds: staleTimeoutSeconds,
	}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"cleanup_interval", s.cleanupInterval,
		"document_stale_timeout_seconds", s.staleTimeoutSeconds)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	tenantIDs, err := s.tenants.ListTenantIDs(ctx)
	if err != nil {
		slog.Error("retention: failed to list tenants", "error", err)
		return
	}
	for _, tenantID := range tenantIDs {
		s.deadLetterStaleDocuments(ctx, tenantID)
		s.purgeExpiredCacheEntries(ctx, tenantID)
	}
}

// deadLetterStaleDocuments finds documents abandoned mid-pipeline (a
// worker crashed or was killed before advancing or failing the
// document) and records a failure against each so the dead-letter
// counter advances rather than leaving the document stuck forever.
func (s *Service) deadLetterStaleDocuments(ctx context.Context, tenantID string) {
	stale, err := s.documents.ListStaleProcessing(ctx, tenantID, s.staleTimeoutSeconds)
	if err != nil {
		slog.Error("retention: list stale documents failed", "tenant_id", tenantID, "error", err)
		return
	}
	for _, doc := range stale {
		if err := s.documents.RecordFailure(ctx, tenantID, doc.ID, "ingestion stalled past retention timeout"); err != nil {
			slog.Error("retention: failed to record stale document failure", "tenant_id", tenantID, "document_id", doc.ID, "error", err)
			continue
		}
		slog.Info("retention: recorded failure for stale document", "tenant_id", tenantID, "document_id", doc.ID)
	}
}

func (s *Service) purgeExpiredCacheEntries(ctx context.Context, tenantID string) {
	count, err := s.cache.DeleteExpired(ctx, tenantID)
	if err != nil {
		slog.Error("retention: semantic cache purge failed", "tenant_id", tenantID, "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: purged expired semantic cache entries", "tenant_id", tenantID, "count", count)
	}
}
