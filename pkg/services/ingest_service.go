package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pitwall-labs/pitwall-engine/pkg/database"
	"github.com/pitwall-labs/pitwall-engine/pkg/ingest"
	"github.com/pitwall-labs/pitwall-engine/pkg/provider"
	"github.com/pitwall-labs/pitwall-engine/pkg/repositories"
)

// IngestService runs the session ingestion pipeline inside a single database
// transaction per call: either the whole session's rows land, or none do.
type IngestService interface {
	IngestSession(ctx context.Context, year, round int, sessionCode string) (ingest.Report, error)
}

type ingestService struct {
	db           *database.DB
	orchestrator *ingest.Orchestrator
	logger       *zap.Logger
}

// NewIngestService creates an IngestService writing sessions tagged with the
// given source.
func NewIngestService(db *database.DB, client provider.Client, source string, logger *zap.Logger) IngestService {
	return &ingestService{
		db:           db,
		orchestrator: ingest.NewOrchestrator(client, source, logger),
		logger:       logger.Named("ingest_service"),
	}
}

func (s *ingestService) IngestSession(ctx context.Context, year, round int, sessionCode string) (ingest.Report, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return ingest.Report{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	store := repositories.NewIngestStore(tx)
	report, err := s.orchestrator.IngestSession(ctx, store, year, round, sessionCode)
	if err != nil {
		return ingest.Report{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ingest.Report{}, fmt.Errorf("failed to commit ingestion: %w", err)
	}
	return report, nil
}

var _ IngestService = (*ingestService)(nil)
