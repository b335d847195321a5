package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pitwall-labs/pitwall-engine/pkg/apperrors"
	"github.com/pitwall-labs/pitwall-engine/pkg/coerce"
	"github.com/pitwall-labs/pitwall-engine/pkg/models"
	"github.com/pitwall-labs/pitwall-engine/pkg/provider"
	"github.com/pitwall-labs/pitwall-engine/pkg/tabular"
)

// driverCodeColumns are the candidate columns for the driver identifier,
// most authoritative first. The first non-empty value wins.
var driverCodeColumns = []string{
	"Abbreviation",
	"Driver",
	"DriverId",
	"BroadcastName",
	"LastName",
	"DriverNumber",
}

// Result row columns probed by the pipeline.
const (
	fullNameColumn = "FullName"
	teamNameColumn = "TeamName"
	teamColumn     = "Team"
	positionColumn = "Position"
	statusColumn   = "Status"
	q1Column       = "Q1"
	q2Column       = "Q2"
	q3Column       = "Q3"
)

// Report is the outcome of one ingestion pass. Skipped rows (no resolvable
// driver identifier) and failed rows (unexpected per-row errors) are normal,
// inspectable outcomes, not call failures.
type Report struct {
	Written int `json:"written"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Orchestrator drives the per-session ingestion pipeline: provider fetch,
// lap aggregation, identity resolution, field coercion, and idempotent
// upserts, all inside the caller's transaction.
type Orchestrator struct {
	provider provider.Client
	source   string
	logger   *zap.Logger
}

// NewOrchestrator creates an Orchestrator. The source tag marks every
// session it writes with the provenance of the data.
func NewOrchestrator(client provider.Client, source string, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		provider: client,
		source:   source,
		logger:   logger.Named("ingest"),
	}
}

// IngestSession loads one session from the provider and upserts a
// SessionResult row per driver into the store. Re-running with the same key
// overwrites the prior values instead of duplicating rows.
//
// Only a provider fetch failure (or a storage failure while persisting the
// event/session shell) returns an error. Individual result rows never abort
// the batch: they are written, skipped, or counted as failed in the Report.
func (o *Orchestrator) IngestSession(ctx context.Context, store Store, year, round int, sessionCode string) (Report, error) {
	var report Report

	raw, err := o.provider.FetchSession(ctx, year, round, sessionCode)
	if err != nil {
		ingestFailures.WithLabelValues("provider_fetch").Inc()
		return report, fmt.Errorf("fetch session %d/%d %s: %w", year, round, sessionCode, err)
	}

	resolver := NewResolver(store)

	event, err := resolver.Event(ctx, year, round, raw.EventName)
	if err != nil {
		ingestFailures.WithLabelValues("resolve_event").Inc()
		return report, err
	}
	session, err := resolver.Session(ctx, event.ID, sessionCode, o.source)
	if err != nil {
		ingestFailures.WithLabelValues("resolve_session").Inc()
		return report, err
	}

	// An empty result set still leaves the event/session shell behind so
	// later queries see an empty session rather than a missing one.
	if raw.Results.Empty() {
		o.logger.Info("session has no results",
			zap.Int("year", year),
			zap.Int("round", round),
			zap.String("session", sessionCode))
		return report, nil
	}

	lapStats := AggregateLaps(raw.Laps)

	written := make(map[int64]bool, raw.Results.Len())
	for i, row := range raw.Results.Rows {
		outcome := o.processRow(ctx, resolver, session, raw.Results, row, lapStats, written)
		switch outcome.kind {
		case rowWritten:
			report.Written++
			rowsProcessed.WithLabelValues("written").Inc()
		case rowRewritten:
			// Duplicate provider row for a driver already written this
			// pass; last write wins but the driver is counted once.
			rowsProcessed.WithLabelValues("written").Inc()
		case rowSkipped:
			report.Skipped++
			rowsProcessed.WithLabelValues("skipped").Inc()
		case rowFailed:
			report.Failed++
			rowsProcessed.WithLabelValues("failed").Inc()
			o.logger.Warn("result row failed",
				zap.Int("year", year),
				zap.Int("round", round),
				zap.String("session", sessionCode),
				zap.Int("row", i),
				zap.String("driver", outcome.driver),
				zap.Error(outcome.err))
		}
	}

	o.logger.Info("session ingested",
		zap.Int("year", year),
		zap.Int("round", round),
		zap.String("session", sessionCode),
		zap.Int("written", report.Written),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	return report, nil
}

type rowOutcomeKind int

const (
	rowWritten rowOutcomeKind = iota
	rowRewritten
	rowSkipped
	rowFailed
)

type rowOutcome struct {
	kind   rowOutcomeKind
	driver string
	err    error
}

func (o *Orchestrator) processRow(
	ctx context.Context,
	resolver *Resolver,
	session *models.Session,
	results *tabular.Table,
	row tabular.Row,
	lapStats map[string]models.LapStats,
	written map[int64]bool,
) rowOutcome {
	code := resolveDriverCode(row)
	if code == "" {
		// Expected for malformed provider rows; nothing to link the row to.
		return rowOutcome{kind: rowSkipped}
	}

	name, _ := coerce.String(row.Value(fullNameColumn))

	teamName, ok := coerce.String(row.Value(teamNameColumn))
	if !ok && results.HasColumn(teamColumn) {
		teamName, _ = coerce.String(row.Value(teamColumn))
	}

	driver, err := resolver.Driver(ctx, code, name)
	if err != nil {
		return rowOutcome{kind: rowFailed, driver: code, err: err}
	}
	team, err := resolver.Team(ctx, teamName)
	if err != nil {
		return rowOutcome{kind: rowFailed, driver: code, err: err}
	}

	result := &models.SessionResult{
		SessionID: session.ID,
		DriverID:  driver.ID,
		Position:  coerce.IntPtr(row.Value(positionColumn)),
		Status:    coerce.StringPtr(row.Value(statusColumn)),
		Q1Sec:     coerce.SecondsPtr(row.Value(q1Column)),
		Q2Sec:     coerce.SecondsPtr(row.Value(q2Column)),
		Q3Sec:     coerce.SecondsPtr(row.Value(q3Column)),
	}
	if team != nil {
		result.TeamID = &team.ID
	}
	if stats, ok := lapStats[code]; ok {
		result.BestLapSec = stats.BestLapSec
		laps := stats.LapCount
		result.Laps = &laps
		result.MainCompound = stats.DominantCompound
	}

	if err := upsertResult(ctx, resolver.store, result); err != nil {
		return rowOutcome{kind: rowFailed, driver: code, err: err}
	}

	if written[driver.ID] {
		return rowOutcome{kind: rowRewritten, driver: code}
	}
	written[driver.ID] = true
	return rowOutcome{kind: rowWritten, driver: code}
}

// upsertResult writes the (session, driver) row: update when it exists,
// insert otherwise, and fall back to update when an insert loses a
// uniqueness race with a concurrent ingestion of the same session.
func upsertResult(ctx context.Context, store Store, result *models.SessionResult) error {
	existing, err := store.GetResult(ctx, result.SessionID, result.DriverID)
	if errors.Is(err, apperrors.ErrNotFound) {
		insertErr := store.InsertResult(ctx, result)
		if errors.Is(insertErr, apperrors.ErrConflict) {
			existing, err = store.GetResult(ctx, result.SessionID, result.DriverID)
			if err != nil {
				return fmt.Errorf("re-read result after conflict: %w", err)
			}
			result.ID = existing.ID
			return store.UpdateResult(ctx, result)
		}
		return insertErr
	}
	if err != nil {
		return fmt.Errorf("get result: %w", err)
	}

	result.ID = existing.ID
	return store.UpdateResult(ctx, result)
}

func resolveDriverCode(row tabular.Row) string {
	for _, column := range driverCodeColumns {
		if code, ok := coerce.String(row.Value(column)); ok {
			return code
		}
	}
	return ""
}
