package services

import (
	"context"
	"fmt"

	"github.com/pitwall-labs/pitwall-engine/pkg/services/workqueue"
)

// IngestTask is the workqueue unit of work for one session load. It calls
// the provider, so the queue throttles it alongside other provider tasks.
type IngestTask struct {
	workqueue.BaseTask

	service     IngestService
	year        int
	round       int
	sessionCode string
}

// NewIngestTask creates a task that ingests one (year, round, session).
func NewIngestTask(service IngestService, year, round int, sessionCode string) *IngestTask {
	name := fmt.Sprintf("load-session %d/%d %s", year, round, sessionCode)
	return &IngestTask{
		BaseTask:    workqueue.NewBaseTask(name, true),
		service:     service,
		year:        year,
		round:       round,
		sessionCode: sessionCode,
	}
}

// Execute implements workqueue.Task. The returned report becomes the job's
// result payload for status polling.
func (t *IngestTask) Execute(ctx context.Context) (any, error) {
	report, err := t.service.IngestSession(ctx, t.year, t.round, t.sessionCode)
	if err != nil {
		return nil, err
	}
	return report, nil
}

var _ workqueue.Task = (*IngestTask)(nil)
