package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/basecruz/stockbridge/internal/catalog"
	jobmetrics "github.com/basecruz/stockbridge/internal/jobs"
	"github.com/basecruz/stockbridge/internal/reconcile"
)

// ErrUnknownJob is returned for job names the runner cannot execute.
var ErrUnknownJob = errors.New("jobs: unsupported job")

const (
	syncProductsPageSize = 50
	timestampLayout      = "2006-01-02T15:04:05.000Z07:00"
)

// StockSyncer runs one reconciliation.
type StockSyncer interface {
	Run(ctx context.Context) (reconcile.Result, error)
}

// ProductFetcher reads one catalog page.
type ProductFetcher interface {
	FetchProducts(ctx context.Context, limit int, pageInfo string) (catalog.Page, error)
}

// RunRecorder persists run history.
type RunRecorder interface {
	Begin(ctx context.Context, run Run) error
	Update(ctx context.Context, run Run) error
}

// Runner executes jobs and records every run.
type Runner struct {
	stock    StockSyncer
	products ProductFetcher
	runs     RunRecorder
	metrics  *jobmetrics.Metrics
	logger   *slog.Logger
	clock    func() time.Time
}

// NewRunner wires a Runner. runs and metrics may be nil.
func NewRunner(stock StockSyncer, products ProductFetcher, runs RunRecorder, metrics *jobmetrics.Metrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		stock:    stock,
		products: products,
		runs:     runs,
		metrics:  metrics,
		logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Run executes job synchronously. A job failure is reported in the returned Run; the
// error is reserved for unsupported job names.
func (r *Runner) Run(ctx context.Context, job string) (Run, error) {
	if _, ok := TaskTypeFor(job); !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownJob, job)
	}
	run := Run{
		ID:        uuid.NewString(),
		Job:       job,
		Status:    StatusRunning,
		StartedAt: r.clock().Format(timestampLayout),
	}
	logger := r.logger.With(slog.String("job", job), slog.String("run_id", run.ID))
	if r.runs != nil {
		if err := r.runs.Begin(ctx, run); err != nil {
			logger.Warn("record run start", slog.Any("error", err))
		}
	}

	tracker := r.metrics.Track(job)
	message, err := r.execute(ctx, job)
	_ = tracker.End(err)
	if err != nil {
		run.Status = StatusError
		run.Message = err.Error()
		logger.Error("job failed", slog.Any("error", err))
	} else {
		run.Status = StatusSuccess
		run.Message = message
		logger.Info("job completed", slog.String("message", message))
	}
	run.FinishedAt = r.clock().Format(timestampLayout)

	if r.runs != nil {
		if err := r.runs.Update(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("record run finish", slog.Any("error", err))
		}
	}
	return run, nil
}

func (r *Runner) execute(ctx context.Context, job string) (string, error) {
	switch job {
	case JobSyncProducts:
		if r.products == nil {
			return "", errors.New("product source not configured")
		}
		page, err := r.products.FetchProducts(ctx, syncProductsPageSize, "")
		if err != nil {
			return "", err
		}
		next := page.NextPageInfo
		if next == "" {
			next = "none"
		}
		return fmt.Sprintf("fetched %d products, next_page_info=%s", len(page.Products), next), nil
	case JobSyncStock:
		if r.stock == nil {
			return "", errors.New("stock reconciliation not configured")
		}
		result, err := r.stock.Run(ctx)
		if err != nil {
			return "", err
		}
		r.metrics.AddAdjustments(job, result.UpdatesApplied)
		return fmt.Sprintf("stock updates applied: %d", result.UpdatesApplied), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownJob, job)
	}
}

// HandleTask processes stock:sync and products:sync tasks. Failures are not retried.
func (r *Runner) HandleTask(ctx context.Context, t *asynq.Task) error {
	var payload JobPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			r.logger.Error("decode job payload", slog.String("type", t.Type()), slog.Any("error", err))
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	job := payload.Job
	if job == "" {
		job = jobForTaskType(t.Type())
	}
	run, err := r.Run(ctx, job)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if run.Status == StatusError {
		return fmt.Errorf("%s: %s: %w", job, run.Message, asynq.SkipRetry)
	}
	return nil
}

func jobForTaskType(taskType string) string {
	for job, t := range taskTypes {
		if t == taskType {
			return job
		}
	}
	return ""
}
