package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"

	"github.com/basecruz/stockbridge/internal/platform/httpx"
)

// Worker wraps the Asynq server and optional scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Concurrency int
	Handlers    []TaskHandler
	Cron        []CronRegistration
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		for _, entry := range cfg.Cron {
			if entry.Spec == "" || entry.Task == nil {
				continue
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, err
			}
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// ErrQueueUnavailable is reported when no queue client is wired into the handler.
var ErrQueueUnavailable = errors.New("jobs: queue client not configured")

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// Enqueue submits a supported job for asynchronous execution.
func (c *Client) Enqueue(ctx context.Context, job string) (string, error) {
	task, err := NewJobTask(job, "manual")
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// Enqueuer submits jobs to the worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, job string) (string, error)
}

// RunLister lists recorded runs.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// QueueInspector reports queue depth.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler exposes the cron administration endpoints.
type Handler struct {
	manager   *CronManager
	runner    *Runner
	runs      RunLister
	enqueuer  Enqueuer
	inspector QueueInspector
	logger    *slog.Logger
}

// HandlerConfig collects the Handler dependencies. Enqueuer and Inspector are optional.
type HandlerConfig struct {
	Manager   *CronManager
	Runner    *Runner
	Runs      RunLister
	Enqueuer  Enqueuer
	Inspector QueueInspector
	Logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		manager:   cfg.Manager,
		runner:    cfg.Runner,
		runs:      cfg.Runs,
		enqueuer:  cfg.Enqueuer,
		inspector: cfg.Inspector,
		logger:    cfg.Logger,
	}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cron/queue", h.queue)
	r.Get("/cron/jobs", h.listJobs)
	r.Post("/cron/jobs", h.upsertJob)
	r.Get("/cron/jobs/{jobName}", h.getJob)
	r.Post("/cron/jobs/{jobName}/run", h.runJob)
	r.Post("/cron/jobs/{jobName}/enqueue", h.enqueueJob)
}

func (h *Handler) upsertJob(w http.ResponseWriter, r *http.Request) {
	var in CronJobInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.BadRequest(w, "invalid cron job body", err)
		return
	}
	cfg, err := h.manager.Upsert(r.Context(), in)
	if err != nil {
		h.logger.Warn("upsert cron job", slog.String("request_id", middleware.GetReqID(r.Context())), slog.Any("error", err))
		httpx.RespondError(w, err, "could not save cron job")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "config": cfg})
}

func (h *Handler) runJob(w http.ResponseWriter, r *http.Request) {
	jobName := chi.URLParam(r, "jobName")
	if _, err := h.manager.Get(r.Context(), jobName); err != nil {
		httpx.RespondError(w, err, "job not configured")
		return
	}
	run, err := h.runner.Run(r.Context(), jobName)
	if err != nil {
		httpx.RespondError(w, err, "could not run job")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "run": run})
}

func (h *Handler) enqueueJob(w http.ResponseWriter, r *http.Request) {
	jobName := chi.URLParam(r, "jobName")
	if h.enqueuer == nil {
		httpx.Fail(w, http.StatusServiceUnavailable, "job queue not configured", ErrQueueUnavailable)
		return
	}
	if _, ok := TaskTypeFor(jobName); !ok {
		httpx.RespondError(w, ErrJobNotConfigured, "job not configured")
		return
	}
	taskID, err := h.enqueuer.Enqueue(r.Context(), jobName)
	if err != nil {
		h.logger.Error("enqueue job", slog.String("job", jobName), slog.Any("error", err))
		httpx.RespondError(w, err, "could not enqueue job")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"ok": true, "task_id": taskID})
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.manager.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err, "could not list cron jobs")
		return
	}
	runs := []Run{}
	if h.runs != nil {
		recent, err := h.runs.Recent(r.Context(), RunHistoryLimit)
		if err != nil {
			h.logger.Warn("list runs", slog.Any("error", err))
		} else {
			runs = recent
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "jobs": configs, "runs": runs})
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.manager.Get(r.Context(), chi.URLParam(r, "jobName"))
	if err != nil {
		httpx.RespondError(w, err, "job not configured")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "config": cfg})
}

type queueStatus struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, queueStatus{Queue: QueueDefault})
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs queue", slog.Any("error", err))
		httpx.Fail(w, http.StatusServiceUnavailable, "could not read job queue", err)
		return
	}
	status := queueStatus{Queue: QueueDefault}
	if info != nil {
		status.Pending = info.Pending
		status.Queue = info.Queue
	}
	httpx.JSON(w, http.StatusOK, status)
}
