package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"github.com/basecruz/stockbridge/internal/platform/httpx"
)

// DefaultTimezone applies when a cron job does not name one.
const DefaultTimezone = "America/Santiago"

// Registry is the scheduling surface of asynq.Scheduler.
type Registry interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
	Unregister(entryID string) error
}

// ConfigRepository persists cron configurations.
type ConfigRepository interface {
	Put(ctx context.Context, cfg CronConfig) error
	Get(ctx context.Context, jobName string) (CronConfig, error)
	List(ctx context.Context) ([]CronConfig, error)
}

// CronJobInput is the body of an upsert.
type CronJobInput struct {
	JobName    string `json:"jobName" validate:"required,oneof=syncProducts syncStock"`
	Expression string `json:"expression" validate:"required"`
	Enabled    bool   `json:"enabled"`
	Timezone   string `json:"timezone"`
}

// CronManager keeps scheduler entries in line with the stored configurations.
type CronManager struct {
	configs  ConfigRepository
	registry Registry
	validate *validator.Validate
	logger   *slog.Logger
	clock    func() time.Time

	mu      sync.Mutex
	entries map[string]string
}

// NewCronManager builds a CronManager.
func NewCronManager(configs ConfigRepository, registry Registry, logger *slog.Logger) *CronManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronManager{
		configs:  configs,
		registry: registry,
		validate: validator.New(),
		logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		entries: make(map[string]string),
	}
}

// CronSpec prefixes expression with its timezone in the form the scheduler understands.
func CronSpec(expression, timezone string) string {
	return fmt.Sprintf("CRON_TZ=%s %s", timezone, strings.TrimSpace(expression))
}

// ValidateExpression checks a five field cron expression in the given timezone.
func ValidateExpression(expression, timezone string) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", httpx.ErrValidation, timezone)
	}
	if _, err := cron.ParseStandard(CronSpec(expression, timezone)); err != nil {
		return fmt.Errorf("%w: invalid cron expression: %v", httpx.ErrValidation, err)
	}
	return nil
}

// Upsert validates, schedules and stores a job configuration. An existing schedule for
// the job is always removed first; a disabled job stays unscheduled.
func (m *CronManager) Upsert(ctx context.Context, in CronJobInput) (CronConfig, error) {
	in.JobName = strings.TrimSpace(in.JobName)
	in.Expression = strings.TrimSpace(in.Expression)
	in.Timezone = strings.TrimSpace(in.Timezone)
	if in.Timezone == "" {
		in.Timezone = DefaultTimezone
	}
	if err := m.validate.Struct(in); err != nil {
		return CronConfig{}, fmt.Errorf("%w: jobName and expression are required (jobName one of %s, %s): %v", httpx.ErrValidation, JobSyncProducts, JobSyncStock, err)
	}
	if err := ValidateExpression(in.Expression, in.Timezone); err != nil {
		return CronConfig{}, err
	}

	cfg := CronConfig{
		JobName:    in.JobName,
		Expression: in.Expression,
		Enabled:    in.Enabled,
		Timezone:   in.Timezone,
		UpdatedAt:  m.clock().Format(timestampLayout),
	}
	if err := m.schedule(cfg); err != nil {
		return CronConfig{}, err
	}
	if err := m.configs.Put(ctx, cfg); err != nil {
		return CronConfig{}, err
	}
	m.logger.Info("cron job saved", slog.String("job", cfg.JobName), slog.String("expression", cfg.Expression), slog.Bool("enabled", cfg.Enabled))
	return cfg, nil
}

// Restore re-registers every enabled stored configuration.
func (m *CronManager) Restore(ctx context.Context) error {
	configs, err := m.configs.List(ctx)
	if err != nil {
		return err
	}
	for _, cfg := range configs {
		if err := m.schedule(cfg); err != nil {
			m.logger.Warn("restore cron job", slog.String("job", cfg.JobName), slog.Any("error", err))
		}
	}
	return nil
}

// Get returns one stored configuration.
func (m *CronManager) Get(ctx context.Context, jobName string) (CronConfig, error) {
	return m.configs.Get(ctx, jobName)
}

// List returns every stored configuration.
func (m *CronManager) List(ctx context.Context) ([]CronConfig, error) {
	return m.configs.List(ctx)
}

func (m *CronManager) schedule(cfg CronConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entryID, ok := m.entries[cfg.JobName]; ok {
		if err := m.registry.Unregister(entryID); err != nil {
			m.logger.Warn("unregister cron entry", slog.String("job", cfg.JobName), slog.Any("error", err))
		}
		delete(m.entries, cfg.JobName)
	}
	if !cfg.Enabled {
		return nil
	}
	task, err := NewJobTask(cfg.JobName, "cron")
	if err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	entryID, err := m.registry.Register(CronSpec(cfg.Expression, cfg.Timezone), task)
	if err != nil {
		return fmt.Errorf("register cron entry: %w", err)
	}
	m.entries[cfg.JobName] = entryID
	return nil
}
