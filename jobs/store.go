package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/basecruz/stockbridge/internal/platform/httpx"
)

const (
	runListKey   = "stockbridge:cron:runs"
	runKeyPrefix = "stockbridge:cron:run:"
	configsKey   = "stockbridge:cron:jobs"

	// RunHistoryLimit is the number of runs kept and listed.
	RunHistoryLimit = 100
	runTTL          = 7 * 24 * time.Hour
)

// ErrJobNotConfigured is returned for a job name without stored configuration.
var ErrJobNotConfigured = fmt.Errorf("jobs: %w: job not configured", httpx.ErrNotFound)

// Run statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Run is one execution of a job.
type Run struct {
	ID         string `json:"id"`
	Job        string `json:"job"`
	Status     string `json:"status"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
	Message    string `json:"message"`
}

// CronConfig is the stored schedule of a job.
type CronConfig struct {
	JobName    string `json:"jobName"`
	Expression string `json:"expression"`
	Enabled    bool   `json:"enabled"`
	Timezone   string `json:"timezone"`
	UpdatedAt  string `json:"updatedAt"`
}

// RunStore keeps the most recent runs in redis, newest first.
type RunStore struct {
	client *redis.Client
}

// NewRunStore builds a RunStore.
func NewRunStore(client *redis.Client) *RunStore {
	return &RunStore{client: client}
}

// Begin records a new run at the head of the history.
func (s *RunStore) Begin(ctx context.Context, run Run) error {
	raw, err := json.Marshal(run)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, runKeyPrefix+run.ID, raw, runTTL)
		pipe.LPush(ctx, runListKey, run.ID)
		pipe.LTrim(ctx, runListKey, 0, RunHistoryLimit-1)
		return nil
	})
	return err
}

// Update overwrites a recorded run in place.
func (s *RunStore) Update(ctx context.Context, run Run) error {
	raw, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, runKeyPrefix+run.ID, raw, runTTL).Err()
}

// Recent returns up to limit runs, newest first. Expired entries are skipped.
func (s *RunStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > RunHistoryLimit {
		limit = RunHistoryLimit
	}
	ids, err := s.client.LRange(ctx, runListKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(ids))
	if len(ids) == 0 {
		return runs, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = runKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var run Run
		if err := json.Unmarshal([]byte(raw), &run); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ConfigStore keeps cron configurations in a redis hash keyed by job name.
type ConfigStore struct {
	client *redis.Client
}

// NewConfigStore builds a ConfigStore.
func NewConfigStore(client *redis.Client) *ConfigStore {
	return &ConfigStore{client: client}
}

// Put stores cfg, replacing any previous configuration of the job.
func (s *ConfigStore) Put(ctx context.Context, cfg CronConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, configsKey, cfg.JobName, raw).Err()
}

// Get loads one configuration.
func (s *ConfigStore) Get(ctx context.Context, jobName string) (CronConfig, error) {
	raw, err := s.client.HGet(ctx, configsKey, jobName).Bytes()
	if err == redis.Nil {
		return CronConfig{}, fmt.Errorf("%w: %s", ErrJobNotConfigured, jobName)
	}
	if err != nil {
		return CronConfig{}, err
	}
	var cfg CronConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return CronConfig{}, err
	}
	return cfg, nil
}

// List returns every configuration ordered by job name.
func (s *ConfigStore) List(ctx context.Context) ([]CronConfig, error) {
	all, err := s.client.HGetAll(ctx, configsKey).Result()
	if err != nil {
		return nil, err
	}
	configs := make([]CronConfig, 0, len(all))
	for _, raw := range all {
		var cfg CronConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			continue
		}
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].JobName < configs[j].JobName })
	return configs, nil
}
