package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockSync runs the stock reconciliation.
	TaskStockSync = "stock:sync"
	// TaskProductsSync reads the first catalog page.
	TaskProductsSync = "products:sync"
)

const (
	// JobSyncStock is the administrative name of the reconciliation job.
	JobSyncStock = "syncStock"
	// JobSyncProducts is the administrative name of the catalog read job.
	JobSyncProducts = "syncProducts"
)

var taskTypes = map[string]string{
	JobSyncStock:    TaskStockSync,
	JobSyncProducts: TaskProductsSync,
}

// TaskTypeFor maps a job name to its task type.
func TaskTypeFor(job string) (string, bool) {
	t, ok := taskTypes[job]
	return t, ok
}

// JobPayload carries the job name and the trigger that produced the task.
type JobPayload struct {
	Job          string    `json:"job"`
	Trigger      string    `json:"trigger"`
	ScheduledFor time.Time `json:"scheduled_for,omitempty"`
}

// NewJobTask constructs the task for a supported job. Tasks are never retried.
func NewJobTask(job, trigger string) (*asynq.Task, error) {
	taskType, ok := TaskTypeFor(job)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, job)
	}
	body, err := json.Marshal(JobPayload{Job: job, Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault), asynq.MaxRetry(0)), nil
}
