// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"agrichain/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler processes one activated job and reports the outcome to the
// broker itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

// Worker is an open job subscription for a single task type.
type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

func NewWorker(client zbc.Client, opts WorkerOptions, handler JobHandler, log logger.Logger) *Worker {
	log = log.WithFields(map[string]interface{}{"taskType": opts.TaskType})

	step := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(handler.Handle).
		MaxJobsActive(opts.MaxJobsActive)
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	log.Info("worker started", map[string]interface{}{
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
	return &Worker{worker: step.Open(), logger: log, taskType: opts.TaskType}
}

// Stop closes the subscription and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
