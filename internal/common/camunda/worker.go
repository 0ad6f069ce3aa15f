// internal/common/camunda/worker.go
package camunda

import (
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"rsvp-workers/internal/common/config"
	"rsvp-workers/internal/common/logger"
)

// HandlerFunc matches the Zeebe job handler signature.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// JobWorkerOpener is the slice of zbc.Client needed to open job workers.
type JobWorkerOpener interface {
	NewJobWorker() worker.JobWorkerBuilderStep1
}

var _ JobWorkerOpener = zbc.Client(nil)

// Fleet owns the job workers opened by worker-manager.
type Fleet struct {
	client JobWorkerOpener
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewFleet(client JobWorkerOpener, log logger.Logger) *Fleet {
	return &Fleet{
		client:  client,
		logger:  log,
		workers: map[string]worker.JobWorker{},
	}
}

// Start opens a job worker for taskType unless it is disabled. It reports
// whether a worker was opened.
func (f *Fleet) Start(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) bool {
	if !wcfg.Enabled {
		f.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jw := f.client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Name(taskType).
		Open()

	f.mu.Lock()
	f.workers[taskType] = jw
	f.mu.Unlock()

	f.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// TaskTypes lists the running workers.
func (f *Fleet) TaskTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.workers))
	for tt := range f.workers {
		out = append(out, tt)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs.
func (f *Fleet) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for taskType, jw := range f.workers {
		jw.Close()
		jw.AwaitClose()
		f.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	f.workers = map[string]worker.JobWorker{}
}
