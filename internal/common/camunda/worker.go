package camunda

import (
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler is implemented by every job worker handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// WorkerOptions configures a single job worker subscription.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	PollInterval  time.Duration
}

// WorkerGroup owns the job workers opened against one zeebe client.
type WorkerGroup struct {
	client  zbc.Client
	logger  *zap.Logger
	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewWorkerGroup(client zbc.Client, logger *zap.Logger) *WorkerGroup {
	return &WorkerGroup{
		client:  client,
		logger:  logger,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType. Starting the same task type twice is a no-op.
func (g *WorkerGroup) Start(taskType string, opts WorkerOptions, handler JobHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.workers[taskType]; exists {
		return
	}

	step := g.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Name(taskType)
	if opts.PollInterval > 0 {
		step = step.PollInterval(opts.PollInterval)
	}

	g.workers[taskType] = step.Open()
	g.logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", opts.MaxJobsActive),
		zap.Duration("timeout", opts.Timeout))
}

// TaskTypes lists the task types with an open worker.
func (g *WorkerGroup) TaskTypes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.workers))
	for taskType := range g.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs.
func (g *WorkerGroup) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for taskType, w := range g.workers {
		g.logger.Info("stopping worker", zap.String("taskType", taskType))
		w.Close()
		w.AwaitClose()
		delete(g.workers, taskType)
	}
}
