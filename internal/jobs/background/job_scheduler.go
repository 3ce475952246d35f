package background

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"simledger/internal/jobs"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// ErrUnknownJob is returned when a job name is not registered.
var ErrUnknownJob = errors.New("unknown job")

// Intervals for the recurring jobs.
type Intervals struct {
	DashboardRefresh time.Duration
	ConsistencyCheck time.Duration
}

// DefaultIntervals keeps the dashboard within the aggregate cache TTL.
var DefaultIntervals = Intervals{
	DashboardRefresh: 5 * time.Minute,
	ConsistencyCheck: time.Hour,
}

// JobScheduler manages the ledger's background jobs
type JobScheduler struct {
	scheduler   gocron.Scheduler
	dashboard   *jobs.DashboardRefreshService
	consistency *jobs.ConsistencyCheckService
	archiver    *jobs.ReportArchiver
	intervals   Intervals
	logger      *zap.Logger
	jobJobs     map[string]gocron.Job
	mu          sync.RWMutex
}

// NewJobScheduler creates the scheduler in loc and registers the jobs. A nil
// archiver leaves monthly archiving unscheduled.
func NewJobScheduler(dashboard *jobs.DashboardRefreshService, consistency *jobs.ConsistencyCheckService,
	archiver *jobs.ReportArchiver, intervals Intervals, loc *time.Location, logger *zap.Logger) (*JobScheduler, error) {

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		dashboard:   dashboard,
		consistency: consistency,
		archiver:    archiver,
		intervals:   intervals,
		logger:      logger,
		jobJobs:     make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", zap.Int("jobs", len(js.jobJobs)))
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	if js.dashboard != nil {
		js.register("dashboard-refresh",
			gocron.DurationJob(js.intervals.DashboardRefresh),
			gocron.NewTask(js.dashboard.ScheduledRefresh, context.Background()),
		)
	}

	if js.consistency != nil {
		js.register("ledger-consistency-check",
			gocron.DurationJob(js.intervals.ConsistencyCheck),
			gocron.NewTask(js.consistency.ScheduledCheck, context.Background()),
		)
	}

	// Monthly archive - 02:00 on the 1st
	if js.archiver != nil {
		js.register("monthly-report-archive",
			gocron.MonthlyJob(1, gocron.NewDaysOfTheMonth(1), gocron.NewAtTimes(gocron.NewAtTime(2, 0, 0))),
			gocron.NewTask(js.archiver.ScheduledArchive, context.Background()),
		)
	}

	js.logger.Info("registered background jobs", zap.Int("count", len(js.jobJobs)))
}

func (js *JobScheduler) register(name string, definition gocron.JobDefinition, task gocron.Task) {
	job, err := js.scheduler.NewJob(
		definition,
		task,
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		js.logger.Error("failed to create job", zap.String("job", name), zap.Error(err))
		return
	}
	js.jobJobs[name] = job
}

// RunNow triggers a registered job immediately.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, exists := js.jobJobs[name]
	js.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w %q", ErrUnknownJob, name)
	}
	return job.RunNow()
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobJobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobJobs, name)
		return err
	}

	return nil
}

// JobStatus describes one registered job.
type JobStatus struct {
	Name    string    `json:"name"`
	NextRun time.Time `json:"next_run"`
	LastRun time.Time `json:"last_run"`
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(js.jobJobs))
	for name, job := range js.jobJobs {
		status := JobStatus{Name: name}
		if next, err := job.NextRun(); err == nil {
			status.NextRun = next
		}
		if last, err := job.LastRun(); err == nil {
			status.LastRun = last
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	return statuses
}
