package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"leavemgmt/internal/platform/querier"
)

const (
	JobHolidayAnnounce = "holiday_announce"
	JobLeaveAccrual    = "leave_accrual"
)

// RunFunc performs one job run. The returned details are stored as JSON
// on the job_runs row.
type RunFunc func(ctx context.Context) (any, error)

// Task is a job enqueued on a fixed interval once Start is called.
// RunOnStart also enqueues it as soon as Start runs.
type Task struct {
	Type       string
	Interval   time.Duration
	Run        RunFunc
	RunOnStart bool
}

type Service struct {
	DB    querier.Querier
	log   *zap.Logger
	queue chan job
	tasks []Task
	wg    sync.WaitGroup
}

type job struct {
	Type string
	Run  RunFunc
}

// New returns a job runner. db may be nil, in which case runs are not
// recorded.
func New(db querier.Querier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		DB:    db,
		log:   logger.Named("jobs"),
		queue: make(chan job, 128),
	}
}

// Schedule registers a periodic task. Tasks with a non-positive interval
// are ignored. Call before Start.
func (s *Service) Schedule(t Task) {
	if t.Interval <= 0 || t.Run == nil {
		s.log.Info("job schedule disabled", zap.String("job_type", t.Type))
		return
	}
	s.tasks = append(s.tasks, t)
}

func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.schedule(ctx, t)
	}
}

// Wait blocks until the worker and schedulers exit after ctx is done.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue hands a run to the background worker. It reports false when
// the queue is full and the run was dropped.
func (s *Service) Enqueue(jobType string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		s.log.Warn("job queue full", zap.String("job_type", jobType))
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.log.Warn("job run failed", zap.String("job_type", j.Type), zap.Error(err))
			}
		}
	}
}

func (s *Service) schedule(ctx context.Context, t Task) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	if t.RunOnStart {
		s.Enqueue(t.Type, t.Run)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(t.Type, t.Run)
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	started := time.Now()
	runID := s.recordStart(ctx, j.Type)

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	s.recordFinish(ctx, runID, status, details, err)
	s.log.Info("job run finished",
		zap.String("job_type", j.Type),
		zap.String("status", status),
		zap.Duration("took", time.Since(started)))
	return details, err
}

func (s *Service) recordStart(ctx context.Context, jobType string) string {
	if s.DB == nil {
		return ""
	}
	var runID string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, jobType, "running").Scan(&runID); err != nil {
		s.log.Warn("job run insert failed", zap.Error(err))
		return ""
	}
	return runID
}

func (s *Service) recordFinish(ctx context.Context, runID, status string, details any, runErr error) {
	if s.DB == nil || runID == "" {
		return
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		s.log.Warn("job details marshal failed", zap.Error(err))
		detailsJSON = []byte("{}")
	}
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	if _, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, error = NULLIF($3, ''), completed_at = now()
    WHERE id = $4
  `, status, detailsJSON, errText, runID); err != nil {
		s.log.Warn("job run update failed", zap.Error(err))
	}
}
