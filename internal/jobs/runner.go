package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"shothook/internal/ledger"
	"shothook/internal/logging"
	"shothook/internal/services"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("job runner stopped")

// Func is the body of a background job.
type Func func(ctx context.Context) error

// Job describes work to run after the action reply has been sent.
type Job struct {
	Kind string
	// Key identifies the target of the job, for example the destination path
	// of a copy. Two in-flight jobs with the same key are allowed but logged.
	Key    string
	Detail string
	Run    Func
}

// Recorder persists job lifecycle records.
type Recorder interface {
	Start(ctx context.Context, rec ledger.Record) error
	Finish(ctx context.Context, id string, status ledger.Status, errMessage, errKind string, finishedAt time.Time) error
}

// Info describes an in-flight job.
type Info struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Key       string    `json:"key,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Handle tracks one submitted job.
type Handle struct {
	info Info
	done chan struct{}
	err  error
}

// ID returns the job id.
func (h *Handle) ID() string { return h.info.ID }

// Done is closed when the job finishes.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the job error after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the job finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runner executes jobs on their own goroutines and keeps them observable:
// every completion is logged with the submitting request's context and
// recorded in the ledger, and in-flight jobs can be counted and drained.
type Runner struct {
	recorder Recorder
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	stopped  bool
	inflight map[string]*Handle
	keys     map[string]int
}

// New creates a runner. recorder may be nil.
func New(recorder Recorder, logger *slog.Logger) *Runner {
	base, cancel := context.WithCancel(context.Background())
	return &Runner{
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "jobs"),
		newID:    uuid.NewString,
		now:      time.Now,
		base:     base,
		cancel:   cancel,
		inflight: make(map[string]*Handle),
		keys:     make(map[string]int),
	}
}

// Submit starts job and returns immediately. The job context keeps the values
// of ctx (request id, action, user) but not its cancellation; it is cancelled
// by Stop.
func (r *Runner) Submit(ctx context.Context, job Job) (*Handle, error) {
	if job.Run == nil {
		return nil, fmt.Errorf("submit %s: job has no body", job.Kind)
	}
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil, ErrStopped
	}
	handle := &Handle{
		info: Info{ID: r.newID(), Kind: job.Kind, Key: job.Key, Detail: job.Detail, StartedAt: r.now().UTC()},
		done: make(chan struct{}),
	}
	duplicate := job.Key != "" && r.keys[job.Key] > 0
	r.inflight[handle.info.ID] = handle
	if job.Key != "" {
		r.keys[job.Key]++
	}
	r.wg.Add(1)
	r.mu.Unlock()

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stopAfter := context.AfterFunc(r.base, cancel)
	jobCtx = services.WithJobID(jobCtx, handle.info.ID)
	logger := logging.WithContext(jobCtx, r.logger).With(logging.String(logging.FieldJobKind, job.Kind))

	if duplicate {
		logging.WarnWithContext(logger, "job already in flight for key", "job_duplicate",
			logging.String("key", job.Key),
			logging.String(logging.FieldImpact, "jobs may race on the same target"),
			logging.String(logging.FieldErrorHint, "wait for the earlier job before relaunching"),
		)
	}
	r.record(jobCtx, logger, func(ctx context.Context) error {
		user, _ := services.UserFromContext(jobCtx)
		action, _ := services.ActionFromContext(jobCtx)
		correlation, _ := services.RequestIDFromContext(jobCtx)
		return r.recorder.Start(ctx, ledger.Record{
			ID:            handle.info.ID,
			Kind:          job.Kind,
			Key:           job.Key,
			CorrelationID: correlation,
			Action:        action,
			User:          user,
			Detail:        job.Detail,
			StartedAt:     handle.info.StartedAt,
		})
	})
	logger.Debug("job started", logging.String("key", job.Key))

	go func() {
		defer r.wg.Done()
		defer stopAfter()
		defer cancel()
		err := r.execute(jobCtx, job)
		r.finish(jobCtx, logger, handle, job, err)
	}()
	return handle, nil
}

func (r *Runner) execute(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Kind, rec)
		}
	}()
	return job.Run(ctx)
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, handle *Handle, job Job, err error) {
	finished := r.now().UTC()
	elapsed := finished.Sub(handle.info.StartedAt)

	status := ledger.StatusSucceeded
	kind := ""
	message := ""
	switch {
	case err == nil:
		logger.Info("job completed",
			logging.String("detail", job.Detail),
			logging.Duration("elapsed", elapsed),
		)
	case errors.Is(err, context.Canceled):
		status = ledger.StatusCanceled
		kind = services.KindCanceled
		message = err.Error()
		logging.WarnWithContext(logger, "job canceled", "job_canceled",
			logging.String("detail", job.Detail),
			logging.Duration("elapsed", elapsed),
			logging.String(logging.FieldImpact, "work left unfinished"),
		)
	default:
		status = ledger.StatusFailed
		kind = services.Classify(err)
		message = err.Error()
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.String("detail", job.Detail),
			logging.Duration("elapsed", elapsed),
			logging.String(logging.FieldErrorKind, kind),
			logging.Error(err),
		)
	}
	r.record(ctx, logger, func(ctx context.Context) error {
		return r.recorder.Finish(ctx, handle.info.ID, status, message, kind, finished)
	})

	r.mu.Lock()
	delete(r.inflight, handle.info.ID)
	if job.Key != "" {
		if r.keys[job.Key]--; r.keys[job.Key] <= 0 {
			delete(r.keys, job.Key)
		}
	}
	r.mu.Unlock()

	handle.err = err
	close(handle.done)
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, fn func(context.Context) error) {
	if r.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logging.WarnWithContext(logger, "job ledger write failed", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job history incomplete"),
		)
	}
}

// InFlight returns the number of running jobs.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// Snapshot lists running jobs oldest first.
func (r *Runner) Snapshot() []Info {
	r.mu.Lock()
	out := make([]Info, 0, len(r.inflight))
	for _, h := range r.inflight {
		out = append(out, h.info)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Drain refuses new jobs and waits for running ones until ctx is done.
func (r *Runner) Drain(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain: %d jobs still running: %w", r.InFlight(), ctx.Err())
	}
}

// Stop cancels running jobs and waits for them to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}
