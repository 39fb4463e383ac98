package jobs

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// Job is a recurring background task. Name identifies the job in logs and
// the health payload; Next reports the wall-clock time of the run that
// follows now, so each job owns its cadence.
type Job interface {
	Name() string
	Next(now time.Time) time.Time
	Run(ctx context.Context) error
}

// Status is one job's entry in the health payload.
type Status struct {
	Name      string     `json:"name"`
	NextRun   time.Time  `json:"next_run"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

type jobState struct {
	job     Job
	timer   *time.Timer
	lastRun time.Time
	lastErr error
}

// Runner drives registered jobs on their own cadence with one timer per job.
// Runs of the same job never overlap; its next timer is armed only after the
// current run returns.
type Runner struct {
	mu      sync.Mutex
	jobs    map[string]*jobState
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewRunner creates an empty job runner.
func NewRunner() *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		jobs:   make(map[string]*jobState),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a job. Adding after Start arms its timer immediately.
func (r *Runner) Add(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := &jobState{job: job}
	r.jobs[job.Name()] = state
	log.Printf("✅ [JOBS] Registered job: %s", job.Name())

	if r.started {
		r.arm(state)
	}
}

// Start arms every registered job's timer.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return
	}
	r.started = true

	log.Printf("🚀 [JOBS] Starting %d background jobs", len(r.jobs))
	for _, state := range r.jobs {
		r.arm(state)
	}
}

// arm schedules the job's next run. Caller holds r.mu.
func (r *Runner) arm(state *jobState) {
	next := state.job.Next(time.Now())
	log.Printf("⏰ [JOBS] %s next runs at %s (in %v)",
		state.job.Name(), next.Format(time.RFC3339), time.Until(next).Round(time.Second))

	state.timer = time.AfterFunc(time.Until(next), func() {
		r.execute(state)
	})
}

// execute runs a job once and re-arms its timer.
func (r *Runner) execute(state *jobState) {
	r.wg.Add(1)
	defer r.wg.Done()

	name := state.job.Name()
	log.Printf("▶️  [JOBS] Running %s", name)
	started := time.Now()
	err := state.job.Run(r.ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	state.lastRun = started
	state.lastErr = err
	if err != nil {
		log.Printf("❌ [JOBS] %s failed after %v: %v", name, time.Since(started).Round(time.Millisecond), err)
	} else {
		log.Printf("✅ [JOBS] %s completed in %v", name, time.Since(started).Round(time.Millisecond))
	}

	if r.started {
		r.arm(state)
	}
}

// Stop cancels all timers and waits for in-flight runs to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false

	log.Println("🛑 [JOBS] Stopping background jobs...")
	for _, state := range r.jobs {
		if state.timer != nil {
			state.timer.Stop()
			state.timer = nil
		}
	}
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
	log.Println("✅ [JOBS] Background jobs stopped")
}

// RunNow executes a job immediately, outside its cadence.
func (r *Runner) RunNow(name string) error {
	r.mu.Lock()
	state, ok := r.jobs[name]
	r.mu.Unlock()

	if !ok {
		log.Printf("⚠️  [JOBS] Unknown job %q", name)
		return nil
	}

	err := state.job.Run(r.ctx)

	r.mu.Lock()
	state.lastRun = time.Now()
	state.lastErr = err
	r.mu.Unlock()
	return err
}

// Status reports every job's cadence and last outcome, sorted by name.
func (r *Runner) Status() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	statuses := make([]Status, 0, len(r.jobs))
	for _, state := range r.jobs {
		s := Status{
			Name:    state.job.Name(),
			NextRun: state.job.Next(now),
		}
		if !state.lastRun.IsZero() {
			lastRun := state.lastRun
			s.LastRun = &lastRun
		}
		if state.lastErr != nil {
			s.LastError = state.lastErr.Error()
		}
		statuses = append(statuses, s)
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}
