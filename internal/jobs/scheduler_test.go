package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubJob struct {
	name  string
	delay time.Duration
	err   error
	ran   chan struct{}
}

func newStubJob(name string, delay time.Duration) *stubJob {
	return &stubJob{name: name, delay: delay, ran: make(chan struct{}, 8)}
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Next(now time.Time) time.Time { return now.Add(j.delay) }

func (j *stubJob) Run(ctx context.Context) error {
	j.ran <- struct{}{}
	return j.err
}

func TestRunnerExecutesAndRearms(t *testing.T) {
	runner := NewRunner()
	job := newStubJob("stub", 10*time.Millisecond)
	runner.Add(job)
	runner.Start()
	defer runner.Stop()

	// Two firings prove the timer is re-armed after each run.
	for i := 0; i < 2; i++ {
		select {
		case <-job.ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("job did not fire (firing %d)", i+1)
		}
	}
}

func TestRunnerStatusTracksOutcome(t *testing.T) {
	runner := NewRunner()
	failing := newStubJob("failing", time.Hour)
	failing.err = errors.New("sweep failed")
	healthy := newStubJob("healthy", time.Hour)
	runner.Add(failing)
	runner.Add(healthy)

	if err := runner.RunNow("failing"); err == nil {
		t.Fatal("RunNow did not surface the job error")
	}
	if err := runner.RunNow("healthy"); err != nil {
		t.Fatalf("RunNow(healthy) error: %v", err)
	}

	statuses := runner.Status()
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	// Sorted by name: failing first.
	if statuses[0].Name != "failing" || statuses[1].Name != "healthy" {
		t.Fatalf("status order = %s, %s", statuses[0].Name, statuses[1].Name)
	}
	if statuses[0].LastError != "sweep failed" {
		t.Errorf("failing LastError = %q, want %q", statuses[0].LastError, "sweep failed")
	}
	if statuses[0].LastRun == nil || statuses[1].LastRun == nil {
		t.Error("LastRun not recorded")
	}
	if statuses[1].LastError != "" {
		t.Errorf("healthy LastError = %q, want empty", statuses[1].LastError)
	}
}

func TestRunnerRunNowUnknownJob(t *testing.T) {
	if err := NewRunner().RunNow("missing"); err != nil {
		t.Errorf("RunNow on unknown job returned %v", err)
	}
}

func TestRefillCheckCadence(t *testing.T) {
	job := NewRefillCheckJob(nil, nil)

	before := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	if got := job.Next(before); !got.Equal(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Next before 9 AM = %v, want same-day 9 AM", got)
	}

	after := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if got := job.Next(after); !got.Equal(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Next at 9 AM = %v, want next-day 9 AM", got)
	}
}

func TestSubscriptionExpiryCadence(t *testing.T) {
	job := NewSubscriptionExpiryJob(nil)

	now := time.Date(2026, 3, 10, 7, 25, 13, 0, time.UTC)
	if got := job.Next(now); !got.Equal(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Next = %v, want top of next hour", got)
	}
}
