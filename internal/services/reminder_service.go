package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"

	"medremind/internal/models"
)

// Notifier delivers one dose reminder to the user's device. The push
// transport lives outside this service; tests inject a recorder.
type Notifier interface {
	Notify(userID, medicationID, name, dosage, clockTime string)
}

// LogNotifier is the default notifier used when no push transport is wired.
type LogNotifier struct{}

// Notify logs the reminder.
func (LogNotifier) Notify(userID, medicationID, name, dosage, clockTime string) {
	log.Printf("🔔 [REMINDER] %s: time to take %s (%s) at %s", userID, name, dosage, clockTime)
}

// ReminderService maintains one recurring daily trigger per
// (medication, clock time) pair. Voice announcements are debounced through an
// injected TTL cache so a rescheduled trigger cannot double-announce within
// the same minute.
type ReminderService struct {
	scheduler gocron.Scheduler
	notifier  Notifier
	announced *cache.Cache

	mu   sync.Mutex
	jobs map[string][]gocron.Job // medication id -> its daily jobs
}

// NewReminderService creates the reminder service. debounce controls the
// announcement suppression window; zero selects one minute.
func NewReminderService(notifier Notifier, debounce time.Duration) (*ReminderService, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if debounce <= 0 {
		debounce = time.Minute
	}

	return &ReminderService{
		scheduler: scheduler,
		notifier:  notifier,
		announced: cache.New(debounce, 5*time.Minute),
		jobs:      make(map[string][]gocron.Job),
	}, nil
}

// Start begins firing triggers.
func (s *ReminderService) Start() {
	s.scheduler.Start()
	log.Println("⏰ Reminder scheduler started")
}

// Stop shuts the scheduler down and drops all triggers.
func (s *ReminderService) Stop() error {
	log.Println("⏹️ Stopping reminder scheduler...")
	return s.scheduler.Shutdown()
}

// Schedule registers one recurring daily trigger per reminder time of the
// medication, replacing any triggers it already had. Malformed times are
// skipped; the engine upstream guarantees there is at least one valid entry.
func (s *ReminderService) Schedule(med models.Medication) error {
	s.Unschedule(med.ID)
	if !med.ReminderEnabled {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []gocron.Job
	for _, clockTime := range med.Times {
		hour, minute, err := parseClockTime(clockTime)
		if err != nil {
			log.Printf("⚠️ [REMINDER] Skipping malformed time %q for %s: %v", clockTime, med.ID, err)
			continue
		}

		userID, medID, name, dosage, at := med.UserID, med.ID, med.Name, med.Dosage, clockTime
		job, err := s.scheduler.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0))),
			gocron.NewTask(func() {
				s.fire(userID, medID, name, dosage, at)
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule %s at %s: %w", med.ID, clockTime, err)
		}
		jobs = append(jobs, job)
	}

	s.jobs[med.ID] = jobs
	log.Printf("⏰ [REMINDER] Scheduled %d daily trigger(s) for %s", len(jobs), med.Name)
	return nil
}

// Unschedule removes every trigger belonging to the medication.
func (s *ReminderService) Unschedule(medicationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs[medicationID] {
		if err := s.scheduler.RemoveJob(job.ID()); err != nil {
			log.Printf("⚠️ [REMINDER] Failed to remove job for %s: %v", medicationID, err)
		}
	}
	delete(s.jobs, medicationID)
}

// fire delivers one reminder, debouncing duplicate announcements for the
// same (medication, time) pair inside the suppression window.
func (s *ReminderService) fire(userID, medicationID, name, dosage, clockTime string) {
	key := medicationID + "@" + clockTime
	if _, already := s.announced.Get(key); already {
		remindersDebouncedTotal.Inc()
		return
	}
	s.announced.Set(key, struct{}{}, cache.DefaultExpiration)

	remindersFiredTotal.Inc()
	s.notifier.Notify(userID, medicationID, name, dosage, clockTime)
}

// NextDose reports the earliest upcoming firing across a medication's
// reminder times, and which HH:MM trigger it belongs to. Malformed entries
// are skipped; an error means no entry was usable.
func NextDose(times []string, from time.Time) (time.Time, string, error) {
	var best time.Time
	var bestClock string
	for _, clockTime := range times {
		next, err := NextRun(clockTime, from)
		if err != nil {
			continue
		}
		if best.IsZero() || next.Before(best) {
			best = next
			bestClock = clockTime
		}
	}
	if best.IsZero() {
		return time.Time{}, "", fmt.Errorf("no valid reminder times in %v", times)
	}
	return best, bestClock, nil
}

// NextRun reports the next wall-clock firing of a daily trigger time,
// using standard cron semantics.
func NextRun(clockTime string, from time.Time) (time.Time, error) {
	hour, minute, err := parseClockTime(clockTime)
	if err != nil {
		return time.Time{}, err
	}
	spec, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to build cron spec: %w", err)
	}
	return spec.Next(from), nil
}

func parseClockTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minute in %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", s)
	}
	return hour, minute, nil
}
