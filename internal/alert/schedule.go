package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hmgdev/hmg-index/internal/core"
)

// Scheduler queues a scheduled alert event on a cron schedule.
type Scheduler struct {
	schedule string
	location *time.Location
	queue    chan<- Event
	cron     *cron.Cron
}

// NewScheduler validates schedule (standard five-field cron or a
// descriptor such as "@hourly") and timezone (empty means UTC).
func NewScheduler(schedule, timezone string, queue chan<- Event) (*Scheduler, error) {
	if schedule == "" {
		return nil, fmt.Errorf("alert schedule is required")
	}
	location := time.UTC
	if timezone != "" {
		tz, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone: %w", err)
		}
		location = tz
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid alert schedule %q: %w", schedule, err)
	}
	return &Scheduler{schedule: schedule, location: location, queue: queue}, nil
}

// Start runs the schedule until ctx is done. Ticks that find the queue full
// are dropped.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := core.LoggerFromContext(ctx)
	s.cron = cron.New(cron.WithLocation(s.location))
	_, err := s.cron.AddFunc(s.schedule, func() {
		ev := Event{Key: EventKey, Source: SourceSchedule, At: time.Now().UTC()}
		if !offer(s.queue, ev) {
			logger.Warn("scheduled alert dropped", "error", ErrQueueFull)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("alert schedule started", "schedule", s.schedule, "timezone", s.location.String())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
