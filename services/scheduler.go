// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"referral-rewards-system/models"

	"github.com/go-co-op/gocron/v2"
)

// WinnerSchedule is the cron expression that triggers one period type.
type WinnerSchedule struct {
	Period models.PeriodType
	Cron   string
}

// StartWinnerScheduler runs SelectAndProcess for each schedule on its cron, in the
// rewards timezone. Overlapping runs of the same job are rescheduled, not stacked.
// The caller owns the returned scheduler and must Shutdown it.
func (s *WinnerService) StartWinnerScheduler(ctx context.Context, schedules []WinnerSchedule) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(s.Periods.Location))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	for _, sch := range schedules {
		period := sch.Period
		_, err := sched.NewJob(
			gocron.CronJob(sch.Cron, false),
			gocron.NewTask(func() {
				runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
				defer cancel()
				log.Printf("[Scheduler] Running %s winner selection", period)
				if _, err := s.SelectAndProcess(runCtx, period); err != nil {
					log.Printf("[Scheduler] %s winner selection failed: %v", period, err)
				}
			}),
			gocron.WithName(string(period)+"-winner"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("invalid %s schedule %q: %w", period, sch.Cron, err)
		}
		log.Printf("✅ [Scheduler] %s winner job scheduled (%s, %s)", period, sch.Cron, s.Periods.Location)
	}

	sched.Start()
	return sched, nil
}
