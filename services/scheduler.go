// services/scheduler.go
package services

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartReplayScheduler re-runs the full-history rating replay on an
// interval, as reconciliation for finish events missed while the process
// was down. The outcome ledger makes repeated replays a no-op for
// anything already applied.
func (s *RatingService) StartReplayScheduler(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := s.Replay(); err != nil {
				s.Log.Error("scheduled rating replay failed", zap.Error(err))
			}
		}),
	)
}
