// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartExpiryScheduler runs the trade-offer expiry sweep once a minute.
// Correctness never depends on this job: Respond and Cancel treat a stale
// PENDING offer as expired at read time. The sweep only keeps listings clean.
func (s *TradeService) StartExpiryScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if _, err := s.ExpireStale(); err != nil {
				log.Printf("[Scheduler] Trade expiry sweep failed: %v", err)
			}
		}),
	)
}
