package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DefaultReconcileSchedule re-checks running machines once a minute.
const DefaultReconcileSchedule = "@every 1m"

// Restorer arms countdowns for machines left running without one.
type Restorer interface {
	Restore(ctx context.Context) (int, error)
}

// Scheduler manages cron job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// New registers the reconcile job under schedule.
func New(restorer Restorer, schedule string) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(schedule, reconcileJob(restorer)); err != nil {
		return nil, fmt.Errorf("failed to register reconcile job %q: %w", schedule, err)
	}
	return &Scheduler{cron: c}, nil
}

func reconcileJob(restorer Restorer) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := restorer.Restore(ctx)
		if err != nil {
			log.Printf("Reconcile job failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("Reconcile job re-armed %d countdowns", n)
		}
	}
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("Scheduler started with %d jobs", len(s.cron.Entries()))
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("Scheduler stopped")
}
