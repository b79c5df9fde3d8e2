package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
)

// Ingester runs one fetch cycle for a spot.
type Ingester interface {
	FetchAndStore(ctx context.Context, spot surf.Spot) (map[string]surf.IngestResult, error)
}

// Scheduler periodically fetches forecasts for configured spots.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	ingester    Ingester
	spots       []surf.Spot
	interval    time.Duration
	concurrency int
	timeout     time.Duration
}

// New creates a new Scheduler.
func New(spots []surf.Spot, interval time.Duration, concurrency int, ingester Ingester) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scheduler{
		scheduler:   s,
		ingester:    ingester,
		spots:       spots,
		interval:    interval,
		concurrency: concurrency,
		timeout:     2 * time.Minute,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first cycle runs immediately.
func (s *Scheduler) Start() error {
	if len(s.spots) == 0 {
		log.Println("scheduler: no spots configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().SingletonMode().Do(func() {
		s.RunCycle(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunCycle fetches every spot once, at most concurrency spots at a time.
// A failing spot is logged and does not stop the others.
func (s *Scheduler) RunCycle(ctx context.Context) {
	log.Println("scheduler: running surf fetch job")

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, spot := range s.spots {
		spot := spot
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(gCtx, s.timeout)
			defer cancel()

			if _, err := s.ingester.FetchAndStore(ctx, spot); err != nil {
				log.Printf("scheduler: fetch failed for spot %d (%s): %v", spot.ID, spot.Name, err)
			}
			// Errors stay isolated per spot.
			return nil
		})
	}
	_ = g.Wait()
	log.Println("scheduler: completed surf fetch job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
