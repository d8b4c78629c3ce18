package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-shortcode/internal/weather"
)

const (
	jobTimeout = 30 * time.Second

	// Upper bound on concurrent warm-up queries.
	warmConcurrency = 4
)

// Cache is the part of weather.Service the scheduler drives.
type Cache interface {
	Query(ctx context.Context, placeName string, unit weather.Unit) (weather.Report, error)
	FlushExpired(ctx context.Context) (int, error)
}

// Scheduler sweeps expired cache entries and optionally keeps a set of
// cities warm.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Cache

	janitorInterval time.Duration

	cities       []string
	unit         weather.Unit
	warmInterval time.Duration
}

// New creates a new Scheduler. cities may be empty.
func New(service Cache, janitorInterval time.Duration, cities []string, unit weather.Unit, warmInterval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler:       gocron.NewScheduler(time.UTC),
		service:         service,
		janitorInterval: janitorInterval,
		cities:          cities,
		unit:            unit,
		warmInterval:    warmInterval,
	}
}

// Start schedules the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.janitorInterval <= 0 {
		s.janitorInterval = time.Hour
	}
	if _, err := s.scheduler.Every(s.janitorInterval).Do(s.sweep); err != nil {
		return err
	}

	if len(s.cities) == 0 {
		log.Debug().Msg("scheduler: no warm cities configured")
	} else {
		if s.warmInterval <= 0 {
			s.warmInterval = 30 * time.Minute
		}
		if _, err := s.scheduler.Every(s.warmInterval).Do(s.warm); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.service.FlushExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: expired sweep failed")
		return
	}
	log.Debug().Int("removed", n).Msg("scheduler: expired sweep done")
}

func (s *Scheduler) warm() {
	log.Debug().Int("cities", len(s.cities)).Msg("scheduler: warming weather cache")

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(warmConcurrency)
	for _, city := range s.cities {
		city := city
		g.Go(func() error {
			// A failed city does not stop the others.
			if _, err := s.service.Query(ctx, city, s.unit); err != nil {
				log.Warn().Err(err).Str("city", city).Msg("scheduler: warm query failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}
