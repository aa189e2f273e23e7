package application

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically runs the time-based transitions against the booking
// service. It is the sole background actor: a single goroutine per process,
// started once at boot.
type Sweeper struct {
	service  *BookingService
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweeper configures a sweeper over the service. An interval of zero or
// less falls back to one minute.
func NewSweeper(service *BookingService, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		logger:   defaultLogger(logger),
	}
}

// Start launches the sweep loop. The first pass runs immediately so a
// restarted process catches up on transitions missed while it was down.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight pass to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if _, err := s.service.SweepOnce(ctx); err != nil {
		s.logger.ErrorContext(ctx, "sweep pass failed", "error", err)
	}
}
