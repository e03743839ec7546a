package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SessionSweeper is implemented by repository.SessionRepository.
type SessionSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic sweep of expired session rows. Expiry is
// detected lazily on validation; the sweep is the backstop that keeps
// abandoned tombstones from accumulating.
type Scheduler struct {
	cron     *cron.Cron
	sessions SessionSweeper
	log      zerolog.Logger
}

func NewScheduler(sessions SessionSweeper, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 15 * * * *", s.sweepSessions); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop. The returned cancel fires once running jobs
// have wound down, or after the grace period.
func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		<-s.cron.Stop().Done()
		cancel()
	}()
	return cancel
}

func (s *Scheduler) sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if count > 0 {
		s.log.Info().Int64("sessions", count).Msg("expired sessions swept")
	}
}
