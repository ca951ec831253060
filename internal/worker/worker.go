// Package worker runs the scheduled renewal sweep.
package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/renovahub/renewal-api/internal/service/notifier"
)

type Config struct {
	Schedule         string
	FallbackInterval time.Duration
}

// SweepWorker triggers the notifier's sweep on a cron schedule. When the
// schedule fails to parse it falls back to a plain ticker so renewals are
// never silently unwatched.
type SweepWorker struct {
	notifier notifier.NotifierServicer
	logger   zerolog.Logger
	cfg      Config
}

func NewSweepWorker(notifierSvc notifier.NotifierServicer, logger zerolog.Logger, cfg Config) *SweepWorker {
	if cfg.FallbackInterval <= 0 {
		cfg.FallbackInterval = 24 * time.Hour
	}
	return &SweepWorker{
		notifier: notifierSvc,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start blocks until ctx is cancelled.
func (w *SweepWorker) Start(ctx context.Context) {
	schedule, err := cron.ParseStandard(w.cfg.Schedule)
	if err != nil {
		w.logger.Error().Err(err).
			Str("schedule", w.cfg.Schedule).
			Dur("interval", w.cfg.FallbackInterval).
			Msg("invalid cron schedule, falling back to fixed interval")
		w.runTicker(ctx)
		return
	}

	w.logger.Info().Str("schedule", w.cfg.Schedule).Msg("sweep worker started")
	for {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info().Msg("sweep worker shutting down")
			return
		case <-timer.C:
			w.runSweep(ctx)
		}
	}
}

func (w *SweepWorker) runTicker(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.FallbackInterval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.cfg.FallbackInterval).Msg("sweep worker started on fixed interval")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("sweep worker shutting down")
			return
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

func (w *SweepWorker) runSweep(ctx context.Context) {
	result, err := w.notifier.Sweep(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("scheduled sweep failed")
		return
	}
	w.logger.Info().
		Int("checked", result.TotalChecked).
		Int("sent", result.TotalSent).
		Msg("scheduled sweep completed")
}
