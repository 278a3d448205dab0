// Package sweep moves in-possession reservations past their window end to
// overdue. It runs out of band from the API.
package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/cimillas/asset-reservations/internal/domain"
	"go.uber.org/zap"
)

type Lifecycle interface {
	OverdueCandidates(ctx context.Context) ([]domain.Reservation, error)
	MarkOverdue(ctx context.Context, reservationID string) (domain.Reservation, error)
}

type Result struct {
	Candidates int
	Marked     int
	Failed     int
}

type Sweeper struct {
	lifecycle Lifecycle
	logger    *zap.Logger
	dryRun    bool
}

func New(lifecycle Lifecycle, logger *zap.Logger, dryRun bool) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{lifecycle: lifecycle, logger: logger, dryRun: dryRun}
}

// Once runs a single pass. A reservation that changed state since it was
// listed is skipped; other per-reservation failures are counted and the pass
// continues.
func (s *Sweeper) Once(ctx context.Context) (Result, error) {
	candidates, err := s.lifecycle.OverdueCandidates(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Candidates: len(candidates)}
	for _, r := range candidates {
		log := s.logger.With(zap.String("reservation_id", r.ID), zap.String("reference", r.ReferenceCode))
		if s.dryRun {
			log.Info("would mark overdue", zap.Time("window_end", r.Window.End))
			continue
		}

		_, err := s.lifecycle.MarkOverdue(ctx, r.ID)
		switch {
		case err == nil:
			res.Marked++
			log.Info("marked overdue")
		case errors.Is(err, domain.ErrInvalidTransition):
			log.Debug("reservation moved on before sweep", zap.Error(err))
		case errors.Is(err, domain.ErrStorageUnavailable):
			return res, err
		default:
			res.Failed++
			log.Error("mark overdue failed", zap.Error(err))
		}
	}
	return res, nil
}

// Run sweeps every interval until ctx is cancelled. An interval of zero runs
// one pass.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		_, err := s.pass(ctx)
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.pass(ctx); err != nil {
			s.logger.Warn("sweep pass failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) pass(ctx context.Context) (Result, error) {
	res, err := s.Once(ctx)
	if err != nil {
		return res, err
	}
	s.logger.Info("sweep pass complete",
		zap.Int("candidates", res.Candidates),
		zap.Int("marked", res.Marked),
		zap.Int("failed", res.Failed),
		zap.Bool("dry_run", s.dryRun))
	return res, nil
}
