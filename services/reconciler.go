package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/sabo-bracket/repositories"
	"github.com/go-co-op/gocron/v2"
)

// Reconciler periodically re-applies advancement for every confirmed match
// of every active tournament, healing results whose advancement was lost.
type Reconciler struct {
	gateway   repositories.Gateway
	matches   MatchService
	interval  time.Duration
	logger    *slog.Logger
	scheduler gocron.Scheduler
}

func NewReconciler(gateway repositories.Gateway, matches MatchService, interval time.Duration, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		gateway:  gateway,
		matches:  matches,
		interval: interval,
		logger:   logger,
	}
}

func (r *Reconciler) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.interval)
			defer cancel()
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("reconcile sweep failed", slog.Any("error", err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("bracket-reconciler"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule reconciler: %w", err)
	}
	sched.Start()
	r.scheduler = sched
	r.logger.Info("reconciler started", slog.Duration("interval", r.interval))
	return nil
}

func (r *Reconciler) Shutdown() error {
	if r.scheduler == nil {
		return nil
	}
	return r.scheduler.Shutdown()
}

// Sweep runs one reconciliation pass and returns the number of matches whose
// advancement had to be re-applied. A failing tournament does not stop the
// sweep.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	ids, err := r.gateway.ListActiveTournamentIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active tournaments: %w", err)
	}

	total := 0
	for _, id := range ids {
		n, err := r.matches.ReapplyConfirmed(ctx, id)
		if err != nil {
			r.logger.Error("reconcile failed",
				slog.String("tournament_id", id),
				slog.Any("error", err),
			)
			continue
		}
		if n > 0 {
			r.logger.Warn("re-applied missing advancements",
				slog.String("tournament_id", id),
				slog.Int("matches", n),
			)
		}
		total += n
	}
	return total, nil
}
