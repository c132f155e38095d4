package services

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/sprintboard/domain"
)

// OwnerLister enumerates owners that already plan with sprints.
type OwnerLister interface {
	Owners(ctx context.Context) ([]int64, error)
}

// SprintEnsurer creates the current week's sprint when an owner lacks one.
type SprintEnsurer interface {
	EnsureCurrent(ctx context.Context, ownerID int64) (*domain.Sprint, bool, error)
}

// RolloverConfig controls when the rollover job fires.
type RolloverConfig struct {
	// Schedule is a six-field cron expression (seconds first).
	Schedule string
	Timeout  time.Duration
}

// RolloverReport summarizes one pass.
type RolloverReport struct {
	Owners  int
	Created int
	Failed  int
}

// Rollover keeps a sprint covering today for every known owner.
type Rollover struct {
	owners  OwnerLister
	sprints SprintEnsurer
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     RolloverConfig
}

func NewRollover(owners OwnerLister, sprints SprintEnsurer, logger *zap.Logger, cfg RolloverConfig) (*Rollover, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 5 0 * * *"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Rollover{
		owners:  owners,
		sprints: sprints,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	_, err := r.cron.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
		defer cancel()
		if _, err := r.Run(ctx); err != nil {
			r.logger.Error("sprint rollover failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Start launches the cron scheduler.
func (r *Rollover) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("sprint rollover started", zap.String("schedule", r.cfg.Schedule))
}

// Stop waits for a running pass or for ctx, whichever ends first.
func (r *Rollover) Stop(ctx context.Context) error {
	if r == nil || r.cron == nil {
		return nil
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	r.logger.Info("sprint rollover stopped")
	return nil
}

// Run performs one pass synchronously. A failing owner does not stop the
// pass; its error is joined into the returned error.
func (r *Rollover) Run(ctx context.Context) (RolloverReport, error) {
	var report RolloverReport
	owners, err := r.owners.Owners(ctx)
	if err != nil {
		return report, err
	}
	report.Owners = len(owners)

	var result error
	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			return report, errors.Join(result, err)
		}
		sprint, created, err := r.sprints.EnsureCurrent(ctx, ownerID)
		if err != nil {
			report.Failed++
			r.logger.Warn("ensure current sprint failed", zap.Int64("owner_id", ownerID), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		if created {
			report.Created++
			r.logger.Info("current sprint created",
				zap.Int64("owner_id", ownerID),
				zap.Int64("sprint_id", sprint.ID),
				zap.String("start", domain.DateKey(sprint.StartDate)),
			)
		}
	}

	r.logger.Debug("sprint rollover pass finished",
		zap.Int("owners", report.Owners),
		zap.Int("created", report.Created),
		zap.Int("failed", report.Failed),
	)
	return report, result
}
