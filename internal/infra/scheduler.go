package infra

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tradearena/internal/usecase"
)

// Scheduler runs the periodic lifecycle sweep and leaderboard refresh
type Scheduler struct {
	cron               *cron.Cron
	challengeService   *usecase.ChallengeService
	leaderboardService *usecase.LeaderboardService
	cache              usecase.LeaderboardCache // optional
	logger             *zap.Logger
}

// NewScheduler creates a new scheduler. cache may be nil.
func NewScheduler(
	challengeService *usecase.ChallengeService,
	leaderboardService *usecase.LeaderboardService,
	cache usecase.LeaderboardCache,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:               cron.New(),
		challengeService:   challengeService,
		leaderboardService: leaderboardService,
		cache:              cache,
		logger:             logger,
	}
}

// Start registers the jobs and starts the cron scheduler
func (s *Scheduler) Start() error {
	// Lifecycle sweep: activate challenges whose start time has passed,
	// complete those whose end time has passed.
	_, err := s.cron.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		completed, err := s.challengeService.SweepStatuses(ctx, time.Now())
		if err != nil {
			s.logger.Error("challenge status sweep failed", zap.Error(err))
			return
		}

		for _, challengeID := range completed {
			// Final standings replace the live leaderboard once a
			// challenge completes.
			if s.cache != nil {
				s.cache.Invalidate(ctx, challengeID)
			}
			entries, err := s.leaderboardService.Rank(ctx, challengeID)
			if err != nil {
				s.logger.Error("failed to freeze final standings",
					zap.String("challenge_id", challengeID.String()), zap.Error(err))
				continue
			}
			if len(entries) == 0 {
				continue
			}
			if err := s.challengeService.AwardWinner(ctx, challengeID, entries[0].UserID); err != nil {
				s.logger.Error("failed to record challenge winner",
					zap.String("challenge_id", challengeID.String()), zap.Error(err))
			}
		}
	})
	if err != nil {
		return err
	}

	// Leaderboard refresh for active challenges
	_, err = s.cron.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.leaderboardService.RecomputeActive(ctx); err != nil {
			s.logger.Error("leaderboard recomputation failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started")
	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
