package usecase

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradearena/internal/domain"
)

// LeaderboardEntry is one ranked row of a challenge leaderboard.
type LeaderboardEntry struct {
	Position        int             `json:"position"`
	ParticipationID uuid.UUID       `json:"participation_id"`
	UserID          uuid.UUID       `json:"user_id"`
	Username        string          `json:"username"`
	DisplayName     string          `json:"display_name"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	PnL             decimal.Decimal `json:"pnl"`
	PnLPercentage   decimal.Decimal `json:"pnl_percentage"`
}

// LeaderboardCache caches ranked leaderboards between recomputations.
type LeaderboardCache interface {
	Get(ctx context.Context, challengeID uuid.UUID) ([]LeaderboardEntry, bool)
	Set(ctx context.Context, challengeID uuid.UUID, entries []LeaderboardEntry)
	Invalidate(ctx context.Context, challengeID uuid.UUID)
}

// LeaderboardService recomputes and persists challenge standings. Rank is a
// materialized value: it goes stale between computations and is refreshed on
// demand or by the scheduler.
type LeaderboardService struct {
	participationRepo domain.ParticipationRepository
	userRepo          domain.UserRepository
	challengeRepo     domain.ChallengeRepository
	cache             LeaderboardCache // optional
	logger            *zap.Logger
}

// NewLeaderboardService creates a new LeaderboardService. cache may be nil.
func NewLeaderboardService(
	participationRepo domain.ParticipationRepository,
	userRepo domain.UserRepository,
	challengeRepo domain.ChallengeRepository,
	cache LeaderboardCache,
	logger *zap.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		participationRepo: participationRepo,
		userRepo:          userRepo,
		challengeRepo:     challengeRepo,
		cache:             cache,
		logger:            logger,
	}
}

// Get returns the challenge leaderboard, served from cache when fresh.
func (s *LeaderboardService) Get(ctx context.Context, challengeID uuid.UUID) ([]LeaderboardEntry, error) {
	if s.cache != nil {
		if entries, ok := s.cache.Get(ctx, challengeID); ok {
			return entries, nil
		}
	}

	return s.Rank(ctx, challengeID)
}

// Rank recomputes the standings of a challenge: participations sorted by
// current balance descending, ties broken by earliest enrollment, positions
// assigned densely from 1 and persisted. Rows whose user cannot be resolved
// are skipped without failing the whole computation. The operation is
// idempotent.
func (s *LeaderboardService) Rank(ctx context.Context, challengeID uuid.UUID) ([]LeaderboardEntry, error) {
	if _, err := s.challengeRepo.GetByID(ctx, challengeID); err != nil {
		return nil, err
	}

	participations, err := s.participationRepo.GetByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	// Rows arrive ordered by creation time; the stable sort keeps that
	// order for equal balances, which is the tie-break.
	sort.SliceStable(participations, func(i, j int) bool {
		return participations[i].CurrentBalance.GreaterThan(participations[j].CurrentBalance)
	})

	entries := make([]LeaderboardEntry, 0, len(participations))
	positions := make(map[uuid.UUID]int, len(participations))
	for _, p := range participations {
		user, err := s.userRepo.GetByID(ctx, p.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("skipping participation with unresolvable user",
					zap.String("participation_id", p.ID.String()),
					zap.String("user_id", p.UserID.String()))
				continue
			}
			return nil, err
		}

		position := len(entries) + 1
		positions[p.ID] = position
		entries = append(entries, LeaderboardEntry{
			Position:        position,
			ParticipationID: p.ID,
			UserID:          p.UserID,
			Username:        user.Username,
			DisplayName:     user.Name(),
			CurrentBalance:  p.CurrentBalance,
			PnL:             p.PnL,
			PnLPercentage:   p.PnLPercentage,
		})
	}

	if err := s.participationRepo.UpdatePositions(ctx, positions); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, challengeID, entries)
	}

	return entries, nil
}

// RecomputeActive refreshes standings for every active challenge. Used by
// the scheduler; one failing challenge does not stop the others.
func (s *LeaderboardService) RecomputeActive(ctx context.Context) error {
	challenges, err := s.challengeRepo.GetByStatus(ctx, domain.ChallengeStatusActive)
	if err != nil {
		return err
	}

	for _, challenge := range challenges {
		if _, err := s.Rank(ctx, challenge.ID); err != nil {
			s.logger.Error("failed to recompute leaderboard",
				zap.String("challenge_id", challenge.ID.String()), zap.Error(err))
		}
	}

	return nil
}
