package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tradearena/internal/domain"
)

// ChallengeService runs the challenge lifecycle: join validation and
// execution, payment authorization, and time-driven status transitions.
type ChallengeService struct {
	challengeRepo     domain.ChallengeRepository
	participationRepo domain.ParticipationRepository
	activityRepo      domain.ActivityRepository
	gateway           domain.PaymentGateway
	logger            *zap.Logger
}

// NewChallengeService creates a new ChallengeService
func NewChallengeService(
	challengeRepo domain.ChallengeRepository,
	participationRepo domain.ParticipationRepository,
	activityRepo domain.ActivityRepository,
	gateway domain.PaymentGateway,
	logger *zap.Logger,
) *ChallengeService {
	return &ChallengeService{
		challengeRepo:     challengeRepo,
		participationRepo: participationRepo,
		activityRepo:      activityRepo,
		gateway:           gateway,
		logger:            logger,
	}
}

// ParticipationWithChallenge joins a participation with its challenge for
// listing endpoints.
type ParticipationWithChallenge struct {
	*domain.Participation
	Challenge *domain.Challenge `json:"challenge,omitempty"`
}

// List retrieves all challenges
func (s *ChallengeService) List(ctx context.Context) ([]*domain.Challenge, error) {
	return s.challengeRepo.GetAll(ctx)
}

// GetWithParticipantCount retrieves one challenge plus its participant count
func (s *ChallengeService) GetWithParticipantCount(ctx context.Context, id uuid.UUID) (*domain.Challenge, int, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.participationRepo.CountByChallenge(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	return challenge, count, nil
}

// AuthorizePayment asks the payment gateway to authorize a charge for the
// challenge's entry fee. The same joinability checks as Join run first so a
// user is never charged for a challenge they cannot enter. Gateway failures
// surface unchanged and are never retried.
func (s *ChallengeService) AuthorizePayment(ctx context.Context, userID, challengeID uuid.UUID) (*domain.PaymentIntent, error) {
	challenge, err := s.checkJoinable(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, challenge.EntryFee, "usd", userID, challengeID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment intent created",
		zap.String("user_id", userID.String()),
		zap.String("challenge_id", challengeID.String()),
		zap.String("intent_id", intent.ID))

	return intent, nil
}

// Join enrolls a user in a challenge after verifying the payment intent the
// client confirmed. On success the participation starts with the challenge's
// initial balance and a challenge_join activity is appended.
func (s *ChallengeService) Join(ctx context.Context, userID, challengeID uuid.UUID, paymentIntentID string) (*domain.Participation, error) {
	if paymentIntentID == "" {
		return nil, fmt.Errorf("payment intent id is required: %w", domain.ErrValidation)
	}

	challenge, err := s.checkJoinable(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}

	if err := s.verifyPayment(ctx, userID, challenge, paymentIntentID); err != nil {
		return nil, err
	}

	participation := domain.NewParticipation(userID, challenge, paymentIntentID)

	// The unique index on (user_id, challenge_id) is the backstop for the
	// pre-check above: a concurrent duplicate join loses here.
	if err := s.participationRepo.Create(ctx, participation); err != nil {
		return nil, err
	}

	s.recordJoinActivity(ctx, userID, challenge)
	s.recordPaymentActivity(ctx, userID, challenge, paymentIntentID)

	s.logger.Info("user joined challenge",
		zap.String("user_id", userID.String()),
		zap.String("challenge_id", challengeID.String()),
		zap.String("participation_id", participation.ID.String()))

	return participation, nil
}

// ParticipationsForUser lists a user's participations joined with their
// challenges, optionally filtered to active ones.
func (s *ChallengeService) ParticipationsForUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]ParticipationWithChallenge, error) {
	participations, err := s.participationRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]ParticipationWithChallenge, 0, len(participations))
	for _, p := range participations {
		if activeOnly && p.Status != domain.ParticipationStatusActive {
			continue
		}

		challenge, err := s.challengeRepo.GetByID(ctx, p.ChallengeID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("participation references missing challenge",
					zap.String("participation_id", p.ID.String()),
					zap.String("challenge_id", p.ChallengeID.String()))
				result = append(result, ParticipationWithChallenge{Participation: p})
				continue
			}
			return nil, err
		}

		result = append(result, ParticipationWithChallenge{Participation: p, Challenge: challenge})
	}

	return result, nil
}

// SweepStatuses applies time-driven lifecycle transitions: upcoming
// challenges whose start time passed become active, active ones past their
// end time become completed, and participations of completed challenges are
// closed out. Returns the IDs of challenges completed by this sweep.
func (s *ChallengeService) SweepStatuses(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	activated, err := s.challengeRepo.ActivateDue(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, id := range activated {
		s.logger.Info("challenge activated", zap.String("challenge_id", id.String()))
	}

	completed, err := s.challengeRepo.CompleteDue(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, id := range completed {
		if err := s.participationRepo.CompleteByChallenge(ctx, id); err != nil {
			s.logger.Error("failed to complete participations",
				zap.String("challenge_id", id.String()), zap.Error(err))
			continue
		}
		s.logger.Info("challenge completed", zap.String("challenge_id", id.String()))
	}

	return completed, nil
}

// checkJoinable verifies the challenge exists, has not started, has
// capacity, and the user is not already enrolled.
func (s *ChallengeService) checkJoinable(ctx context.Context, userID, challengeID uuid.UUID) (*domain.Challenge, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	if challenge.HasStarted(time.Now()) {
		return nil, fmt.Errorf("challenge %s has already started: %w", challengeID, domain.ErrInvalidState)
	}

	count, err := s.participationRepo.CountByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	// MaxParticipants of zero means no cap
	if challenge.MaxParticipants > 0 && count >= challenge.MaxParticipants {
		return nil, fmt.Errorf("challenge %s is full: %w", challengeID, domain.ErrInvalidState)
	}

	_, err = s.participationRepo.GetByUserAndChallenge(ctx, userID, challengeID)
	if err == nil {
		return nil, fmt.Errorf("user %s already joined challenge %s: %w", userID, challengeID, domain.ErrAlreadyExists)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	return challenge, nil
}

// verifyPayment checks the intent with the gateway: it must be succeeded,
// carry this exact (user, challenge) scope, and match the entry fee.
func (s *ChallengeService) verifyPayment(ctx context.Context, userID uuid.UUID, challenge *domain.Challenge, paymentIntentID string) error {
	intent, err := s.gateway.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("unknown payment intent: %w", domain.ErrValidation)
		}
		return err
	}

	if intent.Status != domain.PaymentIntentSucceeded {
		return fmt.Errorf("payment intent %s is %s: %w", intent.ID, intent.Status, domain.ErrValidation)
	}
	if intent.UserID != userID || intent.ChallengeID != challenge.ID {
		return fmt.Errorf("payment intent %s is scoped to another enrollment: %w", intent.ID, domain.ErrValidation)
	}
	if !intent.Amount.Equal(challenge.EntryFee) {
		return fmt.Errorf("payment intent %s amount %s does not match entry fee %s: %w",
			intent.ID, intent.Amount, challenge.EntryFee, domain.ErrValidation)
	}

	return nil
}

// AwardWinner appends the challenge_win activity for the top-ranked user of a
// completed challenge.
func (s *ChallengeService) AwardWinner(ctx context.Context, challengeID, userID uuid.UUID) error {
	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return err
	}

	metadata, _ := json.Marshal(map[string]string{
		"challenge_id": challenge.ID.String(),
		"prize_amount": challenge.PrizeAmount.String(),
	})

	activity := &domain.Activity{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        domain.ActivityChallengeWin,
		Description: fmt.Sprintf("You won %q challenge and earned $%s", challenge.Name, challenge.PrizeAmount),
		Metadata:    string(metadata),
		CreatedAt:   time.Now(),
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return fmt.Errorf("failed to record win activity: %w", err)
	}

	s.logger.Info("challenge winner recorded",
		zap.String("challenge_id", challengeID.String()),
		zap.String("user_id", userID.String()),
		zap.String("prize_amount", challenge.PrizeAmount.String()))

	return nil
}

func (s *ChallengeService) recordJoinActivity(ctx context.Context, userID uuid.UUID, challenge *domain.Challenge) {
	metadata, _ := json.Marshal(map[string]string{"challenge_id": challenge.ID.String()})

	activity := &domain.Activity{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        domain.ActivityChallengeJoin,
		Description: fmt.Sprintf("You joined %q challenge", challenge.Name),
		Metadata:    string(metadata),
		CreatedAt:   time.Now(),
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to record join activity",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *ChallengeService) recordPaymentActivity(ctx context.Context, userID uuid.UUID, challenge *domain.Challenge, paymentIntentID string) {
	metadata, _ := json.Marshal(map[string]string{
		"challenge_id":      challenge.ID.String(),
		"payment_intent_id": paymentIntentID,
	})

	activity := &domain.Activity{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        domain.ActivityPayment,
		Description: fmt.Sprintf("Paid $%s entry fee for %q challenge", challenge.EntryFee, challenge.Name),
		Metadata:    string(metadata),
		CreatedAt:   time.Now(),
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to record payment activity",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}
