package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradearena/internal/domain"
)

// TradeService is the trade engine: it opens simulated positions against a
// supplied execution price and closes them, settling realized profit onto
// the owning participation.
type TradeService struct {
	tradeRepo         domain.TradeRepository
	participationRepo domain.ParticipationRepository
	challengeRepo     domain.ChallengeRepository
	activityRepo      domain.ActivityRepository
	logger            *zap.Logger
}

// NewTradeService creates a new TradeService
func NewTradeService(
	tradeRepo domain.TradeRepository,
	participationRepo domain.ParticipationRepository,
	challengeRepo domain.ChallengeRepository,
	activityRepo domain.ActivityRepository,
	logger *zap.Logger,
) *TradeService {
	return &TradeService{
		tradeRepo:         tradeRepo,
		participationRepo: participationRepo,
		challengeRepo:     challengeRepo,
		activityRepo:      activityRepo,
		logger:            logger,
	}
}

// OpenTrade opens a simulated position on a participation the caller owns.
// The participation balance is untouched: floating PnL is a presentation
// concern, only realized profit settles.
func (s *TradeService) OpenTrade(ctx context.Context, userID, participationID uuid.UUID, symbol, tradeType string, volume, openPrice decimal.Decimal) (*domain.Trade, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", domain.ErrValidation)
	}
	if !domain.ValidTradeType(tradeType) {
		return nil, fmt.Errorf("trade type must be buy or sell: %w", domain.ErrValidation)
	}
	if !volume.IsPositive() {
		return nil, fmt.Errorf("volume must be positive: %w", domain.ErrValidation)
	}
	if !openPrice.IsPositive() {
		return nil, fmt.Errorf("open price must be positive: %w", domain.ErrValidation)
	}

	participation, err := s.ownedParticipation(ctx, userID, participationID)
	if err != nil {
		return nil, err
	}
	if participation.Status != domain.ParticipationStatusActive {
		return nil, fmt.Errorf("participation %s is %s: %w", participation.ID, participation.Status, domain.ErrInvalidState)
	}

	trade := &domain.Trade{
		ID:              uuid.New(),
		ParticipationID: participation.ID,
		Symbol:          symbol,
		Type:            tradeType,
		OpenPrice:       openPrice,
		Volume:          volume,
		Status:          domain.TradeStatusOpen,
		OpenTime:        time.Now(),
	}

	if err := s.tradeRepo.Create(ctx, trade); err != nil {
		return nil, err
	}

	s.recordTradeActivity(ctx, userID, trade, "Opened")

	s.logger.Info("trade opened",
		zap.String("trade_id", trade.ID.String()),
		zap.String("participation_id", participation.ID.String()),
		zap.String("symbol", symbol),
		zap.String("type", tradeType),
		zap.String("volume", volume.String()),
		zap.String("open_price", openPrice.String()))

	return trade, nil
}

// CloseTrade closes an open trade the caller owns at the supplied price.
// Profit is computed server-side and the trade close plus the participation
// settlement commit as one atomic unit; a second close fails with
// ErrInvalidState and never settles twice.
func (s *TradeService) CloseTrade(ctx context.Context, userID, tradeID uuid.UUID, closePrice decimal.Decimal) (*domain.Trade, error) {
	if !closePrice.IsPositive() {
		return nil, fmt.Errorf("close price must be positive: %w", domain.ErrValidation)
	}

	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	participation, err := s.ownedParticipation(ctx, userID, trade.ParticipationID)
	if err != nil {
		return nil, err
	}

	if !trade.IsOpen() {
		return nil, fmt.Errorf("trade %s is already closed: %w", trade.ID, domain.ErrInvalidState)
	}

	challenge, err := s.challengeRepo.GetByID(ctx, participation.ChallengeID)
	if err != nil {
		return nil, err
	}

	closed, err := s.tradeRepo.CloseWithSettlement(ctx, tradeID, closePrice,
		challenge.InitialBalance, domain.PipMultiplier(challenge.Type), time.Now())
	if err != nil {
		return nil, err
	}

	s.recordTradeActivity(ctx, userID, closed, "Closed")

	s.logger.Info("trade closed",
		zap.String("trade_id", closed.ID.String()),
		zap.String("symbol", closed.Symbol),
		zap.String("close_price", closePrice.String()),
		zap.String("profit", closed.Profit.String()))

	return closed, nil
}

// ListTrades lists all trades of a participation the caller owns
func (s *TradeService) ListTrades(ctx context.Context, userID, participationID uuid.UUID) ([]*domain.Trade, error) {
	if _, err := s.ownedParticipation(ctx, userID, participationID); err != nil {
		return nil, err
	}

	return s.tradeRepo.GetByParticipation(ctx, participationID)
}

// ownedParticipation loads a participation and verifies the caller owns it
func (s *TradeService) ownedParticipation(ctx context.Context, userID, participationID uuid.UUID) (*domain.Participation, error) {
	participation, err := s.participationRepo.GetByID(ctx, participationID)
	if err != nil {
		return nil, err
	}

	if participation.UserID != userID {
		return nil, fmt.Errorf("participation %s belongs to another user: %w", participationID, domain.ErrForbidden)
	}

	return participation, nil
}

func (s *TradeService) recordTradeActivity(ctx context.Context, userID uuid.UUID, trade *domain.Trade, verb string) {
	metadata, _ := json.Marshal(map[string]string{
		"trade_id": trade.ID.String(),
		"symbol":   trade.Symbol,
	})

	activity := &domain.Activity{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        domain.ActivityTrade,
		Description: fmt.Sprintf("%s %s %s x%s", verb, trade.Type, trade.Symbol, trade.Volume),
		Metadata:    string(metadata),
		CreatedAt:   time.Now(),
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to record trade activity",
			zap.String("trade_id", trade.ID.String()), zap.Error(err))
	}
}
