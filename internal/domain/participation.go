package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Participation is a user's enrollment in one challenge. CurrentBalance,
// PnL and PnLPercentage are mutated only by trade-close settlement;
// Position only by the leaderboard ranker.
type Participation struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	ChallengeID     uuid.UUID       `json:"challenge_id"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	PnL             decimal.Decimal `json:"pnl"`
	PnLPercentage   decimal.Decimal `json:"pnl_percentage"`
	Position        *int            `json:"position,omitempty"` // nil until ranked at least once
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ParticipationStatus constants
const (
	ParticipationStatusActive    = "active"
	ParticipationStatusCompleted = "completed"
)

// PaymentStatus constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// NewParticipation initializes an enrollment against a challenge. The
// starting balance is the challenge's initial balance; PnL starts at zero
// and the rank position is unset.
func NewParticipation(userID uuid.UUID, challenge *Challenge, paymentIntentID string) *Participation {
	now := time.Now()
	return &Participation{
		ID:              uuid.New(),
		UserID:          userID,
		ChallengeID:     challenge.ID,
		CurrentBalance:  challenge.InitialBalance,
		PnL:             decimal.Zero,
		PnLPercentage:   decimal.Zero,
		Status:          ParticipationStatusActive,
		PaymentStatus:   PaymentStatusCompleted,
		PaymentIntentID: paymentIntentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ApplySettlement applies a realized trade profit to the running balance and
// recomputes cumulative PnL relative to the challenge's initial balance.
func (p *Participation) ApplySettlement(profit, initialBalance decimal.Decimal) {
	p.CurrentBalance = p.CurrentBalance.Add(profit)
	p.PnL = p.CurrentBalance.Sub(initialBalance)
	if initialBalance.IsZero() {
		p.PnLPercentage = decimal.Zero
	} else {
		p.PnLPercentage = p.PnL.Div(initialBalance).Mul(decimal.NewFromInt(100))
	}
	p.UpdatedAt = time.Now()
}
