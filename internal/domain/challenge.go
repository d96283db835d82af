package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Challenge represents a time-boxed trading competition. The definition is
// immutable once participants have joined; only Status moves, driven by time.
type Challenge struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	EntryFee        decimal.Decimal `json:"entry_fee"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	InitialBalance  decimal.Decimal `json:"initial_balance"`
	PrizeAmount     decimal.Decimal `json:"prize_amount"`
	MaxParticipants int             `json:"max_participants"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ChallengeType constants (instrument class)
const (
	ChallengeTypeForex  = "forex"
	ChallengeTypeCrypto = "crypto"
	ChallengeTypeStocks = "stocks"
)

// ChallengeStatus constants
const (
	ChallengeStatusUpcoming  = "upcoming"
	ChallengeStatusActive    = "active"
	ChallengeStatusCompleted = "completed"
)

// HasStarted reports whether the join cutoff has passed.
func (c *Challenge) HasStarted(now time.Time) bool {
	return !c.StartTime.After(now)
}
