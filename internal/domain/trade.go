package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade represents a simulated position owned by exactly one participation.
// ClosePrice, Profit and CloseTime are nil while the trade is open and all
// set once closed; a trade transitions open -> closed exactly once.
type Trade struct {
	ID              uuid.UUID        `json:"id"`
	ParticipationID uuid.UUID        `json:"participation_id"`
	Symbol          string           `json:"symbol"`
	Type            string           `json:"type"`
	OpenPrice       decimal.Decimal  `json:"open_price"`
	ClosePrice      *decimal.Decimal `json:"close_price,omitempty"`
	Volume          decimal.Decimal  `json:"volume"`
	Profit          *decimal.Decimal `json:"profit,omitempty"`
	Status          string           `json:"status"`
	OpenTime        time.Time        `json:"open_time"`
	CloseTime       *time.Time       `json:"close_time,omitempty"`
}

// TradeType constants (direction)
const (
	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"
)

// TradeStatus constants
const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)

// Pip multipliers per instrument class. 10,000 is correct for 4-decimal
// forex pairs; crypto and stock prices are already quoted in the account
// currency, so their profit scales 1:1 with the price delta.
var pipMultipliers = map[string]decimal.Decimal{
	ChallengeTypeForex:  decimal.NewFromInt(10000),
	ChallengeTypeCrypto: decimal.NewFromInt(1),
	ChallengeTypeStocks: decimal.NewFromInt(1),
}

// PipMultiplier returns the profit scaling constant for a challenge's
// instrument class. Unknown classes scale 1:1.
func PipMultiplier(challengeType string) decimal.Decimal {
	if m, ok := pipMultipliers[challengeType]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// ValidTradeType reports whether t is buy or sell.
func ValidTradeType(t string) bool {
	return t == TradeTypeBuy || t == TradeTypeSell
}

// IsOpen reports whether the trade can still be closed.
func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// ComputeProfit computes the realized profit for closing a trade at closePrice:
// (close - open) x volume x pip for a buy, reversed for a sell.
func ComputeProfit(tradeType string, openPrice, closePrice, volume, pip decimal.Decimal) decimal.Decimal {
	delta := closePrice.Sub(openPrice)
	if tradeType == TradeTypeSell {
		delta = openPrice.Sub(closePrice)
	}
	return delta.Mul(volume).Mul(pip)
}

// Close marks the trade closed at closePrice with the given realized profit.
// The caller persists the trade together with the settlement on its owning
// participation in one transaction.
func (t *Trade) Close(closePrice, profit decimal.Decimal, at time.Time) {
	t.ClosePrice = &closePrice
	t.Profit = &profit
	t.CloseTime = &at
	t.Status = TradeStatusClosed
}
