package dto

import (
	"github.com/shopspring/decimal"

	"tradearena/internal/domain"
)

// CreatePaymentIntentRequest represents the payment authorization payload
type CreatePaymentIntentRequest struct {
	ChallengeID string `json:"challenge_id"`
}

// PaymentIntentOutput carries the gateway confirmation secret to the client
type PaymentIntentOutput struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
}

// JoinChallengeRequest represents the join payload
type JoinChallengeRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// ChallengeOutput represents a challenge in API responses
type ChallengeOutput struct {
	*domain.Challenge
	ParticipantsCount *int `json:"participants_count,omitempty"`
}

// OpenTradeRequest represents the open-trade payload
type OpenTradeRequest struct {
	Symbol    string          `json:"symbol"`
	Type      string          `json:"type"`
	OpenPrice decimal.Decimal `json:"open_price"`
	Volume    decimal.Decimal `json:"volume"`
}

// CloseTradeRequest represents the close-trade payload
type CloseTradeRequest struct {
	ClosePrice decimal.Decimal `json:"close_price"`
}
