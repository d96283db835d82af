package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentIntent is the gateway's charge authorization for one entry fee.
// The ClientSecret is handed to the client to confirm the charge; this core
// never stores card data, only the intent reference.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Status       string
	UserID       uuid.UUID
	ChallengeID  uuid.UUID
}

// PaymentIntentStatus values reported by the gateway.
const (
	PaymentIntentSucceeded = "succeeded"
)

// PaymentGateway is the external card-payment collaborator. Calls are never
// retried on failure: a retried charge risks double-billing.
type PaymentGateway interface {
	// CreateIntent authorizes a charge for the exact entry fee, scoped to
	// (userID, challengeID) via intent metadata.
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, userID, challengeID uuid.UUID) (*PaymentIntent, error)

	// RetrieveIntent fetches a previously created intent by ID so the
	// lifecycle manager can verify its status, amount and scope.
	RetrieveIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
}
