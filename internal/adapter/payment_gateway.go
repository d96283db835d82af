package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradearena/internal/domain"
)

// HTTPPaymentGateway implements the PaymentGateway interface against a
// card-payment processor's REST API. The processor holds the card data;
// this service only ever sees intent references and statuses.
type HTTPPaymentGateway struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewHTTPPaymentGateway creates a new payment gateway client
func NewHTTPPaymentGateway(baseURL, secretKey string) domain.PaymentGateway {
	return &HTTPPaymentGateway{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// createIntentRequest is the request body for intent creation
type createIntentRequest struct {
	Amount   int64             `json:"amount"` // smallest currency unit
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// intentResponse is the gateway's representation of a payment intent
type intentResponse struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

// CreateIntent authorizes a charge for the exact entry fee, scoped to the
// (user, challenge) pair via intent metadata.
func (g *HTTPPaymentGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, userID, challengeID uuid.UUID) (*domain.PaymentIntent, error) {
	reqBody := createIntentRequest{
		Amount:   amount.Mul(decimal.NewFromInt(100)).IntPart(), // convert to cents
		Currency: currency,
		Metadata: map[string]string{
			"user_id":      userID.String(),
			"challenge_id": challengeID.String(),
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intent request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/payment_intents", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create intent request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call payment gateway: %v", domain.ErrPaymentGate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: gateway returned status=%d, body=%s", domain.ErrPaymentGate, resp.StatusCode, string(body))
	}

	var intent intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("%w: failed to decode intent response: %v", domain.ErrPaymentGate, err)
	}

	return g.toDomain(&intent)
}

// RetrieveIntent fetches a previously created intent by ID
func (g *HTTPPaymentGateway) RetrieveIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	url := fmt.Sprintf("%s/v1/payment_intents/%s", g.baseURL, intentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieve request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call payment gateway: %v", domain.ErrPaymentGate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("payment intent %s: %w", intentID, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: gateway returned status=%d, body=%s", domain.ErrPaymentGate, resp.StatusCode, string(body))
	}

	var intent intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("%w: failed to decode intent response: %v", domain.ErrPaymentGate, err)
	}

	return g.toDomain(&intent)
}

func (g *HTTPPaymentGateway) toDomain(intent *intentResponse) (*domain.PaymentIntent, error) {
	out := &domain.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       decimal.NewFromInt(intent.Amount).Div(decimal.NewFromInt(100)),
		Currency:     intent.Currency,
		Status:       intent.Status,
	}

	if raw, ok := intent.Metadata["user_id"]; ok {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed user_id metadata: %v", domain.ErrPaymentGate, err)
		}
		out.UserID = id
	}
	if raw, ok := intent.Metadata["challenge_id"]; ok {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed challenge_id metadata: %v", domain.ErrPaymentGate, err)
		}
		out.ChallengeID = id
	}

	return out, nil
}
