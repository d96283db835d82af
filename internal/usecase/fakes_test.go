package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradearena/internal/domain"
)

// In-memory repository fakes. They mirror the persistence semantics the
// services rely on: uniqueness of (user, challenge), ordering guarantees,
// and atomic close-with-settlement.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrAlreadyExists
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) UpdateDisplayName(_ context.Context, id uuid.UUID, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.DisplayName = displayName
	return nil
}

type fakeChallengeRepo struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]*domain.Challenge
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{challenges: make(map[uuid.UUID]*domain.Challenge)}
}

func (r *fakeChallengeRepo) Create(_ context.Context, challenge *domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[challenge.ID] = challenge
	return nil
}

func (r *fakeChallengeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	challenge, ok := r.challenges[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return challenge, nil
}

func (r *fakeChallengeRepo) GetAll(_ context.Context) ([]*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.Challenge, 0, len(r.challenges))
	for _, c := range r.challenges {
		all = append(all, c)
	}
	return all, nil
}

func (r *fakeChallengeRepo) GetByStatus(_ context.Context, status string) ([]*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Challenge
	for _, c := range r.challenges {
		if c.Status == status {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (r *fakeChallengeRepo) ActivateDue(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, c := range r.challenges {
		if c.Status == domain.ChallengeStatusUpcoming && !c.StartTime.After(now) {
			c.Status = domain.ChallengeStatusActive
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (r *fakeChallengeRepo) CompleteDue(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, c := range r.challenges {
		if c.Status == domain.ChallengeStatusActive && !c.EndTime.After(now) {
			c.Status = domain.ChallengeStatusCompleted
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

type fakeParticipationRepo struct {
	mu             sync.Mutex
	participations []*domain.Participation // insertion order, oldest first
}

func newFakeParticipationRepo() *fakeParticipationRepo {
	return &fakeParticipationRepo{}
}

func (r *fakeParticipationRepo) Create(_ context.Context, participation *domain.Participation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participations {
		if p.UserID == participation.UserID && p.ChallengeID == participation.ChallengeID {
			return domain.ErrAlreadyExists
		}
	}
	r.participations = append(r.participations, participation)
	return nil
}

func (r *fakeParticipationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Participation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participations {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeParticipationRepo) GetByUserAndChallenge(_ context.Context, userID, challengeID uuid.UUID) (*domain.Participation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participations {
		if p.UserID == userID && p.ChallengeID == challengeID {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeParticipationRepo) GetByChallenge(_ context.Context, challengeID uuid.UUID) ([]*domain.Participation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Participation
	for _, p := range r.participations {
		if p.ChallengeID == challengeID {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (r *fakeParticipationRepo) GetByUser(_ context.Context, userID uuid.UUID) ([]*domain.Participation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Participation
	for i := len(r.participations) - 1; i >= 0; i-- {
		if r.participations[i].UserID == userID {
			matched = append(matched, r.participations[i])
		}
	}
	return matched, nil
}

func (r *fakeParticipationRepo) CountByChallenge(_ context.Context, challengeID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.participations {
		if p.ChallengeID == challengeID {
			count++
		}
	}
	return count, nil
}

func (r *fakeParticipationRepo) UpdatePositions(_ context.Context, positions map[uuid.UUID]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participations {
		if pos, ok := positions[p.ID]; ok {
			position := pos
			p.Position = &position
		}
	}
	return nil
}

func (r *fakeParticipationRepo) CompleteByChallenge(_ context.Context, challengeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participations {
		if p.ChallengeID == challengeID && p.Status == domain.ParticipationStatusActive {
			p.Status = domain.ParticipationStatusCompleted
		}
	}
	return nil
}

type fakeTradeRepo struct {
	mu             sync.Mutex
	trades         map[uuid.UUID]*domain.Trade
	participations *fakeParticipationRepo
}

func newFakeTradeRepo(participations *fakeParticipationRepo) *fakeTradeRepo {
	return &fakeTradeRepo{
		trades:         make(map[uuid.UUID]*domain.Trade),
		participations: participations,
	}
}

func (r *fakeTradeRepo) Create(_ context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades[trade.ID] = trade
	return nil
}

func (r *fakeTradeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trade, ok := r.trades[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return trade, nil
}

func (r *fakeTradeRepo) GetByParticipation(_ context.Context, participationID uuid.UUID) ([]*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Trade
	for _, t := range r.trades {
		if t.ParticipationID == participationID {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

func (r *fakeTradeRepo) CloseWithSettlement(ctx context.Context, tradeID uuid.UUID, closePrice, initialBalance, pip decimal.Decimal, at time.Time) (*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trade, ok := r.trades[tradeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !trade.IsOpen() {
		return nil, fmt.Errorf("trade %s is already closed: %w", tradeID, domain.ErrInvalidState)
	}

	participation, err := r.participations.GetByID(ctx, trade.ParticipationID)
	if err != nil {
		return nil, err
	}

	profit := domain.ComputeProfit(trade.Type, trade.OpenPrice, closePrice, trade.Volume, pip)
	trade.Close(closePrice, profit, at)
	participation.ApplySettlement(profit, initialBalance)

	return trade, nil
}

type fakeActivityRepo struct {
	mu         sync.Mutex
	activities []*domain.Activity
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (r *fakeActivityRepo) Create(_ context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, activity)
	return nil
}

func (r *fakeActivityRepo) GetByUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Activity
	for i := len(r.activities) - 1; i >= 0 && len(matched) < limit; i-- {
		if r.activities[i].UserID == userID {
			matched = append(matched, r.activities[i])
		}
	}
	return matched, nil
}

// fakeGateway records created intents and serves back whatever intents the
// test registered.
type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]*domain.PaymentIntent
	created int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: make(map[string]*domain.PaymentIntent)}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount decimal.Decimal, currency string, userID, challengeID uuid.UUID) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created++
	intent := &domain.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", g.created),
		ClientSecret: fmt.Sprintf("pi_%d_secret", g.created),
		Amount:       amount,
		Currency:     currency,
		Status:       "requires_confirmation",
		UserID:       userID,
		ChallengeID:  challengeID,
	}
	g.intents[intent.ID] = intent
	return intent, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return intent, nil
}

// register stores a pre-confirmed intent as if the client already paid.
func (g *fakeGateway) register(intent *domain.PaymentIntent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[intent.ID] = intent
}
