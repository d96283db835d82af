package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradearena/internal/domain"
)

type leaderboardFixture struct {
	service           *LeaderboardService
	challengeRepo     *fakeChallengeRepo
	participationRepo *fakeParticipationRepo
	userRepo          *fakeUserRepo
}

func newLeaderboardFixture(cache LeaderboardCache) *leaderboardFixture {
	challengeRepo := newFakeChallengeRepo()
	participationRepo := newFakeParticipationRepo()
	userRepo := newFakeUserRepo()

	return &leaderboardFixture{
		service:           NewLeaderboardService(participationRepo, userRepo, challengeRepo, cache, zap.NewNop()),
		challengeRepo:     challengeRepo,
		participationRepo: participationRepo,
		userRepo:          userRepo,
	}
}

// seedParticipant enrolls a named user with a given balance and join time.
func (f *leaderboardFixture) seedParticipant(ctx context.Context, challengeID uuid.UUID, username, balance string, joinedAt time.Time) *domain.Participation {
	user := &domain.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
	}
	f.userRepo.Create(ctx, user)

	p := &domain.Participation{
		ID:             uuid.New(),
		UserID:         user.ID,
		ChallengeID:    challengeID,
		CurrentBalance: decimal.RequireFromString(balance),
		PnL:            decimal.Zero,
		PnLPercentage:  decimal.Zero,
		Status:         domain.ParticipationStatusActive,
		CreatedAt:      joinedAt,
	}
	f.participationRepo.Create(ctx, p)
	return p
}

func TestRankOrdersByBalance(t *testing.T) {
	ctx := context.Background()
	f := newLeaderboardFixture(nil)
	challenge := upcomingChallenge()
	f.challengeRepo.Create(ctx, challenge)

	now := time.Now()
	f.seedParticipant(ctx, challenge.ID, "behind", "9800", now.Add(-2*time.Hour))
	f.seedParticipant(ctx, challenge.ID, "ahead", "10500", now.Add(-time.Hour))

	entries, err := f.service.Rank(ctx, challenge.ID)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Username != "ahead" || entries[0].Position != 1 {
		t.Fatalf("entries[0] = %s at %d, want ahead at 1", entries[0].Username, entries[0].Position)
	}
	if entries[1].Username != "behind" || entries[1].Position != 2 {
		t.Fatalf("entries[1] = %s at %d, want behind at 2", entries[1].Username, entries[1].Position)
	}
}

func TestRankTieBreaksByEarliestJoin(t *testing.T) {
	ctx := context.Background()
	f := newLeaderboardFixture(nil)
	challenge := upcomingChallenge()
	f.challengeRepo.Create(ctx, challenge)

	now := time.Now()
	// Seeded oldest-first: the fake returns rows in enrollment order, as the
	// real store does.
	f.seedParticipant(ctx, challenge.ID, "early", "10000", now.Add(-2*time.Hour))
	f.seedParticipant(ctx, challenge.ID, "late", "10000", now.Add(-time.Hour))

	entries, err := f.service.Rank(ctx, challenge.ID)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if entries[0].Username != "early" {
		t.Fatalf("tied rank winner = %s, want early", entries[0].Username)
	}
	if entries[1].Username != "late" {
		t.Fatalf("tied rank runner-up = %s, want late", entries[1].Username)
	}
}

func TestRankPositionsAreDenseAndPersisted(t *testing.T) {
	ctx := context.Background()
	f := newLeaderboardFixture(nil)
	challenge := upcomingChallenge()
	f.challengeRepo.Create(ctx, challenge)

	now := time.Now()
	balances := []string{"10200", "9700", "10000", "11000", "8500"}
	for i, balance := range balances {
		f.seedParticipant(ctx, challenge.ID, string(rune('a'+i))+"-trader", balance, now.Add(time.Duration(i)*time.Minute))
	}

	entries, err := f.service.Rank(ctx, challenge.ID)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(entries) != len(balances) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(balances))
	}

	seen := make(map[int]bool)
	for i, e := range entries {
		if e.Position != i+1 {
			t.Fatalf("entries[%d].Position = %d, want %d", i, e.Position, i+1)
		}
		if seen[e.Position] {
			t.Fatalf("duplicate position %d", e.Position)
		}
		seen[e.Position] = true

		if i > 0 && entries[i-1].CurrentBalance.LessThan(e.CurrentBalance) {
			t.Fatalf("entries not in descending balance order at %d", i)
		}
	}

	// Positions are materialized on the participation rows
	participations, _ := f.participationRepo.GetByChallenge(ctx, challenge.ID)
	for _, p := range participations {
		if p.Position == nil {
			t.Fatalf("participation %s has no persisted position", p.ID)
		}
	}
}

func TestRankSkipsUnresolvableUsers(t *testing.T) {
	ctx := context.Background()
	f := newLeaderboardFixture(nil)
	challenge := upcomingChallenge()
	f.challengeRepo.Create(ctx, challenge)

	now := time.Now()
	f.seedParticipant(ctx, challenge.ID, "resolvable", "10000", now)

	// Participation whose user row is gone
	f.participationRepo.Create(ctx, &domain.Participation{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ChallengeID:    challenge.ID,
		CurrentBalance: decimal.RequireFromString("12000"),
		Status:         domain.ParticipationStatusActive,
		CreatedAt:      now,
	})

	entries, err := f.service.Rank(ctx, challenge.ID)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Username != "resolvable" || entries[0].Position != 1 {
		t.Fatalf("entries[0] = %s at %d, want resolvable at 1", entries[0].Username, entries[0].Position)
	}
}

func TestRankUnknownChallenge(t *testing.T) {
	ctx := context.Background()
	f := newLeaderboardFixture(nil)

	_, err := f.service.Rank(ctx, uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Rank() error = %v, want ErrNotFound", err)
	}
}

// memoryCache is a LeaderboardCache for exercising the cache path.
type memoryCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]LeaderboardEntry
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[uuid.UUID][]LeaderboardEntry)}
}

func (c *memoryCache) Get(_ context.Context, challengeID uuid.UUID) ([]LeaderboardEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.entries[challengeID]
	return entries, ok
}

func (c *memoryCache) Set(_ context.Context, challengeID uuid.UUID, entries []LeaderboardEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[challengeID] = entries
	c.sets++
}

func (c *memoryCache) Invalidate(_ context.Context, challengeID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, challengeID)
}

func TestGetServesFromCache(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	f := newLeaderboardFixture(cache)
	challenge := upcomingChallenge()
	f.challengeRepo.Create(ctx, challenge)

	f.seedParticipant(ctx, challenge.ID, "solo", "10000", time.Now())

	first, err := f.service.Get(ctx, challenge.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}

	// Second read hits the cache, no recomputation
	second, err := f.service.Get(ctx, challenge.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d after cached read, want 1", cache.sets)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("entry counts = %d, %d, want 1, 1", len(first), len(second))
	}

	cache.Invalidate(ctx, challenge.ID)
	if _, err := f.service.Get(ctx, challenge.ID); err != nil {
		t.Fatalf("Get() after invalidation error = %v", err)
	}
	if cache.sets != 2 {
		t.Fatalf("cache sets = %d after invalidation, want 2", cache.sets)
	}
}
