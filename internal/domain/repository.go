package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateDisplayName updates the mutable profile field
	UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error
}

// ChallengeRepository defines the interface for challenge data operations
type ChallengeRepository interface {
	// Create creates a new challenge
	Create(ctx context.Context, challenge *Challenge) error

	// GetByID retrieves a challenge by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Challenge, error)

	// GetAll retrieves all challenges, newest start time first
	GetAll(ctx context.Context) ([]*Challenge, error)

	// GetByStatus retrieves challenges in a given lifecycle status
	GetByStatus(ctx context.Context, status string) ([]*Challenge, error)

	// ActivateDue moves upcoming challenges whose start time has passed to
	// active, returning the IDs that transitioned
	ActivateDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// CompleteDue moves active challenges whose end time has passed to
	// completed, returning the IDs that transitioned
	CompleteDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// ParticipationRepository defines the interface for participation data operations
type ParticipationRepository interface {
	// Create creates a new participation. Returns ErrAlreadyExists when a
	// participation for the same (user, challenge) pair is present.
	Create(ctx context.Context, participation *Participation) error

	// GetByID retrieves a participation by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Participation, error)

	// GetByUserAndChallenge retrieves the unique participation for a
	// (user, challenge) pair, or ErrNotFound
	GetByUserAndChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*Participation, error)

	// GetByChallenge retrieves all participations in a challenge, oldest first
	GetByChallenge(ctx context.Context, challengeID uuid.UUID) ([]*Participation, error)

	// GetByUser retrieves all participations of a user, newest first
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*Participation, error)

	// CountByChallenge returns the number of participations in a challenge
	CountByChallenge(ctx context.Context, challengeID uuid.UUID) (int, error)

	// UpdatePositions persists computed leaderboard positions
	UpdatePositions(ctx context.Context, positions map[uuid.UUID]int) error

	// CompleteByChallenge marks all active participations of a challenge
	// completed
	CompleteByChallenge(ctx context.Context, challengeID uuid.UUID) error
}

// TradeRepository defines the interface for trade data operations
type TradeRepository interface {
	// Create creates a new open trade
	Create(ctx context.Context, trade *Trade) error

	// GetByID retrieves a trade by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Trade, error)

	// GetByParticipation retrieves all trades of a participation, newest
	// open time first
	GetByParticipation(ctx context.Context, participationID uuid.UUID) ([]*Trade, error)

	// CloseWithSettlement closes an open trade and settles the realized
	// profit onto the owning participation as a single atomic unit. The
	// participation row is locked for the duration so concurrent closes on
	// the same participation serialize. Closing a trade that is not open
	// returns ErrInvalidState; profit is computed from the locked state
	// using the supplied price and pip multiplier.
	CloseWithSettlement(ctx context.Context, tradeID uuid.UUID, closePrice, initialBalance, pip decimal.Decimal, at time.Time) (*Trade, error)
}

// ActivityRepository defines the interface for activity data operations
type ActivityRepository interface {
	// Create appends a new activity record
	Create(ctx context.Context, activity *Activity) error

	// GetByUser retrieves the most recent activities for a user
	GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Activity, error)
}
