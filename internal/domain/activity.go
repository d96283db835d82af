package domain

import (
	"time"

	"github.com/google/uuid"
)

// Activity is an append-only audit record attached to a user, used for the
// recent-activity feed. Never mutated after creation.
type Activity struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityType constants
const (
	ActivityChallengeJoin = "challenge_join"
	ActivityChallengeWin  = "challenge_win"
	ActivityTrade         = "trade"
	ActivityPayment       = "payment"
)
