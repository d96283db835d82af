package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradearena/internal/domain"
)

const participationColumns = `
	id, user_id, challenge_id, current_balance, pnl, pnl_percentage,
	position, status, payment_status, COALESCE(payment_intent_id, ''),
	created_at, updated_at
`

// ParticipationRepositoryImpl implements the ParticipationRepository interface
type ParticipationRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewParticipationRepository creates a new ParticipationRepository
func NewParticipationRepository(db *pgxpool.Pool) domain.ParticipationRepository {
	return &ParticipationRepositoryImpl{db: db}
}

// Create creates a new participation. The unique index on
// (user_id, challenge_id) backs the one-participation-per-user invariant.
func (r *ParticipationRepositoryImpl) Create(ctx context.Context, participation *domain.Participation) error {
	query := `
		INSERT INTO participations (
			id, user_id, challenge_id, current_balance, pnl, pnl_percentage,
			position, status, payment_status, payment_intent_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := r.db.Exec(ctx, query,
		participation.ID,
		participation.UserID,
		participation.ChallengeID,
		participation.CurrentBalance,
		participation.PnL,
		participation.PnLPercentage,
		participation.Position,
		participation.Status,
		participation.PaymentStatus,
		participation.PaymentIntentID,
		participation.CreatedAt,
		participation.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("participation for user and challenge exists: %w", domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create participation: %w", err)
	}

	return nil
}

// GetByID retrieves a participation by ID
func (r *ParticipationRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE id = $1`

	participation := &domain.Participation{}
	err := scanParticipation(r.db.QueryRow(ctx, query, id), participation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participation by ID: %w", err)
	}

	return participation, nil
}

// GetByUserAndChallenge retrieves the unique participation for a (user, challenge) pair
func (r *ParticipationRepositoryImpl) GetByUserAndChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*domain.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE user_id = $1 AND challenge_id = $2`

	participation := &domain.Participation{}
	err := scanParticipation(r.db.QueryRow(ctx, query, userID, challengeID), participation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participation by user and challenge: %w", err)
	}

	return participation, nil
}

// GetByChallenge retrieves all participations in a challenge, oldest first.
// Creation order is the leaderboard tie-break, so it is fixed here.
func (r *ParticipationRepositoryImpl) GetByChallenge(ctx context.Context, challengeID uuid.UUID) ([]*domain.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE challenge_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participations by challenge: %w", err)
	}
	defer rows.Close()

	return collectParticipations(rows)
}

// GetByUser retrieves all participations of a user, newest first
func (r *ParticipationRepositoryImpl) GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participations by user: %w", err)
	}
	defer rows.Close()

	return collectParticipations(rows)
}

// CountByChallenge returns the number of participations in a challenge
func (r *ParticipationRepositoryImpl) CountByChallenge(ctx context.Context, challengeID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM participations WHERE challenge_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, challengeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}

	return count, nil
}

// UpdatePositions persists computed leaderboard positions in one batch
func (r *ParticipationRepositoryImpl) UpdatePositions(ctx context.Context, positions map[uuid.UUID]int) error {
	if len(positions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `UPDATE participations SET position = $1, updated_at = NOW() WHERE id = $2`
	for id, position := range positions {
		batch.Queue(query, position, id)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range positions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to update participation position: %w", err)
		}
	}

	return nil
}

// CompleteByChallenge marks all active participations of a challenge completed
func (r *ParticipationRepositoryImpl) CompleteByChallenge(ctx context.Context, challengeID uuid.UUID) error {
	query := `
		UPDATE participations
		SET status = 'completed', updated_at = NOW()
		WHERE challenge_id = $1 AND status = 'active'
	`

	if _, err := r.db.Exec(ctx, query, challengeID); err != nil {
		return fmt.Errorf("failed to complete participations: %w", err)
	}

	return nil
}

func scanParticipation(row pgx.Row, participation *domain.Participation) error {
	return row.Scan(
		&participation.ID,
		&participation.UserID,
		&participation.ChallengeID,
		&participation.CurrentBalance,
		&participation.PnL,
		&participation.PnLPercentage,
		&participation.Position,
		&participation.Status,
		&participation.PaymentStatus,
		&participation.PaymentIntentID,
		&participation.CreatedAt,
		&participation.UpdatedAt,
	)
}

func collectParticipations(rows pgx.Rows) ([]*domain.Participation, error) {
	var participations []*domain.Participation
	for rows.Next() {
		participation := &domain.Participation{}
		if err := scanParticipation(rows, participation); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		participations = append(participations, participation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participations: %w", err)
	}

	return participations, nil
}
