package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradearena/internal/domain"
)

const challengeColumns = `
	id, name, COALESCE(description, ''), entry_fee, start_time, end_time,
	initial_balance, prize_amount, max_participants, type, status,
	created_at, updated_at
`

// ChallengeRepositoryImpl implements the ChallengeRepository interface
type ChallengeRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewChallengeRepository creates a new ChallengeRepository
func NewChallengeRepository(db *pgxpool.Pool) domain.ChallengeRepository {
	return &ChallengeRepositoryImpl{db: db}
}

// Create creates a new challenge
func (r *ChallengeRepositoryImpl) Create(ctx context.Context, challenge *domain.Challenge) error {
	query := `
		INSERT INTO challenges (
			id, name, description, entry_fee, start_time, end_time,
			initial_balance, prize_amount, max_participants, type, status,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err := r.db.Exec(ctx, query,
		challenge.ID,
		challenge.Name,
		challenge.Description,
		challenge.EntryFee,
		challenge.StartTime,
		challenge.EndTime,
		challenge.InitialBalance,
		challenge.PrizeAmount,
		challenge.MaxParticipants,
		challenge.Type,
		challenge.Status,
		challenge.CreatedAt,
		challenge.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	return nil
}

// GetByID retrieves a challenge by ID
func (r *ChallengeRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`

	challenge := &domain.Challenge{}
	err := scanChallenge(r.db.QueryRow(ctx, query, id), challenge)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge by ID: %w", err)
	}

	return challenge, nil
}

// GetAll retrieves all challenges, newest start time first
func (r *ChallengeRepositoryImpl) GetAll(ctx context.Context) ([]*domain.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges ORDER BY start_time DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	return collectChallenges(rows)
}

// GetByStatus retrieves challenges in a given lifecycle status
func (r *ChallengeRepositoryImpl) GetByStatus(ctx context.Context, status string) ([]*domain.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE status = $1 ORDER BY start_time ASC`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges by status: %w", err)
	}
	defer rows.Close()

	return collectChallenges(rows)
}

// ActivateDue moves upcoming challenges whose start time has passed to active
func (r *ChallengeRepositoryImpl) ActivateDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE challenges
		SET status = 'active', updated_at = NOW()
		WHERE status = 'upcoming' AND start_time <= $1
		RETURNING id
	`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to activate due challenges: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

// CompleteDue moves active challenges whose end time has passed to completed
func (r *ChallengeRepositoryImpl) CompleteDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE challenges
		SET status = 'completed', updated_at = NOW()
		WHERE status = 'active' AND end_time <= $1
		RETURNING id
	`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to complete due challenges: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

func scanChallenge(row pgx.Row, challenge *domain.Challenge) error {
	return row.Scan(
		&challenge.ID,
		&challenge.Name,
		&challenge.Description,
		&challenge.EntryFee,
		&challenge.StartTime,
		&challenge.EndTime,
		&challenge.InitialBalance,
		&challenge.PrizeAmount,
		&challenge.MaxParticipants,
		&challenge.Type,
		&challenge.Status,
		&challenge.CreatedAt,
		&challenge.UpdatedAt,
	)
}

func collectChallenges(rows pgx.Rows) ([]*domain.Challenge, error) {
	var challenges []*domain.Challenge
	for rows.Next() {
		challenge := &domain.Challenge{}
		if err := scanChallenge(rows, challenge); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, challenge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}

	return challenges, nil
}

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ids: %w", err)
	}

	return ids, nil
}
