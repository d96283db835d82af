package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradearena/internal/domain"
)

// ActivityRepositoryImpl implements the ActivityRepository interface
type ActivityRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *pgxpool.Pool) domain.ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

// Create appends a new activity record
func (r *ActivityRepositoryImpl) Create(ctx context.Context, activity *domain.Activity) error {
	query := `
		INSERT INTO activities (
			id, user_id, type, description, metadata, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := r.db.Exec(ctx, query,
		activity.ID,
		activity.UserID,
		activity.Type,
		activity.Description,
		activity.Metadata,
		activity.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

// GetByUser retrieves the most recent activities for a user
func (r *ActivityRepositoryImpl) GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Activity, error) {
	query := `
		SELECT id, user_id, type, description, COALESCE(metadata, ''), created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		activity := &domain.Activity{}
		err := rows.Scan(
			&activity.ID,
			&activity.UserID,
			&activity.Type,
			&activity.Description,
			&activity.Metadata,
			&activity.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}
