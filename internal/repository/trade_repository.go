package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"tradearena/internal/domain"
)

const tradeColumns = `
	id, participation_id, symbol, type, open_price, close_price,
	volume, profit, status, open_time, close_time
`

// TradeRepositoryImpl implements the TradeRepository interface
type TradeRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *pgxpool.Pool) domain.TradeRepository {
	return &TradeRepositoryImpl{db: db}
}

// Create creates a new open trade
func (r *TradeRepositoryImpl) Create(ctx context.Context, trade *domain.Trade) error {
	query := `
		INSERT INTO trades (
			id, participation_id, symbol, type, open_price, close_price,
			volume, profit, status, open_time, close_time
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(ctx, query,
		trade.ID,
		trade.ParticipationID,
		trade.Symbol,
		trade.Type,
		trade.OpenPrice,
		trade.ClosePrice,
		trade.Volume,
		trade.Profit,
		trade.Status,
		trade.OpenTime,
		trade.CloseTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by ID
func (r *TradeRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`

	trade := &domain.Trade{}
	err := scanTrade(r.db.QueryRow(ctx, query, id), trade)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trade by ID: %w", err)
	}

	return trade, nil
}

// GetByParticipation retrieves all trades of a participation, newest first
func (r *TradeRepositoryImpl) GetByParticipation(ctx context.Context, participationID uuid.UUID) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE participation_id = $1 ORDER BY open_time DESC`

	rows, err := r.db.Query(ctx, query, participationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades by participation: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		trade := &domain.Trade{}
		if err := scanTrade(rows, trade); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// CloseWithSettlement closes an open trade and settles its realized profit
// onto the owning participation in one transaction. The participation row is
// locked first, so two concurrent closes on the same participation serialize
// and neither balance update is lost. A trade that is no longer open fails
// with ErrInvalidState and nothing is written.
func (r *TradeRepositoryImpl) CloseWithSettlement(ctx context.Context, tradeID uuid.UUID, closePrice, initialBalance, pip decimal.Decimal, at time.Time) (*domain.Trade, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin settlement transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock order is participation first, then trade, everywhere.
	var participationID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT participation_id FROM trades WHERE id = $1`, tradeID).Scan(&participationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve trade owner: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT 1 FROM participations WHERE id = $1 FOR UPDATE`, participationID); err != nil {
		return nil, fmt.Errorf("failed to lock participation: %w", err)
	}

	trade := &domain.Trade{}
	lockQuery := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1 FOR UPDATE`
	if err := scanTrade(tx.QueryRow(ctx, lockQuery, tradeID), trade); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock trade: %w", err)
	}

	if !trade.IsOpen() {
		return nil, fmt.Errorf("trade %s is already closed: %w", trade.ID, domain.ErrInvalidState)
	}

	profit := domain.ComputeProfit(trade.Type, trade.OpenPrice, closePrice, trade.Volume, pip)
	trade.Close(closePrice, profit, at)

	updateTrade := `
		UPDATE trades
		SET close_price = $1, profit = $2, status = $3, close_time = $4
		WHERE id = $5 AND status = 'open'
	`
	tag, err := tx.Exec(ctx, updateTrade, trade.ClosePrice, trade.Profit, trade.Status, trade.CloseTime, trade.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to close trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("trade %s is already closed: %w", trade.ID, domain.ErrInvalidState)
	}

	// Settle onto the locked participation row. Cumulative PnL is measured
	// from the challenge's initial balance, not from the last trade.
	updateParticipation := `
		UPDATE participations
		SET current_balance = current_balance + $1,
		    pnl = current_balance + $1 - $2,
		    pnl_percentage = CASE WHEN $2 = 0 THEN 0
		                          ELSE (current_balance + $1 - $2) / $2 * 100 END,
		    updated_at = $3
		WHERE id = $4
	`
	if _, err := tx.Exec(ctx, updateParticipation, profit, initialBalance, at, trade.ParticipationID); err != nil {
		return nil, fmt.Errorf("failed to settle participation balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	return trade, nil
}

func scanTrade(row pgx.Row, trade *domain.Trade) error {
	return row.Scan(
		&trade.ID,
		&trade.ParticipationID,
		&trade.Symbol,
		&trade.Type,
		&trade.OpenPrice,
		&trade.ClosePrice,
		&trade.Volume,
		&trade.Profit,
		&trade.Status,
		&trade.OpenTime,
		&trade.CloseTime,
	)
}
