package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/finsim/papertrade/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Sentinel errors for business-rule rejections raised inside the trade
// transaction. Callers distinguish them with errors.Is.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB initializes a new database connection pool
func NewDB(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close(ctx context.Context) error {
	db.Pool.Close()
	return nil
}

// CreateUser inserts a new user with the given starting cash balance
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string, startingCash decimal.Decimal) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		"INSERT INTO users (username, password_hash, cash) VALUES ($1, $2, $3) RETURNING id, username, password_hash, cash, created_at",
		username, passwordHash, startingCash).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Cash, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		"SELECT id, username, password_hash, cash, created_at FROM users WHERE username = $1",
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Cash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserCash retrieves the current cash balance for a user
func (db *DB) GetUserCash(ctx context.Context, userID int) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := db.Pool.QueryRow(ctx, "SELECT cash FROM users WHERE id = $1", userID).Scan(&cash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, ErrUserNotFound
		}
		return decimal.Decimal{}, fmt.Errorf("failed to get cash: %w", err)
	}
	return cash, nil
}

// SumShares returns the net share count for a (user, symbol) pair:
// the signed sum across every ledger entry.
func (db *DB) SumShares(ctx context.Context, userID int, symbol string) (int64, error) {
	var shares int64
	err := db.Pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(shares), 0) FROM transactions WHERE user_id = $1 AND symbol = $2",
		userID, symbol).Scan(&shares)
	if err != nil {
		return 0, fmt.Errorf("failed to sum shares: %w", err)
	}
	return shares, nil
}

// Positions returns every symbol with a non-zero net position for a user,
// together with the net share count, ordered by symbol.
func (db *DB) Positions(ctx context.Context, userID int) ([]models.Position, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT symbol, SUM(shares) AS net_shares
		FROM transactions
		WHERE user_id = $1
		GROUP BY symbol
		HAVING SUM(shares) <> 0
		ORDER BY symbol
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.Symbol, &p.Shares); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}

// EntriesForUser retrieves a user's full ledger in chronological order
func (db *DB) EntriesForUser(ctx context.Context, userID int) ([]models.LedgerEntry, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, symbol, company, shares, price, total, executed_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY executed_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Symbol, &e.Company, &e.Shares, &e.Price, &e.Total, &e.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExecuteTrade appends a ledger entry and adjusts the user's cash as one
// transaction. Shares are signed: positive buys, negative sells. The user's
// cash row is locked first, so concurrent trades for the same user serialize
// here and each validates against the state the previous trade left behind.
func (db *DB) ExecuteTrade(ctx context.Context, userID int, symbol, company string, shares int64, price decimal.Decimal) (*models.LedgerEntry, error) {
	if shares == 0 {
		return nil, fmt.Errorf("shares must be non-zero")
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var cash decimal.Decimal
	err = tx.QueryRow(ctx, "SELECT cash FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&cash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user row: %w", err)
	}

	total := price.Mul(decimal.NewFromInt(shares))

	if shares > 0 {
		// Buy: cash must cover the full cost
		if cash.LessThan(total) {
			return nil, ErrInsufficientFunds
		}
	} else {
		// Sell: net position must cover the quantity. Read under the
		// user lock so two concurrent sells cannot both pass.
		var held int64
		err = tx.QueryRow(ctx,
			"SELECT COALESCE(SUM(shares), 0) FROM transactions WHERE user_id = $1 AND symbol = $2",
			userID, symbol).Scan(&held)
		if err != nil {
			return nil, fmt.Errorf("failed to sum shares: %w", err)
		}
		if held < -shares {
			return nil, ErrInsufficientShares
		}
	}

	entry := &models.LedgerEntry{}
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (user_id, symbol, company, shares, price, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, symbol, company, shares, price, total, executed_at
	`, userID, symbol, company, shares, price, total).Scan(
		&entry.ID, &entry.UserID, &entry.Symbol, &entry.Company, &entry.Shares, &entry.Price, &entry.Total, &entry.ExecutedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	// Buys decrement cash by total, sells increment it (total is signed)
	_, err = tx.Exec(ctx, "UPDATE users SET cash = cash - $1 WHERE id = $2", total, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update cash: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit trade: %w", err)
	}

	return entry, nil
}
