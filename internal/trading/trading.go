package trading

import (
	"context"
	"errors"
	"fmt"

	"github.com/finsim/papertrade/internal/db"
	"github.com/finsim/papertrade/internal/events"
	"github.com/finsim/papertrade/internal/models"
	"github.com/finsim/papertrade/internal/quotes"

	"go.uber.org/zap"
)

// ErrInvalidQuantity rejects non-positive share counts before any
// lookup or state change.
var ErrInvalidQuantity = errors.New("quantity must be a positive number of shares")

// Executor validates and applies buys and sells. Each trade is one
// atomic ledger-append + cash-update pair; the executor itself holds
// no state between calls.
type Executor struct {
	DB     *db.DB
	Quotes quotes.Provider
	Events *events.Publisher
	Logger *zap.Logger
}

func NewExecutor(database *db.DB, provider quotes.Provider, publisher *events.Publisher, logger *zap.Logger) *Executor {
	return &Executor{DB: database, Quotes: provider, Events: publisher, Logger: logger}
}

// Buy purchases qty shares of symbol at the current market price.
// Validation order: range-check, symbol resolve, then the funds check
// inside the database transaction.
func (e *Executor) Buy(ctx context.Context, userID int, symbol string, qty int64) (*models.LedgerEntry, error) {
	return e.execute(ctx, userID, symbol, qty, +1)
}

// Sell sells qty shares of symbol at the current market price. Rejected
// if the user's net position does not cover qty.
func (e *Executor) Sell(ctx context.Context, userID int, symbol string, qty int64) (*models.LedgerEntry, error) {
	return e.execute(ctx, userID, symbol, qty, -1)
}

func (e *Executor) execute(ctx context.Context, userID int, symbol string, qty, sign int64) (*models.LedgerEntry, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	quote, err := e.Quotes.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			return nil, quotes.ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve symbol %q: %w", symbol, err)
	}

	entry, err := e.DB.ExecuteTrade(ctx, userID, quote.Symbol, quote.Company, sign*qty, quote.Price)
	if err != nil {
		return nil, err
	}

	// Best effort: the trade is committed, a lost event never unwinds it
	if err := e.Events.PublishTrade(ctx, entry); err != nil {
		e.Logger.Warn("failed to publish trade event",
			zap.Int("entry_id", entry.ID),
			zap.Error(err))
	}

	return entry, nil
}
