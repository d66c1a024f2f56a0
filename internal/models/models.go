package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered user
type User struct {
	ID           int
	Username     string
	PasswordHash string
	Cash         decimal.Decimal // available cash balance, never negative
	CreatedAt    time.Time
}

// LedgerEntry is one immutable row in the transaction ledger.
// Shares are signed: positive for a buy, negative for a sell.
type LedgerEntry struct {
	ID         int             `json:"id"`
	UserID     int             `json:"user_id"`
	Symbol     string          `json:"symbol"`
	Company    string          `json:"company"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"` // shares * price, signed
	ExecutedAt time.Time       `json:"executed_at"`
}

// Quote is the current market data for one symbol
type Quote struct {
	Symbol  string          `json:"symbol"`
	Company string          `json:"company"`
	Price   decimal.Decimal `json:"price"`
}

// Position is the net holding for a (user, symbol) pair, derived
// from the ledger. Never stored.
type Position struct {
	Symbol string
	Shares int64
}

// Holding is one row of the portfolio view. PriceKnown is false when
// the quote provider could not resolve a symbol the user still holds;
// the row is rendered anyway and excluded from the total.
type Holding struct {
	Symbol     string          `json:"symbol"`
	Company    string          `json:"company"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	Value      decimal.Decimal `json:"value"`
	PriceKnown bool            `json:"price_known"`
}

// PortfolioView is the aggregated state of one user's account
type PortfolioView struct {
	Holdings []Holding       `json:"holdings"`
	Cash     decimal.Decimal `json:"cash"`
	Total    decimal.Decimal `json:"total"` // cash + sum of priced holding values
}
