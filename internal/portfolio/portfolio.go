package portfolio

import (
	"context"
	"fmt"

	"github.com/finsim/papertrade/internal/db"
	"github.com/finsim/papertrade/internal/models"
	"github.com/finsim/papertrade/internal/quotes"

	"github.com/shopspring/decimal"
)

// Aggregator derives a user's current holdings from the ledger and
// combines them with live quotes. Pure read, no side effects.
type Aggregator struct {
	DB     *db.DB
	Quotes quotes.Provider
}

func NewAggregator(database *db.DB, provider quotes.Provider) *Aggregator {
	return &Aggregator{DB: database, Quotes: provider}
}

// View builds the portfolio for a user: one row per symbol with a
// non-zero net position, plus cash and the grand total. A symbol the
// quote provider can no longer resolve (delisted, provider outage) is
// still rendered, marked price-unknown and excluded from the total.
func (a *Aggregator) View(ctx context.Context, userID int) (*models.PortfolioView, error) {
	positions, err := a.DB.Positions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	cash, err := a.DB.GetUserCash(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &models.PortfolioView{
		Holdings: make([]models.Holding, 0, len(positions)),
		Cash:     cash,
		Total:    cash,
	}

	for _, p := range positions {
		h := models.Holding{
			Symbol: p.Symbol,
			Shares: p.Shares,
		}
		quote, err := a.Quotes.Lookup(ctx, p.Symbol)
		if err == nil {
			h.Company = quote.Company
			h.Price = quote.Price
			h.Value = quote.Price.Mul(decimal.NewFromInt(p.Shares))
			h.PriceKnown = true
			view.Total = view.Total.Add(h.Value)
		}
		view.Holdings = append(view.Holdings, h)
	}

	return view, nil
}
