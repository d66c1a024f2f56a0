package events

import (
	"context"
	"testing"
	"time"

	"github.com/finsim/papertrade/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewPublisher_NoBrokers(t *testing.T) {
	p := NewPublisher(nil, "trade_executed")
	assert.Nil(t, p)

	// A nil publisher must be safe to use
	entry := &models.LedgerEntry{
		ID:         1,
		UserID:     1,
		Symbol:     "AAPL",
		Shares:     10,
		Price:      decimal.RequireFromString("50.00"),
		Total:      decimal.RequireFromString("500.00"),
		ExecutedAt: time.Now(),
	}
	assert.NoError(t, p.PublishTrade(context.Background(), entry))
	assert.NoError(t, p.Close())
}
