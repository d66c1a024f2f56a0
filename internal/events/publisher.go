package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/finsim/papertrade/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// TradeExecuted is published after a trade commits. Consumers see the
// same signed-share convention as the ledger.
type TradeExecuted struct {
	EntryID    int             `json:"entry_id"`
	UserID     int             `json:"user_id"`
	Symbol     string          `json:"symbol"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// Publisher writes trade events to Kafka. A nil Publisher is valid and
// publishes nothing, so event delivery stays optional.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) PublishTrade(ctx context.Context, entry *models.LedgerEntry) error {
	if p == nil {
		return nil
	}

	event := TradeExecuted{
		EntryID:    entry.ID,
		UserID:     entry.UserID,
		Symbol:     entry.Symbol,
		Shares:     entry.Shares,
		Price:      entry.Price,
		Total:      entry.Total,
		ExecutedAt: entry.ExecutedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{Value: data})
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
