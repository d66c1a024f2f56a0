package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/finsim/papertrade/internal/config"
	"github.com/finsim/papertrade/internal/db"

	"github.com/shopspring/decimal"
)

// Seed the database with demo users and a small trade ledger
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	database, err := db.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(ctx)

	// Skip if there is already ledger data
	var count int
	if err := database.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		log.Fatalf("Failed to check transactions: %v", err)
	}
	if count > 0 {
		fmt.Printf("Database already has %d ledger entries. No need to seed.\n", count)
		os.Exit(0)
	}

	// bcrypt hash of "demo1234"
	const demoHash = "$2a$10$XLhV7TU4dIvHO1d9UKgoT.Kt1XCYIbLV4LkQqmXGtN6VBnsmgS.G."

	users := []string{"alice", "bob"}
	userIDs := make(map[string]int)
	for _, name := range users {
		var id int
		err := database.Pool.QueryRow(ctx, "SELECT id FROM users WHERE username = $1", name).Scan(&id)
		if err != nil {
			user, err := database.CreateUser(ctx, name, demoHash, cfg.StartingCashAmount())
			if err != nil {
				log.Fatalf("Failed to create user %s: %v", name, err)
			}
			id = user.ID
		}
		userIDs[name] = id
	}

	// A plausible trading history for alice: two buys and a partial sell
	trades := []struct {
		user   string
		symbol string
		name   string
		shares int64
		price  string
	}{
		{"alice", "AAPL", "Apple Inc", 10, "150.00"},
		{"alice", "MSFT", "Microsoft Corporation", 5, "310.50"},
		{"alice", "AAPL", "Apple Inc", -4, "162.25"},
		{"bob", "NFLX", "Netflix Inc", 3, "420.10"},
	}

	for _, tr := range trades {
		price, err := decimal.NewFromString(tr.price)
		if err != nil {
			log.Fatalf("Bad seed price %q: %v", tr.price, err)
		}
		if _, err := database.ExecuteTrade(ctx, userIDs[tr.user], tr.symbol, tr.name, tr.shares, price); err != nil {
			log.Fatalf("Failed to seed trade %s %s: %v", tr.user, tr.symbol, err)
		}
	}

	fmt.Println("Successfully seeded the database with demo users and trades!")
}
