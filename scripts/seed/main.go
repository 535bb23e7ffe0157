package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/odyssey-erp/stockledger/internal/lookup"
	"github.com/odyssey-erp/stockledger/internal/sheets"
)

type seedItem struct {
	Type       string
	Department string
	Item       string
}

var masterRows = []seedItem{
	{Type: "Food", Department: "Kitchen", Item: "Rice"},
	{Type: "Food", Department: "Kitchen", Item: "Sugar"},
	{Type: "Food", Department: "Bakery", Item: "Flour"},
	{Type: "Housekeeping", Department: "Laundry", Item: "Detergent"},
	{Type: "Housekeeping", Department: "Rooms", Item: "Towels"},
}

func main() {
	endpoint := os.Getenv("SHEETS_ENDPOINT")
	if endpoint == "" {
		log.Fatal("SHEETS_ENDPOINT is required")
	}
	sheet := getenv("LOOKUP_SHEET", "Master Drop-Down")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := sheets.NewClient(sheets.Config{Endpoint: endpoint, Timeout: 30 * time.Second})
	if err != nil {
		log.Fatalf("sheets client: %v", err)
	}
	svc := lookup.NewService(client, sheet, slog.Default())

	fmt.Println("→ Loading lookup table...")
	table, err := svc.Load(ctx)
	if err != nil {
		log.Fatalf("load lookup: %v", err)
	}
	fmt.Printf("  %d rows present\n", table.Len())

	fmt.Println("→ Seeding departments and items...")
	added := 0
	for _, row := range masterRows {
		if table.Contains(lookup.Tuple(row.Type, row.Department, "", row.Item)) {
			continue
		}
		if table, err = svc.AddItem(ctx, row.Type, row.Department, row.Item); err != nil {
			log.Fatalf("seed %s/%s/%s: %v", row.Type, row.Department, row.Item, err)
		}
		added++
	}
	fmt.Printf("✓ Seed complete: %d rows added, %d total\n", added, table.Len())
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
