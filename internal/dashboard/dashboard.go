// Package dashboard summarizes the pending ledger for the admin overview.
package dashboard

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/stockledger/internal/ledger"
)

// Filters narrows the dashboard.
type Filters struct {
	Department    string `json:"department"`
	InventoryType string `json:"inventoryType"`
	Search        string `json:"search"`
}

// Count is one bar of a breakdown.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary holds the headline figures.
type Summary struct {
	TotalItems   int             `json:"totalItems"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	LowStock     int             `json:"lowStock"`
	TotalDamage  int64           `json:"totalDamage"`
	TotalMissing int64           `json:"totalMissing"`
	HealthRate   decimal.Decimal `json:"healthRate"`
	ByDepartment []Count         `json:"byDepartment"`
	ByType       []Count         `json:"byType"`
}

// Item is a ledger record with its stock status.
type Item struct {
	ledger.Record
	StockStatus ledger.StockStatus `json:"stockStatus"`
}

// Dashboard is the full payload.
type Dashboard struct {
	Summary     Summary  `json:"summary"`
	Items       []Item   `json:"items"`
	Departments []string `json:"departments"`
	Types       []string `json:"types"`
}

// Source provides the current ledger.
type Source interface {
	Current(ctx context.Context) (*ledger.Snapshot, error)
}

// Service builds dashboards.
type Service struct {
	source Source
	filter ledger.Filter
}

// NewService constructs a dashboard service.
func NewService(source Source, filter ledger.Filter) *Service {
	return &Service{source: source, filter: filter}
}

// Build computes the dashboard for f over the pending ledger.
func (s *Service) Build(ctx context.Context, f Filters) (Dashboard, error) {
	snap, err := s.source.Current(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Compute(snap.Pending, f, s.filter), nil
}

// Compute is Build over an explicit record set. Only records naming an
// item are counted.
func Compute(records []ledger.Record, f Filters, filter ledger.Filter) Dashboard {
	named := make([]ledger.Record, 0, len(records))
	for _, r := range records {
		if r.ItemsName != "" {
			named = append(named, r)
		}
	}
	selected := filter.Apply(named, ledger.FilterSpec{
		Department:    f.Department,
		InventoryType: f.InventoryType,
		Search:        f.Search,
	})

	items := make([]Item, 0, len(selected))
	for _, r := range selected {
		items = append(items, Item{Record: r, StockStatus: ledger.Status(r)})
	}
	return Dashboard{
		Summary:     Summarize(selected),
		Items:       items,
		Departments: distinct(named, func(r ledger.Record) string { return r.Department }),
		Types:       distinct(named, func(r ledger.Record) string { return r.InventoryType }),
	}
}

// Summarize computes headline figures for records.
func Summarize(records []ledger.Record) Summary {
	sum := Summary{
		TotalItems:   len(records),
		TotalValue:   decimal.Zero,
		HealthRate:   decimal.Zero,
		TotalDamage:  ledger.Sum(records, ledger.FieldDamage),
		TotalMissing: ledger.Sum(records, ledger.FieldMissing),
	}
	for _, r := range records {
		closing := ledger.Closing(r)
		sum.TotalValue = sum.TotalValue.Add(decimal.NewFromInt(closing).Mul(decimal.NewFromInt(r.PerUnitPrice)))
		if closing < ledger.LowStockThreshold {
			sum.LowStock++
		}
	}
	if sum.TotalItems > 0 {
		healthy := decimal.NewFromInt(int64(sum.TotalItems - sum.LowStock))
		sum.HealthRate = healthy.Div(decimal.NewFromInt(int64(sum.TotalItems))).Mul(decimal.NewFromInt(100)).Round(1)
	}
	sum.ByDepartment = breakdown(records, func(r ledger.Record) string { return r.Department })
	sum.ByType = breakdown(records, func(r ledger.Record) string { return r.InventoryType })
	return sum
}

func breakdown(records []ledger.Record, key func(ledger.Record) string) []Count {
	counts := make(map[string]int)
	for _, r := range records {
		k := key(r)
		if k == "" {
			k = "Unassigned"
		}
		counts[k]++
	}
	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func distinct(records []ledger.Record, key func(ledger.Record) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
