package session

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"equipflow/sei/internal/failure"
)

// Service names tracked by the budget.
const (
	ServiceClaude    = "claude"
	ServiceFirecrawl = "firecrawl"
	ServiceDalle     = "dalle"
)

// unitCosts are USD per unit: tokens for claude, credits for firecrawl,
// images for dalle.
var unitCosts = map[string]decimal.Decimal{
	ServiceClaude:    decimal.RequireFromString("0.000004"),
	ServiceFirecrawl: decimal.RequireFromString("0.01"),
	ServiceDalle:     decimal.RequireFromString("0.08"),
}

var defaultUnitCost = decimal.RequireFromString("0.01")

// Budget accumulates per-service usage for one batch and vetoes operations
// that would exceed a limit.
type Budget struct {
	limits map[string]int
	usage  map[string]int
	spent  map[string]decimal.Decimal
}

// NewBudget creates a budget. A missing or zero limit means unlimited.
func NewBudget(limits map[string]int) *Budget {
	l := make(map[string]int, len(limits))
	for k, v := range limits {
		l[k] = v
	}
	return &Budget{limits: l, usage: map[string]int{}, spent: map[string]decimal.Decimal{}}
}

// Check returns failure.ErrBudgetExceeded if adding units to service would
// pass its limit.
func (b *Budget) Check(service string, units int) error {
	limit := b.limits[service]
	if limit <= 0 {
		return nil
	}
	if b.usage[service]+units > limit {
		return fmt.Errorf("%s: %d used + %d requested > %d: %w",
			service, b.usage[service], units, limit, failure.ErrBudgetExceeded)
	}
	return nil
}

// Add records units of service usage.
func (b *Budget) Add(service string, units int) {
	if units <= 0 {
		return
	}
	b.usage[service] += units
}

// AddSpend records an exact dollar amount reported by the provider, used in
// place of the unit estimate for that service.
func (b *Budget) AddSpend(service string, usd float64) {
	if usd <= 0 {
		return
	}
	b.spent[service] = b.spent[service].Add(decimal.NewFromFloat(usd))
}

// Used returns the units consumed by service.
func (b *Budget) Used(service string) int { return b.usage[service] }

// ServiceCost is the usage and cost of one service.
type ServiceCost struct {
	Service string          `json:"service"`
	Units   int             `json:"units"`
	CostUSD decimal.Decimal `json:"cost_usd"`
}

// CostReport summarises session spend.
type CostReport struct {
	Services []ServiceCost   `json:"services"`
	TotalUSD decimal.Decimal `json:"total_usd"`
}

// Report returns per-service usage and estimated USD cost, sorted by service.
func (b *Budget) Report() CostReport {
	names := make(map[string]bool)
	for s := range b.usage {
		names[s] = true
	}
	for s := range b.spent {
		names[s] = true
	}
	sorted := make([]string, 0, len(names))
	for s := range names {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)

	var report CostReport
	for _, s := range sorted {
		cost, ok := b.spent[s]
		if !ok {
			unit, known := unitCosts[s]
			if !known {
				unit = defaultUnitCost
			}
			cost = unit.Mul(decimal.NewFromInt(int64(b.usage[s])))
		}
		report.Services = append(report.Services, ServiceCost{Service: s, Units: b.usage[s], CostUSD: cost})
		report.TotalUSD = report.TotalUSD.Add(cost)
	}
	return report
}
