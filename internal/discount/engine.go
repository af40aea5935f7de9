package discount

import (
	"strings"

	"github.com/noah-isme/backend-quote/internal/pricing"
	"github.com/noah-isme/backend-quote/internal/selection"
)

// Application selects which bucket(s) the global discount reduces.
type Application string

const (
	ApplyNone    Application = "none"
	ApplyBoth    Application = "both"
	ApplyMonthly Application = "monthly"
	ApplyOneTime Application = "onetime"
)

const monthsPerYear = 12

// Normalize maps unknown modes to none.
func (a Application) Normalize() Application {
	switch Application(strings.ToLower(strings.TrimSpace(string(a)))) {
	case ApplyBoth:
		return ApplyBoth
	case ApplyMonthly:
		return ApplyMonthly
	case ApplyOneTime, "one-time", "one_time":
		return ApplyOneTime
	default:
		return ApplyNone
	}
}

// Config is the quote-wide discount.
type Config struct {
	Value       float64                `json:"value"`
	Type        selection.DiscountType `json:"type"`
	Application Application            `json:"application"`
}

// Buckets classifies rows as one-time or monthly.
type Buckets struct {
	SetupCategory string
	OneTimeUnits  []string
}

// DefaultBuckets returns the stock classification.
func DefaultBuckets() Buckets {
	return Buckets{
		SetupCategory: "setup",
		OneTimeUnits:  []string{"one-time", "onetime", "once", "setup"},
	}
}

// OneTime reports whether row is billed once rather than monthly.
func (b Buckets) OneTime(row selection.Row) bool {
	if b.SetupCategory != "" && strings.EqualFold(strings.TrimSpace(row.Category), b.SetupCategory) {
		return true
	}
	unit := strings.TrimSpace(row.Unit)
	for _, u := range b.OneTimeUnits {
		if strings.EqualFold(unit, u) {
			return true
		}
	}
	return false
}

// Savings breaks down how far the final price sits below list price.
type Savings struct {
	OriginalPrice   pricing.Money `json:"originalPrice"`
	TotalSavings    pricing.Money `json:"totalSavings"`
	FreeSavings     pricing.Money `json:"freeSavings"`
	DiscountSavings pricing.Money `json:"discountSavings"`
	SavingsRate     float64       `json:"savingsRate"`
}

// Summary is the cost summary handed to report and export collaborators.
type Summary struct {
	OneTimeSubtotal  pricing.Money `json:"oneTimeSubtotal"`
	MonthlySubtotal  pricing.Money `json:"monthlySubtotal"`
	OneTimeTotal     pricing.Money `json:"oneTimeTotal"`
	MonthlyTotal     pricing.Money `json:"monthlyTotal"`
	YearlyTotal      pricing.Money `json:"yearlyTotal"`
	TotalProjectCost pricing.Money `json:"totalProjectCost"`
	Savings          Savings       `json:"savings"`
}

// RowTotal computes the discounted total of a single row. Free rows total
// zero. Unit-scoped discounts reduce the unit price before multiplying;
// total-scoped discounts reduce the row subtotal. Results never go negative.
func RowTotal(row selection.Row) pricing.Money {
	if row.IsFree {
		return 0
	}
	qty := pricing.Money(row.Quantity)
	if qty <= 0 {
		return 0
	}
	fixed := row.DiscountType.Normalize() == selection.DiscountFixed
	if row.DiscountScope.Normalize() == selection.ScopeUnit {
		unit := row.UnitPrice
		if fixed {
			unit -= row.DiscountValue
		} else {
			unit *= 1 - row.DiscountValue/100
		}
		return clamp(unit) * qty
	}
	subtotal := qty * row.UnitPrice
	var off pricing.Money
	if fixed {
		off = row.DiscountValue * qty
	} else {
		off = subtotal * (row.DiscountValue / 100)
	}
	return clamp(subtotal - off)
}

// Apply reduces amount by the discount value.
func (c Config) Apply(amount pricing.Money) pricing.Money {
	if c.Value == 0 {
		return clamp(amount)
	}
	if c.Type.Normalize() == selection.DiscountFixed {
		return clamp(amount - c.Value)
	}
	return clamp(amount * (1 - c.Value/100))
}

// Summarize aggregates rows into one-time and monthly buckets, applies the
// global discount, projects a yearly cost and computes savings.
func (b Buckets) Summarize(sel selection.Selection, cfg Config) Summary {
	var (
		out      Summary
		original pricing.Money
		free     pricing.Money
	)
	for _, row := range sel {
		list := pricing.Money(row.Quantity) * row.UnitPrice
		if row.Quantity < 0 {
			list = 0
		}
		original += list
		if row.IsFree {
			free += list
		}
		total := RowTotal(row)
		if b.OneTime(row) {
			out.OneTimeSubtotal += total
		} else {
			out.MonthlySubtotal += total
		}
	}

	out.OneTimeTotal = clamp(out.OneTimeSubtotal)
	out.MonthlyTotal = clamp(out.MonthlySubtotal)
	switch cfg.Application.Normalize() {
	case ApplyBoth:
		out.OneTimeTotal = cfg.Apply(out.OneTimeSubtotal)
		out.MonthlyTotal = cfg.Apply(out.MonthlySubtotal)
	case ApplyMonthly:
		out.MonthlyTotal = cfg.Apply(out.MonthlySubtotal)
	case ApplyOneTime:
		out.OneTimeTotal = cfg.Apply(out.OneTimeSubtotal)
	}
	out.YearlyTotal = out.MonthlyTotal * monthsPerYear
	out.TotalProjectCost = out.OneTimeTotal + out.YearlyTotal

	final := out.OneTimeTotal + out.MonthlyTotal
	out.Savings = Savings{
		OriginalPrice:   original,
		TotalSavings:    original - final,
		FreeSavings:     free,
		DiscountSavings: original - final - free,
	}
	if original != 0 {
		out.Savings.SavingsRate = out.Savings.TotalSavings / original
	}
	return out
}

// Summarize uses the default bucket classification.
func Summarize(sel selection.Selection, cfg Config) Summary {
	return DefaultBuckets().Summarize(sel, cfg)
}

func clamp(v pricing.Money) pricing.Money {
	if v < 0 {
		return 0
	}
	return v
}
