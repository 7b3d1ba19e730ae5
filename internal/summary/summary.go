// Package summary aggregates per (type, category) totals into the figures
// shown by the transactions summary endpoint.
package summary

import (
	"sort"

	"github.com/shopspring/decimal"

	"FINTRACK_BACK-END/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Bucket is the count and sum of one (type, category) group
type Bucket struct {
	Type     string
	Category string
	Count    int
	Sum      decimal.Decimal
}

// CategoryTotal is one line of a per-type breakdown
type CategoryTotal struct {
	Category   string
	Amount     decimal.Decimal
	Percentage int
}

// Summary holds counts, sums and breakdowns over a filtered set
type Summary struct {
	Total             int
	IncomeCount       int
	ExpenseCount      int
	IncomeSum         decimal.Decimal
	ExpenseSum        decimal.Decimal
	TotalAmount       decimal.Decimal
	IncomeCategories  []CategoryTotal
	ExpenseCategories []CategoryTotal
}

// Summarize folds grouped rows into a Summary. Rows of unknown type count
// toward Total only.
func Summarize(buckets []Bucket) Summary {
	s := Summary{
		IncomeSum:  decimal.Zero,
		ExpenseSum: decimal.Zero,
	}
	income := map[string]decimal.Decimal{}
	expense := map[string]decimal.Decimal{}

	for _, b := range buckets {
		s.Total += b.Count
		cat := b.Category
		if cat == "" {
			cat = string(models.CategoryOther)
		}
		switch models.TransactionType(b.Type) {
		case models.TypeIncome:
			s.IncomeCount += b.Count
			s.IncomeSum = s.IncomeSum.Add(b.Sum)
			income[cat] = income[cat].Add(b.Sum)
		case models.TypeExpense:
			s.ExpenseCount += b.Count
			s.ExpenseSum = s.ExpenseSum.Add(b.Sum)
			expense[cat] = expense[cat].Add(b.Sum)
		}
	}

	s.TotalAmount = s.IncomeSum.Add(s.ExpenseSum)
	s.IncomeCategories = breakdown(income, s.IncomeSum)
	s.ExpenseCategories = breakdown(expense, s.ExpenseSum)
	return s
}

// Percentage returns round(amount / total * 100), half up, or 0 when total is 0
func Percentage(amount, total decimal.Decimal) int {
	if total.IsZero() {
		return 0
	}
	return int(amount.Mul(hundred).Div(total).Round(0).IntPart())
}

func breakdown(sums map[string]decimal.Decimal, total decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(sums))
	for cat, amount := range sums {
		out = append(out, CategoryTotal{
			Category:   cat,
			Amount:     amount,
			Percentage: Percentage(amount, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
