// Package netting collapses a transaction's postings into the minimal
// non-zero per-currency movement that represents its external economic
// effect. Transfers between two tracked holding accounts in the same
// currency cancel out; income and expense legs are removed so the
// remaining figure is what actually flowed against real holdings.
package netting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// NetEffect computes the net currency movements of a transaction. The
// result contains at most one entry per currency, every entry is non-zero,
// and entries are sorted by currency so equal inputs produce equal outputs.
//
// Postings with an elided amount carry no concrete number and are skipped;
// inferring them is the server's job.
func NetEffect(tx model.Transaction) []model.Money {
	flows := make(map[string]decimal.Decimal)
	totals := make(map[string]decimal.Decimal)

	for _, p := range tx.Postings {
		if p.Amount == nil {
			continue
		}
		accumulate(totals, *p.Amount)
		if p.Account.Category.IsFlow() {
			accumulate(flows, *p.Amount)
		}
	}

	// Every posting was summed into totals once. A balanced transaction's
	// totals are zero per currency, so subtracting the income/expense
	// contribution leaves exactly the movement seen by holding accounts.
	for currency, n := range flows {
		totals[currency] = totals[currency].Sub(n)
	}

	result := make([]model.Money, 0, len(totals))
	for currency, n := range totals {
		if n.IsZero() {
			continue
		}
		result = append(result, model.Money{Number: n, Currency: currency})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Currency < result[j].Currency
	})
	return result
}

func accumulate(counter map[string]decimal.Decimal, m model.Money) {
	counter[m.Currency] = counter[m.Currency].Add(m.Number)
}
