package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category classifies accounts by the role they play in the ledger.
type Category string

const (
	CategoryAssets      Category = "Assets"
	CategoryLiabilities Category = "Liabilities"
	CategoryIncome      Category = "Income"
	CategoryExpenses    Category = "Expenses"
	CategoryEquity      Category = "Equity"
)

// IsReal reports whether the category represents an actual holding
// (assets or liabilities) rather than a flow or equity account.
func (c Category) IsReal() bool {
	return c == CategoryAssets || c == CategoryLiabilities
}

// IsFlow reports whether the category represents a money flow (income or
// expenses). Flow postings are the ones netted out of a transaction's
// external effect.
func (c Category) IsFlow() bool {
	return c == CategoryIncome || c == CategoryExpenses
}

// Status is the open/closed lifecycle state of an account.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

// PathSeparator delimits segments in an account name.
const PathSeparator = ":"

// Account is one ledger account. Identity is Name; the server replaces the
// whole collection on every refresh, so Account values are never patched
// in place.
type Account struct {
	Name     string
	Category Category
	Status   Status

	// Balances holds the account's own balance per currency, as reported
	// by the server alongside the account record.
	Balances map[string]decimal.Decimal
}

// Segments splits the account name on the path separator.
// "Assets:Bank:Checking" -> ["Assets", "Bank", "Checking"].
func (a Account) Segments() []string {
	return strings.Split(a.Name, PathSeparator)
}

// CategoryOf derives a category from the first segment of an account name.
// Account records carry the category explicitly; this exists for inputs
// that only have a name, and returns false for an unknown first segment.
func CategoryOf(name string) (Category, bool) {
	first, _, _ := strings.Cut(name, PathSeparator)
	switch Category(first) {
	case CategoryAssets, CategoryLiabilities, CategoryIncome, CategoryExpenses, CategoryEquity:
		return Category(first), true
	}
	return "", false
}
