package model

import "time"

// Posting is one account/amount line within a transaction. A nil Amount is
// an elided posting: the server infers its value when compiling the ledger,
// and the client leaves it out of any local computation.
type Posting struct {
	Account Account
	Amount  *Money
}

// Transaction is an ordered sequence of postings plus display metadata.
// A well-formed transaction has at least two postings, but the client
// tolerates anything the server sends.
type Transaction struct {
	ID        string
	Timestamp time.Time
	Payee     string
	Narration string
	Tags      []string
	Links     []string
	Postings  []Posting
}

// BalanceAssertion states that an account held the given amount at a
// point in time. Submitted in batches to the command interface.
type BalanceAssertion struct {
	Account string
	Amount  Money
}
