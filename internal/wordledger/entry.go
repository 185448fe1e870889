package wordledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is a single admitted word record. Immutable once written: no
// operation on any Ledger implementation rewrites or removes an entry.
type Entry struct {
	Index       int             `json:"index"` // zero-based; doubles as the ownership token id
	Content     string          `json:"content"`
	Author      string          `json:"author"`
	Paid        decimal.Decimal `json:"paid"` // amount actually paid; >= unit price
	SubmittedAt time.Time       `json:"submitted_at"`
}
