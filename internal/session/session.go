// Package session keeps the in-progress expense entry of each chat user.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pengeluaran/internal/core"
)

// State is the position of a user in the entry conversation.
type State int

const (
	Idle State = iota
	AwaitingAmount
	AwaitingNote
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingAmount:
		return "awaiting_amount"
	case AwaitingNote:
		return "awaiting_note"
	default:
		return "unknown"
	}
}

// Session is a partially collected ledger entry.
type Session struct {
	ID        uuid.UUID
	UserID    string
	ChatID    string
	State     State
	Category  core.Category
	Amount    decimal.Decimal
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry turns a completed session into a ledger entry stamped at ts.
func (s Session) Entry(ts time.Time) core.LedgerEntry {
	return core.LedgerEntry{
		Timestamp: ts,
		Category:  s.Category,
		Amount:    s.Amount,
		Note:      s.Note,
	}
}
