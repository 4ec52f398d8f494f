package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pengeluaran/internal/core"
)

// EntryRecordedMessage announces one committed ledger entry. EventID lets
// consumers drop redeliveries.
type EntryRecordedMessage struct {
	EventID    string          `json:"event_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	UserID     string          `json:"user_id"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// NewEntryRecordedMessage wraps entry with a fresh event id.
func NewEntryRecordedMessage(userID string, entry core.LedgerEntry) *EntryRecordedMessage {
	return &EntryRecordedMessage{
		EventID:    uuid.NewString(),
		Timestamp:  entry.Timestamp,
		Category:   entry.Category.String(),
		Amount:     entry.Amount,
		Note:       entry.Note,
		UserID:     userID,
		RecordedAt: time.Now(),
	}
}

// Entry rebuilds the ledger entry carried by the message.
func (m *EntryRecordedMessage) Entry() (core.LedgerEntry, error) {
	cat, err := core.ParseCategory(m.Category)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	e := core.LedgerEntry{
		Timestamp: m.Timestamp,
		Category:  cat,
		Amount:    m.Amount,
		Note:      m.Note,
	}
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}
	return e, nil
}

// ToJSON converts the message to JSON bytes
func (m *EntryRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryRecordedMessageFromJSON decodes and checks a message body.
func EntryRecordedMessageFromJSON(data []byte) (*EntryRecordedMessage, error) {
	var msg EntryRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EventID == "" {
		return nil, errors.New("missing event_id")
	}
	if _, err := msg.Entry(); err != nil {
		return nil, fmt.Errorf("event %s: %w", msg.EventID, err)
	}
	return &msg, nil
}
