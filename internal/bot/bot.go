// Package bot runs the expense-entry conversation. It is transport agnostic:
// a chat adapter feeds it Events and delivers its OutboundMessages.
package bot

import (
	"context"
	"time"

	"pengeluaran/internal/core"
	"pengeluaran/internal/ledger"
)

const (
	CommandStart  = "start"
	CommandCancel = "batal"

	// ButtonRecordPrefix precedes the category label in a record button.
	ButtonRecordPrefix = "catat_"
	ButtonToday        = "lihat_hari_ini"
)

type EventKind int

const (
	EventCommand EventKind = iota + 1
	EventButton
	EventText
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventButton:
		return "button"
	case EventText:
		return "text"
	default:
		return "unknown"
	}
}

// Event is one inbound chat interaction.
type Event struct {
	Kind    EventKind
	ChatID  string
	UserID  string
	Command string // EventCommand, without the leading slash
	Data    string // EventButton payload
	Text    string // message body, also kept for commands
}

// Button is an inline choice attached to a message.
type Button struct {
	Label string
	Data  string
}

// Keyboard rows of buttons. Transports may re-flow rows to fit their limits.
type Keyboard [][]Button

type OutboundMessage struct {
	ChatID   string
	Text     string
	Keyboard Keyboard
}

// Messenger delivers replies to a chat.
type Messenger interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// Ledger is the persistence the conversation commits to.
type Ledger interface {
	Append(ctx context.Context, entry core.LedgerEntry) error
	Daily(ctx context.Context, now time.Time) (ledger.Summary, error)
}

// Publisher announces committed entries to other services.
type Publisher interface {
	EntryRecorded(ctx context.Context, userID string, entry core.LedgerEntry) error
}

// MenuKeyboard is the start menu: one button per category, then the
// summary button.
func MenuKeyboard() Keyboard {
	cats := core.Categories()
	kb := make(Keyboard, 0, len(cats)+1)
	for _, c := range cats {
		kb = append(kb, []Button{{Label: c.String(), Data: ButtonRecordPrefix + c.String()}})
	}
	return append(kb, []Button{{Label: "Lihat Pengeluaran Hari Ini", Data: ButtonToday}})
}
