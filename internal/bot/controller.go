package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pengeluaran/internal/core"
	"pengeluaran/internal/log"
	"pengeluaran/internal/session"
)

// Controller advances each user's session one event at a time. Every handled
// event produces exactly one outbound message; ignored events produce none.
type Controller struct {
	messenger Messenger
	ledger    Ledger
	sessions  *session.Store
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
}

type Option func(*Controller)

// WithPublisher announces every committed entry through p.
func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l.WithComponent(log.ComponentBot) }
}

// WithClock overrides the commit timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func New(m Messenger, l Ledger, sessions *session.Store, opts ...Option) *Controller {
	c := &Controller{
		messenger: m,
		ledger:    l,
		sessions:  sessions,
		logger:    log.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch routes ev to its handler. Events of one user never overlap.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	unlock := c.sessions.Lock(ev.UserID)
	defer unlock()

	switch ev.Kind {
	case EventCommand:
		return c.handleCommand(ctx, ev)
	case EventButton:
		return c.handleButton(ctx, ev)
	case EventText:
		return c.handleText(ctx, ev)
	default:
		return nil
	}
}

func (c *Controller) handleCommand(ctx context.Context, ev Event) error {
	switch strings.ToLower(ev.Command) {
	case CommandStart:
		return c.reply(ctx, ev, msgMenu, MenuKeyboard())
	case CommandCancel:
		if c.sessions.Delete(ev.UserID) {
			c.logger.DebugContext(ctx, "Session cancelled", log.FieldUserID, ev.UserID)
			return c.reply(ctx, ev, msgCancelled, nil)
		}
		return c.reply(ctx, ev, msgNothingToCancel, nil)
	default:
		// Unknown commands are input like any other text while a flow is open.
		if _, ok := c.sessions.Get(ev.UserID); ok && ev.Text != "" {
			ev.Kind = EventText
			return c.handleText(ctx, ev)
		}
		return nil
	}
}

func (c *Controller) handleButton(ctx context.Context, ev Event) error {
	switch {
	case ev.Data == ButtonToday:
		return c.showToday(ctx, ev)
	case strings.HasPrefix(ev.Data, ButtonRecordPrefix):
		label := strings.TrimPrefix(ev.Data, ButtonRecordPrefix)
		cat, err := core.ParseCategory(label)
		if err != nil {
			return c.reply(ctx, ev, fmt.Sprintf(msgUnknownCategory, label), nil)
		}
		sess := c.sessions.Start(ev.UserID, ev.ChatID, cat)
		c.logger.DebugContext(ctx, "Session started",
			log.FieldUserID, ev.UserID,
			log.FieldSessionID, sess.ID.String(),
			log.FieldCategory, cat.String())
		return c.reply(ctx, ev, fmt.Sprintf(msgAskAmount, cat), nil)
	default:
		return nil
	}
}

func (c *Controller) handleText(ctx context.Context, ev Event) error {
	sess, ok := c.sessions.Get(ev.UserID)
	if !ok {
		return nil
	}

	switch sess.State {
	case session.AwaitingAmount:
		amount, err := core.ParseExpenseAmount(ev.Text)
		if err != nil {
			return c.reply(ctx, ev, amountRejection(err), nil)
		}
		sess.Amount = amount
		sess.State = session.AwaitingNote
		c.sessions.Save(sess)
		return c.reply(ctx, ev, msgAskNote, nil)

	case session.AwaitingNote:
		sess.Note = ev.Text
		return c.commit(ctx, ev, sess)

	default:
		return nil
	}
}

func (c *Controller) commit(ctx context.Context, ev Event, sess session.Session) error {
	entry := sess.Entry(c.now().Truncate(time.Second))
	err := c.ledger.Append(ctx, entry)
	c.sessions.Delete(ev.UserID)

	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to record entry",
			log.NewFields().
				WithOperation(log.OpAppend).
				WithConversation(ev.UserID, ev.ChatID).
				WithError(err).
				ToSlice()...)
		return c.reply(ctx, ev, fmt.Sprintf(msgSaveFailed, err), nil)
	}

	c.logger.InfoContext(ctx, "Entry recorded",
		log.FieldUserID, ev.UserID,
		log.FieldSessionID, sess.ID.String(),
		log.FieldCategory, entry.Category.String(),
		log.FieldAmount, entry.Amount.String())

	if c.publisher != nil {
		if err := c.publisher.EntryRecorded(ctx, ev.UserID, entry); err != nil {
			c.logger.WarnContext(ctx, "Failed to publish entry",
				log.FieldOperation, log.OpPublish,
				log.FieldError, err)
		}
	}
	return c.reply(ctx, ev, savedText(entry), nil)
}

func (c *Controller) showToday(ctx context.Context, ev Event) error {
	sum, err := c.ledger.Daily(ctx, c.now())
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to read daily summary",
			log.FieldOperation, log.OpSummary,
			log.FieldError, err)
		return c.reply(ctx, ev, fmt.Sprintf(msgReadFailed, err), nil)
	}
	return c.reply(ctx, ev, SummaryText(sum), nil)
}

func (c *Controller) reply(ctx context.Context, ev Event, text string, kb Keyboard) error {
	return c.messenger.Send(ctx, OutboundMessage{ChatID: ev.ChatID, Text: text, Keyboard: kb})
}
