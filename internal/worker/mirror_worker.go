// Package worker replays recorded entries into a secondary ledger.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"pengeluaran/internal/amqp"
	"pengeluaran/internal/core"
	"pengeluaran/internal/log"
)

// Appender is the ledger the worker writes to.
type Appender interface {
	Append(ctx context.Context, entry core.LedgerEntry) error
}

// EventLog remembers which events were already mirrored.
type EventLog interface {
	EventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID string) error
}

// Stats counts handled messages since start.
type Stats struct {
	Mirrored   int64
	Duplicates int64
	Failed     int64
}

// MirrorWorker appends every entry_recorded event to its ledger once.
type MirrorWorker struct {
	ledger Appender
	events EventLog
	logger *log.Logger

	mirrored   atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

func NewMirrorWorker(ledger Appender, events EventLog, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Nop()
	}
	return &MirrorWorker{
		ledger: ledger,
		events: events,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEntryRecorded mirrors one message. A returned error makes the
// consumer requeue the message.
func (w *MirrorWorker) HandleEntryRecorded(ctx context.Context, msg *amqp.EntryRecordedMessage) error {
	done, err := w.events.EventProcessed(ctx, msg.EventID)
	if err != nil {
		w.failed.Add(1)
		return err
	}
	if done {
		w.duplicates.Add(1)
		w.logger.InfoContext(ctx, "Skipping already mirrored entry", log.FieldEventID, msg.EventID)
		return nil
	}

	entry, err := msg.Entry()
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("event %s: %w", msg.EventID, err)
	}

	if err := w.ledger.Append(ctx, entry); err != nil {
		w.failed.Add(1)
		return fmt.Errorf("mirror entry %s: %w", msg.EventID, err)
	}
	if err := w.events.MarkEventProcessed(ctx, msg.EventID); err != nil {
		// The row is written; a redelivery would duplicate it, so only log.
		w.logger.ErrorContext(ctx, "Failed to mark event processed",
			log.FieldEventID, msg.EventID,
			log.FieldError, err)
	}

	w.mirrored.Add(1)
	w.logger.InfoContext(ctx, "Entry mirrored",
		log.FieldEventID, msg.EventID,
		log.FieldUserID, msg.UserID,
		log.FieldCategory, msg.Category,
		log.FieldAmount, msg.Amount.String())
	return nil
}

func (w *MirrorWorker) Stats() Stats {
	return Stats{
		Mirrored:   w.mirrored.Load(),
		Duplicates: w.duplicates.Load(),
		Failed:     w.failed.Load(),
	}
}
