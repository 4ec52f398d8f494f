package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pengeluaran/internal/amqp"
	"pengeluaran/internal/core"
	"pengeluaran/internal/ledger"
	"pengeluaran/internal/storage"
)

var wib = time.FixedZone("WIB", 7*60*60)

func newMirror(t *testing.T) (*MirrorWorker, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	store := ledger.NewStore(repo, ledger.Options{Location: wib})
	return NewMirrorWorker(store, repo, nil), repo
}

func message(amount int64) *amqp.EntryRecordedMessage {
	return amqp.NewEntryRecordedMessage("u1", core.LedgerEntry{
		Timestamp: time.Date(2026, 10, 17, 9, 15, 0, 0, wib),
		Category:  core.Transportasi,
		Amount:    decimal.NewFromInt(amount),
		Note:      "kereta",
	})
}

func TestMirrorWritesMonthlyLedger(t *testing.T) {
	w, repo := newMirror(t)
	ctx := context.Background()

	require.NoError(t, w.HandleEntryRecorded(ctx, message(4000)))

	tbl, err := repo.Worksheet(ctx, "Oktober")
	require.NoError(t, err)
	recs, err := tbl.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2026-10-17 09:15:00", recs[0]["Waktu"])
	assert.Equal(t, "Transportasi", recs[0]["Kategori"])
	assert.Equal(t, "4000", recs[0]["Jumlah"])
	assert.Equal(t, "kereta", recs[0]["Catatan"])
	assert.Equal(t, Stats{Mirrored: 1}, w.Stats())
}

func TestMirrorSkipsRedelivery(t *testing.T) {
	w, repo := newMirror(t)
	ctx := context.Background()
	msg := message(4000)

	require.NoError(t, w.HandleEntryRecorded(ctx, msg))
	require.NoError(t, w.HandleEntryRecorded(ctx, msg))

	tbl, err := repo.Worksheet(ctx, "Oktober")
	require.NoError(t, err)
	recs, err := tbl.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, Stats{Mirrored: 1, Duplicates: 1}, w.Stats())
}

type failingLedger struct{}

func (failingLedger) Append(context.Context, core.LedgerEntry) error {
	return errors.New("disk I/O error")
}

type memoryEvents map[string]bool

func (m memoryEvents) EventProcessed(_ context.Context, id string) (bool, error) { return m[id], nil }

func (m memoryEvents) MarkEventProcessed(_ context.Context, id string) error {
	m[id] = true
	return nil
}

func TestMirrorFailureIsRetryable(t *testing.T) {
	events := memoryEvents{}
	w := NewMirrorWorker(failingLedger{}, events, nil)
	msg := message(1000)

	err := w.HandleEntryRecorded(context.Background(), msg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk I/O error")
	assert.False(t, events[msg.EventID], "failed events must stay unprocessed")
	assert.Equal(t, int64(1), w.Stats().Failed)
}

func TestMirrorRejectsInvalidEntry(t *testing.T) {
	w := NewMirrorWorker(failingLedger{}, memoryEvents{}, nil)
	msg := message(1000)
	msg.Category = "Liburan"

	err := w.HandleEntryRecorded(context.Background(), msg)
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
}
