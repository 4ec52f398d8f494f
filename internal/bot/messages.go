package bot

import (
	"errors"
	"fmt"
	"strings"

	"pengeluaran/internal/core"
	"pengeluaran/internal/ledger"
)

const (
	msgMenu            = "Pilih kategori pengeluaran:"
	msgAskAmount       = "Kategori: %s\nMasukkan jumlah pengeluaran"
	msgInvalidAmount   = "⚠️ Harus berupa angka. Coba lagi:"
	msgNonPositive     = "⚠️ Jumlah harus lebih dari 0. Coba lagi:"
	msgAskNote         = "Masukkan catatan"
	msgSaved           = "✅ Tersimpan:\n📅 %s\n🗂 %s\n💰 Rp. %s\n📝 %s"
	msgSaveFailed      = "❌ Gagal menyimpan ke spreadsheet.\n%v"
	msgReadFailed      = "❌ Gagal membaca spreadsheet.\n%v"
	msgUnknownCategory = "⚠️ Kategori tidak dikenal: %s"
	msgCancelled       = "🚫 Pencatatan dibatalkan."
	msgNothingToCancel = "Tidak ada pencatatan yang sedang berjalan."
	msgEmptyDay        = "📭 Belum ada pengeluaran hari ini."
)

func amountRejection(err error) string {
	if errors.Is(err, core.ErrNonPositiveAmount) {
		return msgNonPositive
	}
	return msgInvalidAmount
}

func savedText(e core.LedgerEntry) string {
	return fmt.Sprintf(msgSaved, e.Timestamp.Format(core.TimestampLayout), e.Category, e.Amount.String(), e.Note)
}

// SummaryText renders a daily summary the way it is shown in chat.
func SummaryText(s ledger.Summary) string {
	if s.Empty() {
		return msgEmptyDay
	}
	var b strings.Builder
	for i, l := range s.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: Rp%s (%s)", l.Category, l.Amount, l.Note)
	}
	fmt.Fprintf(&b, "\n\n🧾 Total: Rp.%s", s.Total.Truncate(0).String())
	return b.String()
}
