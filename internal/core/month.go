package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthNames = [12]string{
	"Januari",
	"Februari",
	"Maret",
	"April",
	"Mei",
	"Juni",
	"Juli",
	"Agustus",
	"September",
	"Oktober",
	"November",
	"Desember",
}

// MonthName returns the localized name of t's month.
func MonthName(t time.Time) string {
	return monthNames[t.Month()-1]
}

// LedgerName returns the table name holding entries committed in t's month.
// With withYear the name is prefixed by the year ("2026 Oktober"), which keeps
// the same month of different years apart.
func LedgerName(t time.Time, withYear bool) string {
	name := MonthName(t)
	if withYear {
		return yearPrefixedName(name, t.Year())
	}
	return name
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
