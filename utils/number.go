package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var currencyTokens = strings.NewReplacer(
	"₺", "", "TL", "", "tl", "", "$", "", "€", "", "£", "", "USD", "", "EUR", "",
)

var nonNumericRe = regexp.MustCompile(`[^0-9.]`)

// CleanNumber converts a Turkish-formatted amount string into a plain
// decimal string with '.' as the separator. Turkish documents use '.'
// for thousands and ',' for decimals ("15.000,00"), but exported files
// sometimes arrive already in machine format ("15000.00"), so both
// conventions are handled. Returns "0" when nothing parseable remains.
func CleanNumber(s string) string {
	s = strings.TrimSpace(currencyTokens.Replace(s))
	if s == "" {
		return "0"
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		// Both present: the comma is the decimal separator when it is
		// followed by at most two digits, otherwise the dot is.
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(strings.TrimSpace(parts[1])) <= 2 {
			s = strings.ReplaceAll(parts[0], ".", "") + "." + parts[1]
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	case hasDot:
		// Dot-only: "15.000" is a thousands separator, "15.5" is not.
		idx := strings.LastIndex(s, ".")
		if tail := s[idx+1:]; len(tail) == 3 && allDigits(tail) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	s = nonNumericRe.ReplaceAllString(s, "")
	// A stray thousands dot can survive ("1.234.56"); keep only the last.
	if strings.Count(s, ".") > 1 {
		idx := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:idx], ".", "") + s[idx:]
	}

	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "0"
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})[./-](\d{1,2})[./-](\d{1,2})$`)
	dayFirstRe  = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{4})$`)
	shortYearRe = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{2})$`)
)

// NormalizeDate converts the date formats seen on Turkish invoices
// (DD.MM.YYYY, DD/MM/YYYY, DD-MM-YY, YYYY-MM-DD) to ISO YYYY-MM-DD.
// Two-digit years below 50 are taken as 20xx, the rest as 19xx.
// Unrecognized input falls back to the current date.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return isoDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := dayFirstRe.FindStringSubmatch(s); m != nil {
		return isoDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := shortYearRe.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
		return isoDate(year, atoi(m[2]), atoi(m[1]))
	}
	return time.Now().Format("2006-01-02")
}

func isoDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
