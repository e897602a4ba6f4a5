package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// Rate patterns are tried in order; the first match wins. The more
// specific label+percent forms must run before the bare forms so that
// "KDV (%20): 1.500,00" picks 20 and not a digit pair from the amount.
var vatPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:KDV|KDv|VAT|TAX|VERG[İI])[^\d%]*%\s*(\d{1,3}(?:[.,]\d{1,2})?)`),
	regexp.MustCompile(`%\s*(\d{1,3}(?:[.,]\d{1,2})?)`),
	regexp.MustCompile(`(\d{1,3}(?:[.,]\d{1,2})?)\s*%`),
	regexp.MustCompile(`(?i)(?:KDV|VAT|TAX)(?:\s*(?:ORANI|RATE))?\s*[:=]?\s*(\d{1,3}(?:[.,]\d{1,2})?)`),
	regexp.MustCompile(`^\s*(\d{1,4}(?:[.,]\d{1,2})?)\s*$`),
}

var rateDigitsRe = regexp.MustCompile(`[^0-9.,]`)

// ParseVATRate extracts a VAT percentage from a raw field value.
// OCR and sloppy table layouts produce values like "1800" (decimal
// point lost) or "%18%18"; anything that cannot be recovered into the
// plausible 1-30 band collapses to defaultRate, returned exactly as
// the caller passed it. Negative values are always rejected.
func ParseVATRate(s, defaultRate string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "-") {
		return defaultRate
	}

	for _, re := range vatPatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		v, ok := parseRate(m[1])
		if !ok {
			return defaultRate
		}
		if v >= 1 && v <= 30 {
			return formatRate(v)
		}
		if v == 0 {
			return defaultRate
		}
		return correctShifted(v, defaultRate)
	}

	// No recognizable shape at all; strip to digits and try a last
	// parse before giving up.
	raw := rateDigitsRe.ReplaceAllString(s, "")
	v, ok := parseRate(raw)
	if !ok {
		return defaultRate
	}
	if v >= 1 && v <= 30 {
		return formatRate(v)
	}
	return correctShifted(v, defaultRate)
}

// correctShifted recovers rates whose decimal point was dropped during
// extraction: 1800 means 18.00 and 200 means 20.0. Values that do not
// land back in the 1-30 band after the shift were never rates.
func correctShifted(v float64, defaultRate string) string {
	switch {
	case v >= 1000 && v <= 3000:
		v /= 100
	case v >= 100 && v < 1000:
		v /= 10
	default:
		return defaultRate
	}
	if v >= 1 && v <= 30 {
		return formatRate(v)
	}
	return defaultRate
}

func parseRate(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// formatRate renders a rate the way downstream XML expects: whole
// rates keep one decimal ("18.0"), fractional rates keep their own
// precision ("8.5").
func formatRate(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
