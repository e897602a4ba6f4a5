package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Turkish thousands and decimals", "15.000,00", "15000.00"},
		{"Decimal comma only", "100,00", "100.00"},
		{"Thousands dot only", "15.000", "15000"},
		{"Plain decimal point", "15.5", "15.5"},
		{"Machine format untouched", "15000.00", "15000.00"},
		{"Currency symbol stripped", "₺1.234,56", "1234.56"},
		{"TL suffix stripped", "199.335,07 TL", "199335.07"},
		{"Euro symbol stripped", "€2.500,00", "2500.00"},
		{"Integer", "2", "2"},
		{"Millions", "1.234.567,89", "1234567.89"},
		{"Garbage", "abc", "0"},
		{"Empty", "", "0"},
		{"Whitespace only", "   ", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanNumber(tt.input))
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Dotted day first", "01.09.2025", "2025-09-01"},
		{"Slash day first", "1/9/2025", "2025-09-01"},
		{"Dash day first", "01-09-2025", "2025-09-01"},
		{"ISO passthrough", "2025-09-01", "2025-09-01"},
		{"ISO with slashes", "2025/09/01", "2025-09-01"},
		{"Short year below pivot", "01.09.25", "2025-09-01"},
		{"Short year above pivot", "01.09.99", "1999-09-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDate(tt.input))
		})
	}
}

func TestNormalizeDateIdempotent(t *testing.T) {
	once := NormalizeDate("31.12.2024")
	assert.Equal(t, once, NormalizeDate(once))
}

func TestNormalizeDateFallback(t *testing.T) {
	today := time.Now().Format("2006-01-02")
	assert.Equal(t, today, NormalizeDate("not a date"))
}
