package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

// Thresholds for the numeric-description guard. Tuned against real
// e-Arşiv PDFs where amount columns bleed into the description cell.
const (
	numericDescMaxLen = 10
	minDescLetters    = 1
)

// Header keyword sets per column, matched in a fixed order so that
// "Birim Fiyat" binds to the price column before the bare "Birim"
// rule can claim it. The folded variants cover the mangled spellings
// PDF text extraction produces for Turkish glyphs.
var columnFields = []struct {
	field    string
	keywords []string
}{
	{"description", []string{"aciklama", "acnklama", "mal", "hizmet", "urun", "malzeme", "cinsi", "description"}},
	{"quantity", []string{"miktar", "mnktar", "adet", "qty", "quantity"}},
	{"unit_price", []string{"birim fiyat", "b.fiyat", "fiyat", "unit price", "price"}},
	{"unit", []string{"birim", "unit"}},
	{"tax_rate", []string{"kdv", "vergi", "vat", "tax"}},
	{"amount", []string{"tutar", "toplam", "amount", "total"}},
}

// ExtractLineItems pulls line items out of the document. Table grids
// are authoritative when any yield items; the raw-text pattern pass is
// the fallback for PDFs whose tables did not survive extraction.
func ExtractLineItems(grids []dto.TableGrid, text, defaultVATRate string) []dto.LineItem {
	var items []dto.LineItem
	for _, grid := range grids {
		items = append(items, itemsFromGrid(grid, defaultVATRate)...)
	}
	if len(items) == 0 {
		items = itemsFromText(text, defaultVATRate)
	}
	return ValidateLineItems(items)
}

func itemsFromGrid(grid dto.TableGrid, defaultVATRate string) []dto.LineItem {
	headerIdx, columns := findHeaderRow(grid)
	if headerIdx < 0 {
		return nil
	}

	var items []dto.LineItem
	for _, row := range grid[headerIdx+1:] {
		if emptyRow(row) {
			continue
		}
		item := dto.LineItem{Quantity: "1", Unit: "ADET"}
		for field, col := range columns {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			switch field {
			case "description":
				item.Description = cell
			case "quantity":
				item.Quantity = CleanNumber(cell)
			case "unit":
				item.Unit = cell
			case "unit_price":
				item.UnitPrice = CleanNumber(cell)
			case "tax_rate":
				item.TaxRate = ParseVATRate(cell, defaultVATRate)
			case "amount":
				item.Amount = CleanNumber(cell)
			}
		}
		if item.Description == "" || isHeaderEcho(item.Description) {
			continue
		}
		items = append(items, item)
	}
	return items
}

// findHeaderRow scans for the row whose cells hit keywords from at
// least two distinct columns, and maps each column index to a field.
func findHeaderRow(grid dto.TableGrid) (int, map[string]int) {
	for i, row := range grid {
		columns := make(map[string]int)
		for col, cell := range row {
			folded := foldTR(cell)
			if folded == "" {
				continue
			}
			for _, cf := range columnFields {
				if _, taken := columns[cf.field]; taken {
					continue
				}
				if matchesKeyword(folded, cf.keywords) {
					columns[cf.field] = col
					break
				}
			}
		}
		if len(columns) >= 2 && hasKey(columns, "description") {
			return i, columns
		}
	}
	return -1, nil
}

func hasKey(m map[string]int, k string) bool {
	_, ok := m[k]
	return ok
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func matchesKeyword(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

func isHeaderEcho(desc string) bool {
	folded := foldTR(desc)
	for _, cf := range columnFields {
		if cf.field != "description" {
			continue
		}
		for _, kw := range cf.keywords {
			if folded == kw {
				return true
			}
		}
	}
	return containsAny(desc, "toplam", "ara toplam", "genel toplam")
}

// A raw-text line item: description, quantity, unit keyword, unit
// price, optional %rate, row amount.
var textItemRe = regexp.MustCompile(`(?i)^(.{2,80}?)\s+(\d+(?:[.,]\d+)?)\s+(ADET|KG|GR|LT|L[İIi]TRE|MT?|M2|M3|SAAT|G[ÜU]N|AY|PAKET|KUTU|KOL[İIi])\s+([\d.,]+)\s+%?\s*(\d{1,3}(?:[.,]\d{1,2})?)\s+([\d.,]+)\s*$`)

var totalsLineRe = regexp.MustCompile(`(?i)(?:ARA\s*TOPLAM|GENEL\s*TOPLAM|TOPLAM|KDV|VERG[İI]LER|TEVK[İI]FAT|[ÖO]DENECEK)`)

func itemsFromText(text, defaultVATRate string) []dto.LineItem {
	var items []dto.LineItem
	pending := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			pending = false
			continue
		}
		if m := textItemRe.FindStringSubmatch(line); m != nil {
			items = append(items, dto.LineItem{
				Description: strings.TrimSpace(m[1]),
				Quantity:    CleanNumber(m[2]),
				Unit:        strings.ToUpper(m[3]),
				UnitPrice:   CleanNumber(m[4]),
				TaxRate:     ParseVATRate(m[5], defaultVATRate),
				Amount:      CleanNumber(m[6]),
			})
			pending = true
			continue
		}
		if totalsLineRe.MatchString(line) {
			pending = false
			continue
		}
		// A wrapped description continues the item above it.
		if pending && len(items) > 0 && hasLetters(line) && !hasAmountShape(line) {
			last := &items[len(items)-1]
			last.Description += " " + line
			continue
		}
		pending = false
	}
	return items
}

func hasLetters(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127 {
			return true
		}
	}
	return false
}

var amountShapeRe = regexp.MustCompile(`\d+[.,]\d{2}\s*(?:TL|₺)?\s*$`)

func hasAmountShape(s string) bool {
	return amountShapeRe.MatchString(s)
}

var currencyStripRe = regexp.MustCompile(`(?i)[₺$€£]|TL\b`)

// ValidateLineItems replaces descriptions that are really stray
// numbers with a positional placeholder, so a leaked amount column
// never ships as an item name.
func ValidateLineItems(items []dto.LineItem) []dto.LineItem {
	for i := range items {
		if numericDescription(items[i].Description) {
			items[i].Description = fmt.Sprintf("Ürün %d", i+1)
		}
	}
	return items
}

func numericDescription(desc string) bool {
	cleaned := strings.TrimSpace(currencyStripRe.ReplaceAllString(desc, ""))
	if cleaned == "" {
		return true
	}
	stripped := strings.NewReplacer(".", "", ",", "", " ", "").Replace(cleaned)
	if allDigits(stripped) {
		return true
	}
	if len(cleaned) <= numericDescMaxLen && letterCount(cleaned) < minDescLetters && hasDigit(cleaned) {
		return true
	}
	return false
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127 {
			n++
		}
	}
	return n
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
