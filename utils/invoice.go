package utils

import (
	"regexp"
	"strings"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

// Options configures a parse run. The zero value is not usable; start
// from DefaultOptions.
type Options struct {
	DefaultVATRate string
	Correspondents []dto.Correspondent
}

// DefaultOptions returns the production defaults: the statutory 18%
// rate and the built-in public-sector correspondent table.
func DefaultOptions() Options {
	return Options{
		DefaultVATRate: "18",
		Correspondents: []dto.Correspondent{
			{
				Keywords: []string{"DEVLET MALZEME OFİSİ", "DMO"},
				Party:    "customer",
				Address:  "İnönü Bulvarı No: 18 Yücetepe 06570 Çankaya/Ankara",
				Lat:      39.9208, Lng: 32.8541,
			},
			{
				Keywords: []string{"ETİ MADEN", "ETİMADEN"},
				Party:    "customer",
				Address:  "Ayvalı Mahallesi Halil Sezai Erkut Caddesi Afra Sokak No: 1/A Etlik Keçiören/Ankara",
				Lat:      39.9763, Lng: 32.8541,
			},
		},
	}
}

// Document-level money labels. Ordered so that the most explicit
// Turkish e-invoice labels win over loose ones.
var subtotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Mal\s*Hizmet\s*Toplam\s*Tutar[ıi]\s*[:.]?\s*([\d.,]+)`),
	regexp.MustCompile(`(?i)Ara\s*Toplam\s*[:.]?\s*([\d.,]+)`),
	regexp.MustCompile(`(?i)(?:Subtotal|Sub\s*Total)\s*[:.]?\s*([\d.,]+)`),
}

// Tax patterns capture the rate where the label carries one, amount
// always in the last group.
var taxPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Hesaplanan\s*KDV\s*\(\s*%\s*([\d.,]+)\s*\)\s*[:.]?\s*([\d.,]+)`),
	regexp.MustCompile(`(?i)KDV\s*\(\s*%\s*([\d.,]+)\s*\)(?:\s*\(\s*%\s*[\d.,]+\s*\))?\s*[:.]?\s*([\d.,]+)`),
	regexp.MustCompile(`(?i)Hesaplanan\s*KDV\s*[:.]?\s*()([\d.,]+)`),
	regexp.MustCompile(`(?i)Toplam\s*KDV\s*[:.]?\s*()([\d.,]+)`),
	regexp.MustCompile(`(?i)KDV\s*Tutar[ıi]\s*[:.]?\s*()([\d.,]+)`),
}

var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Vergiler\s*Dahil\s*Toplam\s*Tutar\s*[:.]?\s*([\d.,]+)`),
	regexp.MustCompile(`(?i)[ÖO]denecek\s*Tutar\s*[:.]?\s*([\d.,]+)`),
	regexp.MustCompile(`(?i)Genel\s*Toplam\s*[:.]?\s*([\d.,]+)`),
	regexp.MustCompile(`(?i)(?:Grand\s*Total|Total\s*Amount)\s*[:.]?\s*([\d.,]+)`),
}

var withholdingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Tevkifat(?:\s*Tutar[ıi])?\s*(?:\(\s*[\d/]+\s*\))?\s*[:.]?\s*([\d.,]+)`),
}

var notesRe = regexp.MustCompile(`(?im)^\s*Not(?:lar)?\s*[:.]\s*(.+)$`)

// ParseInvoice runs the full extraction pipeline over the document
// text and any table grids: header fields, parties, addresses, line
// items, then totals reconciliation. It is a pure function of its
// inputs; nothing is read from the environment.
func ParseInvoice(text string, grids []dto.TableGrid, opts Options) (dto.InvoiceRecord, error) {
	if strings.TrimSpace(text) == "" && len(grids) == 0 {
		return dto.InvoiceRecord{}, dto.ErrNoContent
	}
	if opts.DefaultVATRate == "" {
		opts.DefaultVATRate = "18"
	}

	var rec dto.InvoiceRecord

	header := ExtractHeaderFields(text)
	rec.InvoiceNumber = header.InvoiceNumber
	if header.InvoiceDate != "" {
		rec.InvoiceDate = NormalizeDate(header.InvoiceDate)
	}

	rec.Vendor, rec.Customer = ExtractParties(text, header)
	rec.Vendor.Address, rec.Customer.Address = ExtractAddresses(text, rec.Vendor, rec.Customer, opts.Correspondents)

	rec.LineItems = ExtractLineItems(grids, text, opts.DefaultVATRate)

	rate, extracted := extractDocumentTotals(text)
	if rate != "" {
		rec.TaxRate = ParseVATRate(rate, opts.DefaultVATRate)
	} else if r := dominantItemRate(rec.LineItems); r != "" {
		rec.TaxRate = r
	} else {
		rec.TaxRate = ParseVATRate(opts.DefaultVATRate, opts.DefaultVATRate)
	}

	totals := ReconcileTotals(rec.LineItems, extracted, rec.TaxRate)
	rec.Subtotal = totals.Subtotal
	rec.TaxAmount = totals.TaxAmount
	rec.TotalAmount = totals.Total

	rec.WithholdingTax = firstMatch(withholdingPatterns, text)
	if rec.WithholdingTax != "" {
		rec.WithholdingTax = CleanNumber(rec.WithholdingTax)
	}
	if m := notesRe.FindStringSubmatch(text); len(m) > 1 {
		rec.Notes = strings.TrimSpace(m[1])
	}
	rec.Currency = detectCurrency(text)
	return rec, nil
}

// extractDocumentTotals reads the labeled money lines. The rate comes
// back raw; the caller runs it through ParseVATRate.
func extractDocumentTotals(text string) (rate string, t Totals) {
	if v := firstMatch(subtotalPatterns, text); v != "" {
		t.Subtotal = CleanNumber(v)
	}
	for _, re := range taxPatterns {
		if m := re.FindStringSubmatch(text); len(m) > 2 {
			rate = m[1]
			t.TaxAmount = CleanNumber(m[2])
			break
		}
	}
	if v := firstMatch(totalPatterns, text); v != "" {
		t.Total = CleanNumber(v)
	}
	return rate, t
}

// dominantItemRate returns the most frequent line-item rate, if the
// items carry one at all.
func dominantItemRate(items []dto.LineItem) string {
	counts := make(map[string]int)
	best := ""
	for _, it := range items {
		if it.TaxRate == "" {
			continue
		}
		counts[it.TaxRate]++
		if best == "" || counts[it.TaxRate] > counts[best] {
			best = it.TaxRate
		}
	}
	return best
}

// detectCurrency maps a currency token found in the text to its ISO
// code. A document with no token at all yields the empty string; the
// output layers render absent fields empty rather than guessing.
func detectCurrency(text string) string {
	switch {
	case strings.Contains(text, "₺") || strings.Contains(text, " TL") || strings.Contains(text, "TRY"):
		return "TRY"
	case strings.Contains(text, "€") || strings.Contains(text, "EUR"):
		return "EUR"
	case strings.Contains(text, "$") || strings.Contains(text, "USD"):
		return "USD"
	}
	return ""
}
