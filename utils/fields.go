package utils

import (
	"regexp"
	"strings"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

// Field patterns run top to bottom; the first capture wins. Labeled
// forms sit above bare forms so a generic match never shadows an
// explicit label elsewhere in the document.
var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Fatura\s*No(?:su)?\s*[:.]?\s*([A-Z0-9][A-Z0-9/-]{2,})`),
	regexp.MustCompile(`(?i)Fatura\s*Numaras[ıi]\s*[:.]?\s*([A-Z0-9][A-Z0-9/-]{2,})`),
	regexp.MustCompile(`(?i)Invoice\s*(?:No|Number)\s*[:.]?\s*([A-Z0-9][A-Z0-9/-]{2,})`),
	regexp.MustCompile(`(?i)Belge\s*No\s*[:.]?\s*([A-Z0-9][A-Z0-9/-]{2,})`),
	regexp.MustCompile(`(?i)Seri\s*S[ıi]ra\s*No\s*[:.]?\s*([A-Z0-9][A-Z0-9/-]{2,})`),
	regexp.MustCompile(`(?m)^\s*No\s*[:.]\s*([A-Z0-9][A-Z0-9/-]{2,})\s*$`),
}

var invoiceDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Fatura\s*Tarih[iı]\s*[:.]?\s*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`),
	regexp.MustCompile(`(?i)D[üu]zenleme\s*Tarih[iı]\s*[:.]?\s*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`),
	regexp.MustCompile(`(?i)(?:Tarih|Date)\s*[:.]?\s*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`),
	regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(\d{1,2}[./-]\d{1,2}[./-]\d{4})`),
}

// Vendor and customer blocks: a section marker opens the block and the
// opposite party's marker (or the item table) closes it.
var vendorBlockPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)SATICI\s*[:.]?\s*(.+?)(?:\n\s*(?:SAYIN|ALICI|M[ÜU][ŞS]TER[İIi]|BUYER|CUSTOMER)|\z)`),
	regexp.MustCompile(`(?is)(?:SELLER|FATURALAYAN)\s*[:.]?\s*(.+?)(?:\n\s*(?:SAYIN|ALICI|BUYER|CUSTOMER)|\z)`),
	regexp.MustCompile(`(?im)^\s*(.{5,80}?(?:L[TJ]D|A\.?\s?[ŞS]\.?|[ŞS]T[İIi]|SAN\.|T[İIi]C\.)[^\n]{0,40})$`),
}

var customerBlockPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)SAYIN\s*[:.]?\s*(.+?)(?:\n\s*(?:S[Iİı]RA\s*NO|A[ÇC]IKLAMA|MAL\s+H[İIi]ZMET|M[İIi]KTAR|TOPLAM|FATURA\s*NO)|\z)`),
	regexp.MustCompile(`(?is)(?:ALICI|M[ÜU][ŞS]TER[İIi]|BUYER|CUSTOMER)\s*[:.]?\s*(.+?)(?:\n\s*(?:S[Iİı]RA\s*NO|A[ÇC]IKLAMA|MAL\s+H[İIi]ZMET|M[İIi]KTAR|TOPLAM|FATURA\s*NO)|\z)`),
	regexp.MustCompile(`(?im)^\s*(.{5,80}?GENEL\s*M[ÜU]D[ÜU]RL[ÜU][ĞG][ÜU][^\n]{0,40})$`),
}

var (
	vknLabeledRe = regexp.MustCompile(`(?i)(?:VKN|TCKN|Vergi\s*(?:Kimlik\s*)?No(?:su)?)\s*[:.]?\s*(\d{10,11})`)
	vknBareRe    = regexp.MustCompile(`\b(\d{10,11})\b`)
)

// HeaderFields carries the raw spans located by the cascades before
// any normalization.
type HeaderFields struct {
	InvoiceNumber string
	InvoiceDate   string
	VendorBlock   string
	CustomerBlock string
}

// ExtractHeaderFields locates the invoice number, the raw invoice date
// and the vendor/customer text blocks inside the document text.
func ExtractHeaderFields(text string) HeaderFields {
	var h HeaderFields
	h.InvoiceNumber = firstMatch(invoiceNumberPatterns, text)
	h.InvoiceDate = firstMatch(invoiceDatePatterns, text)
	h.VendorBlock = firstMatch(vendorBlockPatterns, text)
	h.CustomerBlock = firstMatch(customerBlockPatterns, text)
	return h
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ExtractParties builds the vendor and customer records from the
// header blocks. When a party block is missing, tax IDs fall back to
// document order: the first VKN on an invoice belongs to the issuer,
// the second to the recipient.
func ExtractParties(text string, h HeaderFields) (vendor, customer dto.Party) {
	vendor.Name = partyName(h.VendorBlock)
	customer.Name = partyName(h.CustomerBlock)

	vendor.TaxID = firstVKN(h.VendorBlock)
	customer.TaxID = firstVKN(h.CustomerBlock)

	if vendor.TaxID == "" || customer.TaxID == "" {
		ids := documentVKNs(text)
		if vendor.TaxID == "" && len(ids) > 0 {
			vendor.TaxID = ids[0]
		}
		if customer.TaxID == "" && len(ids) > 1 && ids[1] != vendor.TaxID {
			customer.TaxID = ids[1]
		}
	}
	return vendor, customer
}

// partyName takes the first line of a block that looks like a name:
// not a label, not an address fragment, not bare digits.
func partyName(block string) string {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || allDigits(line) {
			continue
		}
		if containsAny(line, "adres", "vergi dairesi", "mersis", "tel:", "fax:", "e-posta", "mahalle", "mah.", "cadde", "cad.", "sokak", "sok.") {
			continue
		}
		return cleanPartyName(line)
	}
	return ""
}

var nameNoiseRe = regexp.MustCompile(`(?i)\s*(?:VKN|TCKN|Vergi\s*No)\s*[:.]?\s*\d*\s*$`)

func cleanPartyName(name string) string {
	name = nameNoiseRe.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

func firstVKN(block string) string {
	if m := vknLabeledRe.FindStringSubmatch(block); len(m) > 1 {
		return m[1]
	}
	return ""
}

// documentVKNs returns every distinct tax ID in the text, labeled
// matches first, preserving document order.
func documentVKNs(text string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range vknLabeledRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	for _, m := range vknBareRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}
	return ids
}
