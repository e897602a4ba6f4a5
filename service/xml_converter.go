package service

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

// The flat schema mirrors the record one-to-one. Empty fields render
// as empty elements; a consumer must be able to tell "not on the
// document" from a real value, so no defaults are substituted here.
type invoiceXML struct {
	XMLName       xml.Name `xml:"Invoice"`
	InvoiceNumber string   `xml:"InvoiceNumber"`
	IssueDate     string   `xml:"IssueDate"`
	Seller        partyXML `xml:"Seller"`
	Buyer         partyXML `xml:"Buyer"`
	Items         itemsXML `xml:"Items"`
	TotalAmount   string   `xml:"TotalAmount"`
	Currency      string   `xml:"Currency"`
}

type partyXML struct {
	Name string `xml:"Name"`
	VKN  string `xml:"VKN"`
}

type itemsXML struct {
	Item []itemXML `xml:"Item"`
}

type itemXML struct {
	Description string `xml:"Description"`
	Quantity    string `xml:"Quantity"`
	UnitPrice   string `xml:"UnitPrice"`
	VAT         string `xml:"VAT"`
	Total       string `xml:"Total"`
}

// BuildInvoiceXML renders the flat machine-consumer shape.
func BuildInvoiceXML(rec dto.InvoiceRecord) (string, error) {
	doc := invoiceXML{
		InvoiceNumber: rec.InvoiceNumber,
		IssueDate:     rec.InvoiceDate,
		Seller:        partyXML{Name: rec.Vendor.Name, VKN: rec.Vendor.TaxID},
		Buyer:         partyXML{Name: rec.Customer.Name, VKN: rec.Customer.TaxID},
		TotalAmount:   rec.TotalAmount,
		Currency:      rec.Currency,
	}
	for _, item := range rec.LineItems {
		doc.Items.Item = append(doc.Items.Item, itemXML{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VAT:         item.TaxRate,
			Total:       item.Amount,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal invoice xml: %w", err)
	}
	return xml.Header + string(out), nil
}

// BuildEFaturaXML renders the Turkish-facing shape with localized
// element names, display-formatted amounts and DD-MM-YYYY dates.
// Built by hand because the element names carry non-ASCII characters.
func BuildEFaturaXML(rec dto.InvoiceRecord) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<E-Fatura_Verileri>\n")

	writeElement(&b, 1, "Fatura_No", rec.InvoiceNumber)
	writeElement(&b, 1, "Fatura_Tarihi", turkishDate(rec.InvoiceDate))

	b.WriteString("  <Satici>\n")
	writeElement(&b, 2, "Unvan", rec.Vendor.Name)
	writeElement(&b, 2, "VKN", rec.Vendor.TaxID)
	writeElement(&b, 2, "Adres", rec.Vendor.Address)
	b.WriteString("  </Satici>\n")

	b.WriteString("  <Alici>\n")
	writeElement(&b, 2, "Unvan", rec.Customer.Name)
	writeElement(&b, 2, "VKN", rec.Customer.TaxID)
	writeElement(&b, 2, "Adres", rec.Customer.Address)
	b.WriteString("  </Alici>\n")

	b.WriteString("  <Fatura_Kalemleri>\n")
	for _, item := range rec.LineItems {
		b.WriteString("    <Kalem>\n")
		writeElement(&b, 3, "Aciklama", item.Description)
		writeElement(&b, 3, "Miktar", item.Quantity)
		writeElement(&b, 3, "Birim", item.Unit)
		writeElement(&b, 3, "Birim_Fiyat", formatAmountTurkish(item.UnitPrice))
		writeElement(&b, 3, "KDV_Orani", item.TaxRate)
		writeElement(&b, 3, "Tutar", formatAmountTurkish(item.Amount))
		b.WriteString("    </Kalem>\n")
	}
	b.WriteString("  </Fatura_Kalemleri>\n")

	writeElement(&b, 1, "Mal_Hizmet_Toplam", formatAmountTurkish(rec.Subtotal))
	writeElement(&b, 1, "Hesaplanan_KDV", formatAmountTurkish(rec.TaxAmount))
	writeElement(&b, 1, "KDV_Orani", rec.TaxRate)
	if rec.WithholdingTax != "" {
		writeElement(&b, 1, "Tevkifat", formatAmountTurkish(rec.WithholdingTax))
	}
	writeElement(&b, 1, "Odenecek_Tutar", formatAmountTurkish(rec.TotalAmount))
	writeElement(&b, 1, "Para_Birimi", rec.Currency)
	if rec.Notes != "" {
		writeElement(&b, 1, "Notlar", rec.Notes)
	}

	b.WriteString("</E-Fatura_Verileri>\n")
	return b.String()
}

func writeElement(b *strings.Builder, depth int, name, value string) {
	indent := strings.Repeat("  ", depth)
	var escaped strings.Builder
	xml.EscapeText(&escaped, []byte(value))
	fmt.Fprintf(b, "%s<%s>%s</%s>\n", indent, name, escaped.String(), name)
}

// formatAmountTurkish renders "15000.00" as "15.000,00". Empty values
// stay empty.
func formatAmountTurkish(amount string) string {
	if strings.TrimSpace(amount) == "" {
		return ""
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	fixed := d.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")
	parts := strings.SplitN(fixed, ".", 2)

	intPart := parts[0]
	var grouped []string
	for len(intPart) > 3 {
		grouped = append([]string{intPart[len(intPart)-3:]}, grouped...)
		intPart = intPart[:len(intPart)-3]
	}
	grouped = append([]string{intPart}, grouped...)

	out := strings.Join(grouped, ".") + "," + parts[1]
	if neg {
		out = "-" + out
	}
	return out
}

// turkishDate converts ISO YYYY-MM-DD back to the DD-MM-YYYY form the
// localized document shape uses.
func turkishDate(iso string) string {
	parts := strings.Split(iso, "-")
	if len(parts) != 3 {
		return iso
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}
