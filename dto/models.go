package dto

// TableGrid is a rectangular grid of string cells handed over by the
// file-format readers. Blank cells are empty strings. The first row is
// usually, but not always, a column header.
type TableGrid [][]string

// Party holds the extracted identity of one invoice participant.
// Coordinates appear only when geocoding enrichment is configured.
type Party struct {
	Name        string         `json:"name"`
	TaxID       string         `json:"tax_id"`
	Address     string         `json:"address"`
	Coordinates *GeocodeResult `json:"coordinates,omitempty"`
}

// LineItem represents one billed item or service row.
// All numeric fields are kept as strings: either the normalized decimal
// form produced by the engine or empty when the source had nothing.
type LineItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	UnitPrice   string `json:"unit_price"`
	TaxRate     string `json:"tax_rate"`
	Amount      string `json:"amount"`
}

// InvoiceRecord is the structured output of one extraction run.
// Money fields, when present, are decimal strings with '.' as the
// separator regardless of the input locale.
type InvoiceRecord struct {
	InvoiceNumber  string     `json:"invoice_number"`
	InvoiceDate    string     `json:"invoice_date"`
	Vendor         Party      `json:"vendor"`
	Customer       Party      `json:"customer"`
	LineItems      []LineItem `json:"line_items"`
	Subtotal       string     `json:"subtotal"`
	TaxAmount      string     `json:"tax_amount"`
	TaxRate        string     `json:"tax_rate,omitempty"`
	TotalAmount    string     `json:"total_amount"`
	WithholdingTax string     `json:"withholding_tax,omitempty"`
	Currency       string     `json:"currency,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// Correspondent is one entry of the known-correspondent fallback table:
// a recurring organization whose canonical address and coordinates are
// applied when extraction finds nothing usable for that party.
type Correspondent struct {
	Keywords []string `json:"keywords"`
	Party    string   `json:"party"` // "vendor" or "customer"
	Address  string   `json:"address"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
}

// AddressComponents is the structured form handed to the geocoding
// collaborator.
type AddressComponents struct {
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	District    string `json:"district"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

// GeocodeResult is the collaborator's answer for one address.
type GeocodeResult struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
	Confidence       float64 `json:"confidence"`
	IsPerfect        bool    `json:"is_perfect"`
}

// QRInvoiceData is the payload of the QR code printed on e-Arşiv
// invoices. Only the fields the engine cross-checks are mapped.
type QRInvoiceData struct {
	VKN         string `json:"vkn"`
	ReceiverVKN string `json:"avkn"`
	Date        string `json:"tarih"`
	Number      string `json:"no"`
	Total       string `json:"toplam"`
	Tax         string `json:"kdvtoplam"`
}
