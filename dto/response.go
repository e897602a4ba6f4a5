package dto

import "errors"

// Custom errors
var (
	// ErrNoContent signals that no extractable text was found in the
	// document. This is the only hard failure: everything else degrades
	// to empty fields.
	ErrNoContent = errors.New("no text content could be extracted from the document")

	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ExtractResponse is the final response structure
type ExtractResponse struct {
	Invoice     InvoiceRecord `json:"invoice"`
	InvoiceXML  string        `json:"invoice_xml"`
	EFaturaXML  string        `json:"efatura_xml"`
	Source      string        `json:"source"` // "pdf", "pdf+ocr", "qr", "text", "json", "csv"
	ProcessedAt string        `json:"processed_at"`
}
