package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/kemalcanokcan/efatura-extractor/client"
	"github.com/kemalcanokcan/efatura-extractor/dto"
	"github.com/kemalcanokcan/efatura-extractor/utils"
)

// Text shorter than this, or scoring below the quality floor, sends
// the document through the OCR fallback.
const (
	minTextLength       = 20
	textQualityFloor    = 30.0
	invoiceKeywordScore = 6.67
	minOCRConfidence    = 30.0
)

type ExtractService struct {
	pdfProcessor PDFProcessor
	ocrClient    *client.TesseractClient
	qrDecoder    *client.QRDecoder
	geocoder     client.Geocoder
	parseOpts    utils.Options
}

func NewExtractService(pdfProcessor PDFProcessor, ocrClient *client.TesseractClient, qrDecoder *client.QRDecoder, geocoder client.Geocoder, parseOpts utils.Options) *ExtractService {
	return &ExtractService{
		pdfProcessor: pdfProcessor,
		ocrClient:    ocrClient,
		qrDecoder:    qrDecoder,
		geocoder:     geocoder,
		parseOpts:    parseOpts,
	}
}

// ProcessDocument runs the full pipeline for one uploaded file:
// format dispatch, text and table extraction, OCR fallback for
// scanned PDFs, parsing and XML rendering.
func (s *ExtractService) ProcessDocument(ctx context.Context, filename string, data []byte) (*dto.ExtractResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		rec    dto.InvoiceRecord
		source string
		err    error
	)
	switch ext {
	case ".pdf":
		rec, source, err = s.extractFromPDF(data)
	case ".txt":
		rec, err = utils.ParseInvoice(string(data), nil, s.parseOpts)
		source = "text"
	case ".json":
		rec, err = s.extractFromJSON(data)
		source = "json"
	case ".csv":
		rec, err = s.extractFromCSV(data)
		source = "csv"
	default:
		return nil, dto.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	s.enrichAddresses(ctx, &rec)

	invoiceXML, err := BuildInvoiceXML(rec)
	if err != nil {
		return nil, err
	}

	return &dto.ExtractResponse{
		Invoice:     rec,
		InvoiceXML:  invoiceXML,
		EFaturaXML:  BuildEFaturaXML(rec),
		Source:      source,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// Extract is the pure path: already-extracted text and grids in, a
// parsed record out. Handy for callers that do their own document
// handling.
func (s *ExtractService) Extract(text string, grids []dto.TableGrid) (dto.InvoiceRecord, error) {
	return utils.ParseInvoice(text, grids, s.parseOpts)
}

func (s *ExtractService) extractFromPDF(data []byte) (dto.InvoiceRecord, string, error) {
	text, err := s.pdfProcessor.ExtractText(data)
	if err != nil {
		log.Printf("pdf text extraction failed, trying OCR: %v", err)
	}

	grids, gridErr := s.pdfProcessor.ExtractTables(data)
	if gridErr != nil {
		log.Printf("pdf table extraction failed: %v", gridErr)
	}

	source := "pdf"
	var qrData *dto.QRInvoiceData

	if evaluateTextQuality(text) < textQualityFloor {
		images, imgErr := s.pdfProcessor.ExtractImages(data, "")
		if imgErr != nil {
			log.Printf("pdf image extraction failed: %v", imgErr)
		}
		if ocrText := s.ocrImages(images); len(strings.TrimSpace(ocrText)) > len(strings.TrimSpace(text)) {
			text = ocrText
			source = "pdf+ocr"
		}
		if s.qrDecoder != nil {
			qrData = s.qrDecoder.DecodeFirst(images)
		}
	}

	rec, err := utils.ParseInvoice(text, grids, s.parseOpts)
	if err != nil {
		// A scanned page can defeat both text extraction and OCR while
		// its e-Arşiv QR code still decodes cleanly. The QR carries the
		// invoice number, date, tax IDs and totals, which is enough to
		// return a record instead of failing.
		if errors.Is(err, dto.ErrNoContent) && qrData != nil {
			rec = dto.InvoiceRecord{}
			mergeQRData(&rec, qrData)
			return rec, "qr", nil
		}
		return dto.InvoiceRecord{}, source, err
	}
	if qrData != nil {
		mergeQRData(&rec, qrData)
	}
	return rec, source, nil
}

// ocrImages runs per-page OCR, dropping pages whose recognition
// confidence is too low to produce usable patterns.
func (s *ExtractService) ocrImages(images []image.Image) string {
	if s.ocrClient == nil {
		return ""
	}
	var parts []string
	for _, img := range images {
		text, confidence, err := s.ocrClient.ExtractTextFromImage(img)
		if err != nil {
			log.Printf("OCR failed on page image: %v", err)
			continue
		}
		if confidence > 0 && confidence < minOCRConfidence {
			log.Printf("Skipping low-confidence OCR page (%.1f)", confidence)
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}

// evaluateTextQuality scores extracted text by length and by how many
// invoice markers it carries. Scanned PDFs typically come back with a
// handful of stray glyphs and score near zero.
func evaluateTextQuality(text string) float64 {
	text = strings.TrimSpace(text)
	if len(text) < minTextLength {
		return 0
	}

	score := 0.0
	switch {
	case len(text) > 1000:
		score += 40
	case len(text) > 300:
		score += 25
	default:
		score += 10
	}

	keywords := []string{"fatura", "kdv", "toplam", "tutar", "vkn", "tarih", "adet", "invoice"}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			score += invoiceKeywordScore
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

// mergeQRData fills record fields the pattern pass missed. QR values
// never override a field the document text already produced.
func mergeQRData(rec *dto.InvoiceRecord, qr *dto.QRInvoiceData) {
	if rec.InvoiceNumber == "" && qr.Number != "" {
		rec.InvoiceNumber = qr.Number
	}
	if rec.InvoiceDate == "" && qr.Date != "" {
		rec.InvoiceDate = utils.NormalizeDate(qr.Date)
	}
	if rec.Vendor.TaxID == "" && qr.VKN != "" {
		rec.Vendor.TaxID = qr.VKN
	}
	if rec.Customer.TaxID == "" && qr.ReceiverVKN != "" {
		rec.Customer.TaxID = qr.ReceiverVKN
	}
	if rec.TotalAmount == "" && qr.Total != "" {
		rec.TotalAmount = utils.CleanNumber(qr.Total)
	}
	if rec.TaxAmount == "" && qr.Tax != "" {
		rec.TaxAmount = utils.CleanNumber(qr.Tax)
	}
}

// enrichAddresses attaches coordinates when a geocoder is configured;
// a perfect hit also replaces the raw text with the canonical
// formatted address. Known correspondents keep their fixed
// coordinates when the geocoder comes up empty.
func (s *ExtractService) enrichAddresses(ctx context.Context, rec *dto.InvoiceRecord) {
	if s.geocoder == nil {
		return
	}
	for _, p := range []*dto.Party{&rec.Vendor, &rec.Customer} {
		if p.Address == "" {
			continue
		}
		comp := utils.ParseAddressComponents(p.Address)
		result, err := s.geocoder.Geocode(ctx, comp, p.Name)
		if err != nil {
			log.Printf("geocoding failed for %q: %v", p.Name, err)
			result = nil
		}
		if result == nil {
			if c := utils.FindCorrespondent(p.Name, s.parseOpts.Correspondents); c != nil && c.Lat != 0 {
				result = &dto.GeocodeResult{
					Lat:              c.Lat,
					Lng:              c.Lng,
					FormattedAddress: c.Address,
					Confidence:       0.5,
				}
			}
		}
		if result == nil {
			continue
		}
		p.Coordinates = result
		if result.IsPerfect {
			p.Address = result.FormattedAddress
		}
	}
}

// JSON exports from accounting systems use inconsistent field names;
// the alias table maps the ones seen in the wild onto the record.
var jsonFieldAliases = map[string][]string{
	"invoice_number": {"fatura_no", "fatura_numarasi", "invoice_number", "invoice_no", "belge_no", "no"},
	"invoice_date":   {"fatura_tarihi", "tarih", "invoice_date", "date", "duzenleme_tarihi"},
	"vendor_name":    {"satici", "satici_unvan", "satici_adi", "vendor", "seller", "supplier"},
	"vendor_vkn":     {"satici_vkn", "vkn", "vendor_vkn", "seller_tax_id"},
	"customer_name":  {"alici", "alici_unvan", "alici_adi", "musteri", "customer", "buyer"},
	"customer_vkn":   {"alici_vkn", "customer_vkn", "buyer_tax_id"},
	"subtotal":       {"ara_toplam", "mal_hizmet_toplam", "subtotal"},
	"tax_amount":     {"kdv", "kdv_tutari", "hesaplanan_kdv", "tax_amount", "vat_amount"},
	"tax_rate":       {"kdv_orani", "tax_rate", "vat_rate"},
	"total":          {"genel_toplam", "odenecek_tutar", "toplam", "total", "total_amount", "grand_total"},
	"currency":       {"para_birimi", "currency", "doviz"},
}

var jsonItemAliases = map[string][]string{
	"description": {"aciklama", "urun", "mal_hizmet", "description", "name"},
	"quantity":    {"miktar", "adet", "quantity", "qty"},
	"unit":        {"birim", "unit"},
	"unit_price":  {"birim_fiyat", "fiyat", "unit_price", "price"},
	"tax_rate":    {"kdv_orani", "kdv", "tax_rate", "vat"},
	"amount":      {"tutar", "toplam", "amount", "total"},
}

func (s *ExtractService) extractFromJSON(data []byte) (dto.InvoiceRecord, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return dto.InvoiceRecord{}, fmt.Errorf("failed to parse json document: %w", err)
	}
	if len(raw) == 0 {
		return dto.InvoiceRecord{}, dto.ErrNoContent
	}

	normalized := normalizeKeys(raw)
	var rec dto.InvoiceRecord
	rec.InvoiceNumber = aliasValue(normalized, jsonFieldAliases["invoice_number"])
	if v := aliasValue(normalized, jsonFieldAliases["invoice_date"]); v != "" {
		rec.InvoiceDate = utils.NormalizeDate(v)
	}
	rec.Vendor.Name = aliasValue(normalized, jsonFieldAliases["vendor_name"])
	rec.Vendor.TaxID = aliasValue(normalized, jsonFieldAliases["vendor_vkn"])
	rec.Customer.Name = aliasValue(normalized, jsonFieldAliases["customer_name"])
	rec.Customer.TaxID = aliasValue(normalized, jsonFieldAliases["customer_vkn"])
	rec.Currency = aliasValue(normalized, jsonFieldAliases["currency"])

	extracted := utils.Totals{
		Subtotal:  cleanIfSet(aliasValue(normalized, jsonFieldAliases["subtotal"])),
		TaxAmount: cleanIfSet(aliasValue(normalized, jsonFieldAliases["tax_amount"])),
		Total:     cleanIfSet(aliasValue(normalized, jsonFieldAliases["total"])),
	}
	rec.TaxRate = utils.ParseVATRate(aliasValue(normalized, jsonFieldAliases["tax_rate"]), s.parseOpts.DefaultVATRate)
	rec.LineItems = utils.ValidateLineItems(jsonItems(normalized, s.parseOpts.DefaultVATRate))

	totals := utils.ReconcileTotals(rec.LineItems, extracted, rec.TaxRate)
	rec.Subtotal = totals.Subtotal
	rec.TaxAmount = totals.TaxAmount
	rec.TotalAmount = totals.Total
	return rec, nil
}

func normalizeKeys(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		key = strings.NewReplacer(" ", "_", "-", "_", "ı", "i", "ş", "s", "ç", "c", "ö", "o", "ü", "u", "ğ", "g").Replace(key)
		out[key] = v
	}
	return out
}

func aliasValue(m map[string]any, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := m[alias]; ok {
			return stringValue(v)
		}
	}
	return ""
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	}
	return ""
}

func cleanIfSet(v string) string {
	if v == "" {
		return ""
	}
	return utils.CleanNumber(v)
}

func jsonItems(m map[string]any, defaultVATRate string) []dto.LineItem {
	var rawItems []any
	for _, key := range []string{"kalemler", "satirlar", "items", "lines", "line_items"} {
		if v, ok := m[key].([]any); ok {
			rawItems = v
			break
		}
	}

	var items []dto.LineItem
	for _, rawItem := range rawItems {
		fields, ok := rawItem.(map[string]any)
		if !ok {
			continue
		}
		normalized := normalizeKeys(fields)
		item := dto.LineItem{
			Description: aliasValue(normalized, jsonItemAliases["description"]),
			Quantity:    cleanIfSet(aliasValue(normalized, jsonItemAliases["quantity"])),
			Unit:        aliasValue(normalized, jsonItemAliases["unit"]),
			UnitPrice:   cleanIfSet(aliasValue(normalized, jsonItemAliases["unit_price"])),
			Amount:      cleanIfSet(aliasValue(normalized, jsonItemAliases["amount"])),
		}
		if v := aliasValue(normalized, jsonItemAliases["tax_rate"]); v != "" {
			item.TaxRate = utils.ParseVATRate(v, defaultVATRate)
		}
		if item.Quantity == "" {
			item.Quantity = "1"
		}
		if item.Unit == "" {
			item.Unit = "ADET"
		}
		items = append(items, item)
	}
	return items
}

// extractFromCSV reads the rows as one table grid and hands it to the
// regular table pipeline. The delimiter is sniffed from the header
// line; Turkish exports favor semicolons.
func (s *ExtractService) extractFromCSV(data []byte) (dto.InvoiceRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return dto.InvoiceRecord{}, fmt.Errorf("failed to parse csv document: %w", err)
	}
	if len(rows) == 0 {
		return dto.InvoiceRecord{}, dto.ErrNoContent
	}

	grid := make(dto.TableGrid, len(rows))
	for i, row := range rows {
		grid[i] = row
	}
	return utils.ParseInvoice("", []dto.TableGrid{grid}, s.parseOpts)
}

func sniffDelimiter(data []byte) rune {
	firstLine := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		return ';'
	}
	return ','
}
