package client

import (
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

// QRDecoder reads the machine-readable payload printed on e-Arşiv
// invoices. The QR carries a JSON object with the issuer VKN, invoice
// number, date and totals.
type QRDecoder struct{}

func NewQRDecoder() *QRDecoder {
	return &QRDecoder{}
}

// DecodeInvoiceQR scans one page image for an invoice QR code and
// unmarshals its payload. Returns nil without error when the image
// has no QR at all.
func (d *QRDecoder) DecodeInvoiceQR(img image.Image) (*dto.QRInvoiceData, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to create bitmap: %w", err)
	}

	reader := qrcode.NewQRCodeReader()
	result, err := reader.Decode(bmp, nil)
	if err != nil {
		// NotFoundException just means no QR on this page.
		return nil, nil
	}

	payload := strings.TrimSpace(result.GetText())
	if !strings.HasPrefix(payload, "{") {
		return nil, nil
	}

	var data dto.QRInvoiceData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("failed to parse QR payload: %w", err)
	}
	return &data, nil
}

// DecodeFirst scans a set of page images and returns the first
// decodable invoice QR.
func (d *QRDecoder) DecodeFirst(images []image.Image) *dto.QRInvoiceData {
	for _, img := range images {
		data, err := d.DecodeInvoiceQR(img)
		if err == nil && data != nil {
			return data
		}
	}
	return nil
}
