package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

func TestExtractLineItemsFromGrid(t *testing.T) {
	grid := dto.TableGrid{
		[]string{"Açıklama", "Miktar", "Birim", "Birim Fiyat", "KDV", "Tutar"},
		[]string{"Widget", "2", "ADET", "50,00", "%18", "100,00"},
		[]string{"Danışmanlık Hizmeti", "3", "SAAT", "1.200,00", "%20", "3.600,00"},
	}

	items := ExtractLineItems([]dto.TableGrid{grid}, "", "18")

	assert.Len(t, items, 2)
	assert.Equal(t, "Widget", items[0].Description)
	assert.Equal(t, "2", items[0].Quantity)
	assert.Equal(t, "ADET", items[0].Unit)
	assert.Equal(t, "50.00", items[0].UnitPrice)
	assert.Equal(t, "18.0", items[0].TaxRate)
	assert.Equal(t, "100.00", items[0].Amount)
	assert.Equal(t, "3600.00", items[1].Amount)
	assert.Equal(t, "20.0", items[1].TaxRate)
}

func TestExtractLineItemsCorruptedHeader(t *testing.T) {
	grid := dto.TableGrid{
		[]string{"Acnklama", "Mnktar", "Tutar"},
		[]string{"Hizmet Bedeli", "1", "500,00"},
	}

	items := ExtractLineItems([]dto.TableGrid{grid}, "", "18")

	assert.Len(t, items, 1)
	assert.Equal(t, "Hizmet Bedeli", items[0].Description)
	assert.Equal(t, "500.00", items[0].Amount)
}

func TestExtractLineItemsGridDefaults(t *testing.T) {
	grid := dto.TableGrid{
		[]string{"Açıklama", "Tutar"},
		[]string{"Bakım Hizmeti", "250,00"},
	}

	items := ExtractLineItems([]dto.TableGrid{grid}, "", "18")

	assert.Len(t, items, 1)
	assert.Equal(t, "1", items[0].Quantity)
	assert.Equal(t, "ADET", items[0].Unit)
	assert.Empty(t, items[0].TaxRate)
}

func TestExtractLineItemsSkipsEmptyAndEchoRows(t *testing.T) {
	grid := dto.TableGrid{
		[]string{"Açıklama", "Tutar"},
		[]string{"", ""},
		[]string{"Toplam", "750,00"},
		[]string{"Gerçek Kalem", "750,00"},
	}

	items := ExtractLineItems([]dto.TableGrid{grid}, "", "18")

	assert.Len(t, items, 1)
	assert.Equal(t, "Gerçek Kalem", items[0].Description)
}

func TestExtractLineItemsFromText(t *testing.T) {
	text := `FATURA
Widget 2 ADET 50,00 %18 100,00
Bakım Sözleşmesi 1 ADET 1.500,00 %20 1.500,00
TOPLAM 1.600,00`

	items := ExtractLineItems(nil, text, "18")

	assert.Len(t, items, 2)
	assert.Equal(t, "Widget", items[0].Description)
	assert.Equal(t, "2", items[0].Quantity)
	assert.Equal(t, "100.00", items[0].Amount)
	assert.Equal(t, "1500.00", items[1].UnitPrice)
}

func TestExtractLineItemsTextContinuation(t *testing.T) {
	text := `Sunucu Barındırma 1 ADET 900,00 %18 900,00
ikinci satıra taşan açıklama
TOPLAM 900,00`

	items := ExtractLineItems(nil, text, "18")

	assert.Len(t, items, 1)
	assert.Equal(t, "Sunucu Barındırma ikinci satıra taşan açıklama", items[0].Description)
}

func TestValidateLineItems(t *testing.T) {
	items := []dto.LineItem{
		{Description: "Gerçek Ürün"},
		{Description: "1.500,00"},
		{Description: "₺250,00 TL"},
		{Description: ""},
	}

	out := ValidateLineItems(items)

	assert.Equal(t, "Gerçek Ürün", out[0].Description)
	assert.Equal(t, "Ürün 2", out[1].Description)
	assert.Equal(t, "Ürün 3", out[2].Description)
	assert.Equal(t, "Ürün 4", out[3].Description)
}
