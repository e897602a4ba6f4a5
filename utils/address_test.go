package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

func TestExtractAddresses(t *testing.T) {
	opts := DefaultOptions()
	vendor := dto.Party{Name: "ACME YAZILIM SANAYİ VE TİCARET LTD. ŞTİ."}
	customer := dto.Party{Name: "DEVLET MALZEME OFİSİ GENEL MÜDÜRLÜĞÜ"}

	vendorAddr, customerAddr := ExtractAddresses(sampleInvoiceText, vendor, customer, opts.Correspondents)

	assert.Contains(t, vendorAddr, "Kızılay Mahallesi")
	assert.Contains(t, vendorAddr, "06420")
	assert.Contains(t, customerAddr, "İnönü Bulvarı")
	assert.Contains(t, customerAddr, "06570")
}

func TestExtractAddressesCorrespondentFallback(t *testing.T) {
	opts := DefaultOptions()
	text := `SATICI: ACME LTD. ŞTİ.
Kızılay Mahallesi Atatürk Caddesi No: 5 06420 Çankaya/ANKARA
SAYIN DEVLET MALZEME OFİSİ GENEL MÜDÜRLÜĞÜ`
	customer := dto.Party{Name: "DEVLET MALZEME OFİSİ GENEL MÜDÜRLÜĞÜ"}

	_, customerAddr := ExtractAddresses(text, dto.Party{Name: "ACME LTD. ŞTİ."}, customer, opts.Correspondents)

	assert.Contains(t, customerAddr, "İnönü Bulvarı")
}

func TestExtractAddressesCorrespondentKeywordsBeatPosition(t *testing.T) {
	correspondents := []dto.Correspondent{
		{Keywords: []string{"ETİ MADEN"}, Party: "customer"},
		{Keywords: []string{"ACME"}, Party: "vendor"},
	}
	// Customer address first: document order must not decide.
	text := `ETİ MADEN İŞLETMELERİ Ayvalı Mahallesi Afra Sokak No: 1 Keçiören/ANKARA
çok satır dolgu metni
daha fazla dolgu metni
ACME binası Kızılay Mahallesi Atatürk Caddesi No: 12 06420 Çankaya/ANKARA`

	vendorAddr, customerAddr := ExtractAddresses(text,
		dto.Party{Name: "ACME LTD."}, dto.Party{Name: "ETİ MADEN İŞLETMELERİ"}, correspondents)

	assert.Contains(t, customerAddr, "Ayvalı Mahallesi")
	assert.Contains(t, vendorAddr, "Kızılay Mahallesi")
}

func TestFindCorrespondent(t *testing.T) {
	table := DefaultOptions().Correspondents

	c := FindCorrespondent("DEVLET MALZEME OFİSİ GENEL MÜDÜRLÜĞÜ", table)
	assert.NotNil(t, c)
	assert.Equal(t, "customer", c.Party)

	assert.Nil(t, FindCorrespondent("BİLİNMEYEN FİRMA", table))
	assert.Nil(t, FindCorrespondent("", table))
}

func TestScoreCandidates(t *testing.T) {
	full := &addressCandidate{text: "Kızılay Mahallesi Atatürk Caddesi No: 12 06420 Çankaya/ANKARA"}
	weak := &addressCandidate{text: "Çankaya 06420"}

	scoreCandidates([]*addressCandidate{full, weak})

	// postal + neighborhood + street type + house number + length
	assert.Equal(t, 9, full.score)
	assert.Greater(t, full.score, weak.score)
}

func TestBestForPrefersTies(t *testing.T) {
	first := &addressCandidate{text: "a", party: "vendor", score: 4}
	second := &addressCandidate{text: "b", party: "vendor", score: 4}
	assert.Equal(t, "a", bestFor([]*addressCandidate{first, second}, "vendor"))
}

func TestCleanAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Label prefix", "ADRES: Kızılay Mahallesi No: 3", "Kızılay Mahallesi No: 3"},
		{"Glued digits", "Atatürk Caddesi5 Ankara", "Atatürk Caddesi 5 Ankara"},
		{"Whitespace collapse", "Kızılay   Mahallesi \n No: 3", "Kızılay Mahallesi No: 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanAddress(tt.input))
		})
	}
}

func TestParseAddressComponents(t *testing.T) {
	comp := ParseAddressComponents("Kızılay Mahallesi Atatürk Bulvarı No: 12 06420 Çankaya/ANKARA")

	assert.Equal(t, "Çankaya", comp.District)
	assert.Equal(t, "Ankara", comp.City)
	assert.Equal(t, "12", comp.HouseNumber)
	assert.Contains(t, comp.Street, "Kızılay Mahallesi")
	assert.Equal(t, "Türkiye", comp.Country)
}

func TestParseAddressComponentsAbbreviations(t *testing.T) {
	comp := ParseAddressComponents("Ayvalı Mah. Afra Sok. No: 1 Keçiören/ANKARA")

	assert.Contains(t, comp.Street, "Mahallesi")
	assert.Equal(t, "Keçiören", comp.District)
}

func TestParseAddressComponentsEmpty(t *testing.T) {
	comp := ParseAddressComponents("")
	assert.Empty(t, comp.Street)
	assert.Equal(t, "Türkiye", comp.Country)
}
