package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

var abbreviationExpand = strings.NewReplacer(
	"Mah.", "Mahallesi", "mah.", "Mahallesi",
	"Cad.", "Caddesi", "cad.", "Caddesi",
	"Sok.", "Sokak", "sok.", "Sokak",
	"Blv.", "Bulvarı", "blv.", "Bulvarı",
)

var (
	districtCityRe    = regexp.MustCompile(`([\p{L} .]+?)\s*/\s*([\p{L}]+)\s*$`)
	houseNumberPartRe = regexp.MustCompile(`(?i)\bNo\s*[:.]?\s*(\d+[A-Za-z]?(?:/\d+)?)`)
	streetPartRe      = regexp.MustCompile(`(?i)([\p{L}\d .]+?(?:Mahallesi|Caddesi|Bulvar[ıi]|Soka[ğg][ıi]|Sokak))`)
	postalTailRe      = regexp.MustCompile(`\b\d{5}\b`)
)

// ParseAddressComponents splits a cleaned Turkish address into the
// structured parts a geocoding request wants. The trailing
// "district/CITY" pair is the most reliable anchor, so it is pulled
// off first and the street is read from what remains.
func ParseAddressComponents(addr string) dto.AddressComponents {
	comp := dto.AddressComponents{Country: "Türkiye"}
	addr = abbreviationExpand.Replace(strings.TrimSpace(addr))
	if addr == "" {
		return comp
	}

	if m := districtCityRe.FindStringSubmatch(addr); m != nil {
		comp.District = strings.TrimSpace(postalTailRe.ReplaceAllString(m[1], ""))
		comp.City = titleTR(strings.TrimSpace(m[2]))
		addr = strings.TrimSpace(addr[:len(addr)-len(m[0])])
	}

	if m := houseNumberPartRe.FindStringSubmatch(addr); m != nil {
		comp.HouseNumber = m[1]
	}

	if m := streetPartRe.FindStringSubmatch(addr); m != nil {
		comp.Street = strings.TrimSpace(m[1])
	} else if addr != "" {
		// No street token survived; keep the leading fragment so the
		// geocoder still has something local to pin on.
		fields := strings.Fields(addr)
		if len(fields) > 6 {
			fields = fields[:6]
		}
		comp.Street = strings.Join(fields, " ")
	}
	return comp
}

// titleTR renders an all-caps city tail ("ANKARA") in title case with
// Turkish casing rules.
func titleTR(s string) string {
	return cases.Title(language.Turkish).String(s)
}
