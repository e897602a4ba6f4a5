package utils

import (
	"regexp"
	"strings"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

// addressCandidate is internal to extraction; callers only ever see
// the winning address strings.
type addressCandidate struct {
	text  string
	pos   int    // byte offset in the document text
	party string // "vendor", "customer" or "" when undecided
	score int
}

// Candidate patterns, most specific first. Each one anchors on a
// structural token of a Turkish postal address.
var addressPatterns = []*regexp.Regexp{
	// postal code, district/city tail: "... 06100 Çankaya/ANKARA"
	regexp.MustCompile(`(?im)^.{0,120}?\b\d{5}\b\s*[A-ZÇĞİÖŞÜa-zçğıöşü .]+/[A-ZÇĞİÖŞÜ]+\s*$`),
	// neighborhood + street
	regexp.MustCompile(`(?im)^.*?(?:Mahallesi|Mah\.?)\s+.*?(?:Caddesi|Cad\.?|Bulvar[ıi]|Soka[ğg][ıi]|Sok\.?).*$`),
	// street + house number
	regexp.MustCompile(`(?im)^.*?(?:Caddesi|Cad\.?|Bulvar[ıi]|Soka[ğg][ıi]|Sok\.?)\s*.*?No\s*[:.]?\s*\d+.*$`),
	// anything with a neighborhood token
	regexp.MustCompile(`(?im)^.*?(?:Mahallesi|Mah\.?)\b.*$`),
	// bare postal-code lines
	regexp.MustCompile(`(?im)^.*\b\d{5}\b.*$`),
}

var (
	postalCodeRe  = regexp.MustCompile(`\b\d{5}\b`)
	neighborhRe   = regexp.MustCompile(`(?i)(?:Mahallesi|Mah\.?)\b`)
	streetTypeRe  = regexp.MustCompile(`(?i)(?:Caddesi|Cad\.?|Bulvar[ıi]?|Soka[ğg][ıi]|Sokak|Sok\.?)\b`)
	houseNumberRe = regexp.MustCompile(`(?i)No\s*[:.]?\s*\d+`)
	postalStartRe = regexp.MustCompile(`^\d{5}\s+\S`)
)

var vendorKeywords = []string{"satici", "seller", "faturalayan", "sirket merkezi"}
var customerKeywords = []string{"sayin", "alici", "musteri", "buyer", "customer", "teslimat"}

// ExtractAddresses finds every address-shaped span in the document,
// assigns each to a party and returns the best-scoring address per
// side. Falls back to the known-correspondent table when a party's
// address cannot be found in the text.
func ExtractAddresses(text string, vendor, customer dto.Party, correspondents []dto.Correspondent) (vendorAddr, customerAddr string) {
	candidates := collectAddressCandidates(text)
	classifyCandidates(candidates, text, vendor, customer, correspondents)
	scoreCandidates(candidates)

	vendorAddr = bestFor(candidates, "vendor")
	customerAddr = bestFor(candidates, "customer")

	if len(vendorAddr) < 10 {
		if a := correspondentAddress(vendor.Name, correspondents); a != "" {
			vendorAddr = a
		}
	}
	if len(customerAddr) < 10 {
		if a := correspondentAddress(customer.Name, correspondents); a != "" {
			customerAddr = a
		}
	}
	return CleanAddress(vendorAddr), CleanAddress(customerAddr)
}

func collectAddressCandidates(text string) []*addressCandidate {
	var out []*addressCandidate
	seen := make(map[string]bool)
	for _, re := range addressPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			span := stitchLines(text, loc[0], loc[1])
			key := strings.Join(strings.Fields(span), " ")
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, &addressCandidate{text: span, pos: loc[0]})
		}
	}
	return out
}

// stitchLines extends a candidate that ends mid-address. PDF text
// extraction often splits one address across lines, leaving the
// postal code and city on the next line; up to three short following
// lines get folded back in.
func stitchLines(text string, start, end int) string {
	span := strings.TrimSpace(text[start:end])
	rest := text[end:]
	lines := strings.Split(rest, "\n")
	appended := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || appended >= 3 {
			break
		}
		if postalStartRe.MatchString(line) || (len(line) < 40 && streetTypeRe.MatchString(line)) {
			span += " " + line
			appended++
			continue
		}
		break
	}
	return span
}

// classifyCandidates decides which party owns each candidate, in
// priority order: known-correspondent keywords, position within the
// document, surrounding section keywords, then legal-entity hints.
// Whatever stays unassigned competes for both sides.
func classifyCandidates(cands []*addressCandidate, text string, vendor, customer dto.Party, correspondents []dto.Correspondent) {
	third := len(text) / 3
	for _, c := range cands {
		if p := correspondentParty(c.text, correspondents); p != "" {
			c.party = p
			continue
		}
		if matchesPartyName(c.text, customer.Name) {
			c.party = "customer"
			continue
		}
		if matchesPartyName(c.text, vendor.Name) {
			c.party = "vendor"
			continue
		}
		if ctx := surroundingContext(text, c.pos); ctx != "" {
			if containsAny(ctx, customerKeywords...) {
				c.party = "customer"
				continue
			}
			if containsAny(ctx, vendorKeywords...) {
				c.party = "vendor"
				continue
			}
		}
		switch {
		case c.pos < third:
			c.party = "vendor"
		case c.pos < 2*third:
			c.party = "customer"
		}
		if c.party == "" && containsAny(c.text, "genel mudurlugu", "bakanlig", "belediye") {
			c.party = "customer"
		}
	}
}

func surroundingContext(text string, pos int) string {
	start := pos - 200
	if start < 0 {
		start = 0
	}
	return text[start:pos]
}

func matchesPartyName(candidate, name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 5 {
		return false
	}
	// Compare on the first distinctive words of the name.
	words := strings.Fields(foldTR(name))
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Contains(foldTR(candidate), strings.Join(words, " "))
}

func correspondentParty(candidate string, correspondents []dto.Correspondent) string {
	folded := foldTR(candidate)
	for _, c := range correspondents {
		for _, kw := range c.Keywords {
			if strings.Contains(folded, foldTR(kw)) {
				return c.Party
			}
		}
	}
	return ""
}

func correspondentAddress(name string, correspondents []dto.Correspondent) string {
	if c := FindCorrespondent(name, correspondents); c != nil {
		return c.Address
	}
	return ""
}

// FindCorrespondent matches a party name against the known-
// correspondent table's keyword sets.
func FindCorrespondent(name string, correspondents []dto.Correspondent) *dto.Correspondent {
	folded := foldTR(name)
	if folded == "" {
		return nil
	}
	for i := range correspondents {
		for _, kw := range correspondents[i].Keywords {
			if strings.Contains(folded, foldTR(kw)) {
				return &correspondents[i]
			}
		}
	}
	return nil
}

func scoreCandidates(cands []*addressCandidate) {
	for _, c := range cands {
		if postalCodeRe.MatchString(c.text) {
			c.score += 2
		}
		if neighborhRe.MatchString(c.text) {
			c.score += 2
		}
		if streetTypeRe.MatchString(c.text) {
			c.score += 2
		}
		if houseNumberRe.MatchString(c.text) {
			c.score += 2
		}
		if len(c.text) > 30 {
			c.score++
		}
		if containsAny(c.text, append(vendorKeywords, customerKeywords...)...) {
			c.score += 3
		}
	}
}

// bestFor picks the highest-scoring candidate owned by (or shared
// with) the given party. Ties keep the earliest candidate.
func bestFor(cands []*addressCandidate, party string) string {
	var best *addressCandidate
	for _, c := range cands {
		if c.party != party && c.party != "" {
			continue
		}
		if best == nil || c.score > best.score {
			best = c
		}
	}
	if best == nil {
		return ""
	}
	return best.text
}

var (
	addrPrefixRe    = regexp.MustCompile(`(?i)^\s*(?:ADRES[İI]?|ADDRESS)\s*[:.]?\s*`)
	addrNoiseRe     = regexp.MustCompile(`(?i)(?:VERG[İI]\s*DA[İI]RES[İI]|VD|MERS[İI]S\s*NO|TEL|FAX|FAKS)\s*[:.]\s*[^\s,]+`)
	letterDigitRe   = regexp.MustCompile(`(\p{L})(\d)`)
	digitLetterRe   = regexp.MustCompile(`(\d)(\p{L}{2,})`)
	multiSpaceClean = regexp.MustCompile(`\s+`)
)

// CleanAddress strips label noise and repairs the glued tokens that
// PDF extraction produces ("Cadde5" -> "Cadde 5").
func CleanAddress(addr string) string {
	addr = addrPrefixRe.ReplaceAllString(addr, "")
	addr = addrNoiseRe.ReplaceAllString(addr, "")
	addr = letterDigitRe.ReplaceAllString(addr, "$1 $2")
	addr = digitLetterRe.ReplaceAllString(addr, "$1 $2")
	return strings.TrimSpace(multiSpaceClean.ReplaceAllString(addr, " "))
}
