package insurance

import (
	"strconv"
	"strings"
)

type zipRange struct {
	lo, hi int
	state  string
}

// zipPrefixes maps USPS three-digit zip prefixes to states. Order matters
// where ranges overlap: the first match wins.
var zipPrefixes = []zipRange{
	{6, 9, "PR"},
	{10, 27, "MA"},
	{28, 29, "RI"},
	{30, 39, "NH"},
	{39, 49, "ME"},
	{50, 59, "VT"},
	{60, 69, "CT"},
	{70, 89, "NJ"},
	{100, 149, "NY"},
	{197, 199, "DE"},
	{150, 196, "PA"},
	{200, 205, "DC"},
	{206, 219, "MD"},
	{220, 246, "VA"},
	{247, 269, "WV"},
	{270, 289, "NC"},
	{290, 299, "SC"},
	{300, 319, "GA"},
	{320, 349, "FL"},
	{350, 369, "AL"},
	{370, 389, "TN"},
	{390, 399, "MS"},
	{400, 429, "KY"},
	{430, 459, "OH"},
	{460, 479, "IN"},
	{480, 499, "MI"},
	{500, 529, "IA"},
	{530, 549, "WI"},
	{550, 569, "MN"},
	{570, 579, "SD"},
	{580, 589, "ND"},
	{590, 599, "MT"},
	{600, 629, "IL"},
	{630, 659, "MO"},
	{660, 679, "KS"},
	{680, 699, "NE"},
	{700, 715, "LA"},
	{716, 729, "AR"},
	{730, 749, "OK"},
	{750, 799, "TX"},
	{800, 819, "CO"},
	{820, 831, "WY"},
	{832, 839, "ID"},
	{840, 849, "UT"},
	{850, 869, "AZ"},
	{870, 889, "NM"},
	{890, 899, "NV"},
	{900, 966, "CA"},
	{967, 968, "HI"},
	{969, 969, "CA"},
	{970, 979, "OR"},
	{980, 994, "WA"},
	{995, 999, "AK"},
}

// StateFromZip resolves a US zip code to its state by prefix. Non-digit
// characters are ignored; fewer than three digits or an unassigned prefix
// reports false.
func StateFromZip(zip string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, zip)
	if len(digits) < 3 {
		return "", false
	}
	prefix, err := strconv.Atoi(digits[:3])
	if err != nil {
		return "", false
	}
	for _, z := range zipPrefixes {
		if prefix >= z.lo && prefix <= z.hi {
			return z.state, true
		}
	}
	return "", false
}
