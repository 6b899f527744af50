package lookup

import (
	"regexp"
	"strings"
)

// Fuel-type tokens that upstreams embed redundantly inside variant
// strings. Matched case-insensitively at either end of the variant.
var fuelTokens = map[string]bool{
	"DIESEL":   true,
	"PETROL":   true,
	"ELECTRIC": true,
	"HYBRID":   true,
	"PHEV":     true,
	"HEV":      true,
	"MHEV":     true,
	"GAS":      true,
	"LPG":      true,
}

var yearToken = regexp.MustCompile(`^\d{4}$`)

func standardizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanVariant strips redundant tokens out of a raw variant string: a
// leading 4-digit year, a leading exact make-name match, and any
// leading or trailing fuel-type tokens. Internal whitespace collapses
// to single spaces.
func CleanVariant(variant, make string) string {
	fields := strings.Fields(variant)

	// Leading year token, e.g. "2017 ZETEC".
	if len(fields) > 0 && yearToken.MatchString(fields[0]) {
		fields = fields[1:]
	}

	// Leading make, which may itself be multi-word ("LAND ROVER").
	makeFields := strings.Fields(make)
	if len(makeFields) > 0 && len(fields) >= len(makeFields) {
		match := true
		for i, mf := range makeFields {
			if !strings.EqualFold(fields[i], mf) {
				match = false
				break
			}
		}
		if match {
			fields = fields[len(makeFields):]
		}
	}

	// Fuel tokens at either end.
	for len(fields) > 0 && fuelTokens[strings.ToUpper(fields[0])] {
		fields = fields[1:]
	}
	for len(fields) > 0 && fuelTokens[strings.ToUpper(fields[len(fields)-1])] {
		fields = fields[:len(fields)-1]
	}

	return strings.Join(fields, " ")
}
