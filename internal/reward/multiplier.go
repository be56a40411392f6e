package reward

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultMultiplier is used whenever multiplier text cannot be resolved.
const DefaultMultiplier = 1.0

var firstNumberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseMultiplier resolves free-form multiplier text in this order:
//
//	"10X", "10x"      -> strip the x, parse the rest (10)
//	"5%"              -> strip the %, parse the rest (5, used as-is)
//	"2 travel credits" -> first number anywhere in the text (2)
//
// Anything that does not parse yields DefaultMultiplier, so malformed card
// terms never abort a scoring pass.
func ParseMultiplier(raw string) float64 {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)

	switch {
	case strings.Contains(lower, "x"):
		return parseOrDefault(strings.ReplaceAll(lower, "x", ""))
	case strings.Contains(lower, "%"):
		return parseOrDefault(strings.ReplaceAll(lower, "%", ""))
	default:
		m := firstNumberRe.FindString(lower)
		if m == "" {
			return DefaultMultiplier
		}
		return parseOrDefault(m)
	}
}

func parseOrDefault(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultMultiplier
	}
	return v
}
