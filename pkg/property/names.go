package property

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeName folds a trait or column name for loose matching: case
// folded, with underscores, hyphens and runs of whitespace collapsed to a
// single space. "Yield_Strength" and "yield strength" normalize equally.
func NormalizeName(name string) string {
	folded := cases.Fold().String(name)
	folded = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}
