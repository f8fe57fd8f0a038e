package parser

import (
	"math"
	"strconv"
	"strings"
)

// NumberFormat describes how numeric element content is written upstream.
// It is always passed explicitly so parsing never depends on process locale.
type NumberFormat struct {
	DecimalSeparator rune
}

// InvariantNumberFormat uses '.' as decimal separator and no digit grouping
var InvariantNumberFormat = NumberFormat{DecimalSeparator: '.'}

// ParseFloat parses s, reporting false for anything that is not a finite number
func (f NumberFormat) ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f.DecimalSeparator != 0 && f.DecimalSeparator != '.' {
		if strings.ContainsRune(s, '.') {
			return 0, false
		}
		s = strings.ReplaceAll(s, string(f.DecimalSeparator), ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseInt parses s as a base-10 integer
func (f NumberFormat) ParseInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return v, true
}
