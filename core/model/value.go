package model

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindNull marks a cell with no data (absent column or empty source cell).
	KindNull Kind = iota
	// KindText is a raw textual cell.
	KindText
	// KindNumber is a computed numeric cell.
	KindNumber
	// KindNotApplicable marks a derived cell that does not apply to the row,
	// e.g. the fixed cost of a SPOT vehicle.
	KindNotApplicable
	// KindUnknown marks an enrichment lookup that was attempted and missed.
	KindUnknown
)

// Output tags rendered for the non-data variants.
const (
	NotApplicableTag = "N/A"
	UnknownTag       = "UNKNOWN"
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindNotApplicable:
		return "not_applicable"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Value is a nullable cell. The zero value is Null.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Null returns the empty cell.
func Null() Value { return Value{} }

// Text wraps raw cell content. Blank strings collapse to Null.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// Number wraps a computed numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// NotApplicable returns the "does not apply" marker.
func NotApplicable() Value { return Value{kind: KindNotApplicable} }

// Unknown returns the "looked up, not found" marker.
func Unknown() Value { return Value{kind: KindUnknown} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v holds no data.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Raw returns the textual content for text cells and "" otherwise.
func (v Value) Raw() string {
	if v.kind == KindText {
		return v.text
	}
	return ""
}

// Float interprets v as a number. Text cells are parsed leniently so that
// "1.234,56", "1,234.56" and " 120 " are all accepted.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		return ParseNumber(v.text)
	default:
		return 0, false
	}
}

// String renders the cell as it appears in an output artifact.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindNotApplicable:
		return NotApplicableTag
	case KindUnknown:
		return UnknownTag
	default:
		return ""
	}
}

// Equal reports whether both values hold the same variant and content.
func (v Value) Equal(o Value) bool { return v == o }

// ParseNumber parses a spreadsheet number written with either decimal
// convention. Currency symbols and surrounding spaces are ignored.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
