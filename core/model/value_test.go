package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"120", 120, true},
		{" 120 ", 120, true},
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"12,5", 12.5, true},
		{"1.234.567", 1234567, true},
		{"R$ 10,00", 10, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-9, c.in)
		}
	}
}

func TestValueVariants(t *testing.T) {
	assert.True(t, Text("   ").IsNull())
	assert.Equal(t, "", Null().String())
	assert.Equal(t, NotApplicableTag, NotApplicable().String())
	assert.Equal(t, UnknownTag, Unknown().String())
	assert.Equal(t, "12.5", Number(12.5).String())

	// zero, not applicable and missing stay distinct
	assert.False(t, Number(0).Equal(NotApplicable()))
	assert.False(t, Number(0).Equal(Null()))
	assert.False(t, Unknown().Equal(Null()))

	_, ok := NotApplicable().Float()
	assert.False(t, ok)
	f, ok := Text("7,5").Float()
	assert.True(t, ok)
	assert.InDelta(t, 7.5, f, 1e-9)
}

func TestSchemaAndRecord(t *testing.T) {
	s := NewSchema([]Column{{Key: "A", Heading: "a"}, {Key: "B", Heading: "b"}, {Key: "A", Heading: "A "}})
	if s.Len() != 2 {
		t.Fatalf("expected 2 columns, got %d", s.Len())
	}
	if s.Index("B") != 1 || s.Index("C") != -1 {
		t.Fatalf("unexpected index lookup")
	}
	r := NewRecord(s, "f.xlsx", 2)
	if !r.AllNull() {
		t.Fatalf("fresh record should be all null")
	}
	r.Set(5, Text("ignored"))
	r.Set(1, Text("x"))
	if r.AllNull() || r.Get(1).Raw() != "x" || !r.Get(9).IsNull() {
		t.Fatalf("unexpected record state %#v", r.Cells)
	}
	assert.Equal(t, []string{"a", "b"}, s.Headings())
}

func TestResolution(t *testing.T) {
	var zero Resolution[string]
	assert.Equal(t, NotAttempted, zero.State)
	v, ok := FoundValue("ACME").Get()
	assert.True(t, ok)
	assert.Equal(t, "ACME", v)
	_, ok = Missing[string]().Get()
	assert.False(t, ok)
}
