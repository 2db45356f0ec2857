package model

// Column is one field of the canonical schema. Key is the normalized
// header used for matching, Heading the literal spelling written out.
type Column struct {
	Key     string `json:"key"`
	Heading string `json:"heading"`
}

// Schema is the ordered canonical field list of one merge run.
// It must not be modified once records are bound to it.
type Schema struct {
	cols  []Column
	index map[string]int
}

// NewSchema builds a schema from cols. Later columns sharing a key with an
// earlier one are ignored.
func NewSchema(cols []Column) *Schema {
	s := &Schema{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if _, ok := s.index[c.Key]; ok {
			continue
		}
		s.index[c.Key] = len(s.cols)
		s.cols = append(s.cols, c)
	}
	return s
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.cols) }

// Columns returns a copy of the ordered column list.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Headings returns the literal headings in schema order.
func (s *Schema) Headings() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Heading
	}
	return out
}

// Index returns the position of key, or -1.
func (s *Schema) Index(key string) int {
	if i, ok := s.index[key]; ok {
		return i
	}
	return -1
}

// Has reports whether key is part of the schema.
func (s *Schema) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Record is one shipment row mapped onto a schema.
type Record struct {
	// Source is the file the row was read from.
	Source string
	// Row is the 1-based spreadsheet row number in Source.
	Row   int
	Cells []Value
}

// NewRecord allocates an all-null record for schema s.
func NewRecord(s *Schema, source string, row int) *Record {
	return &Record{Source: source, Row: row, Cells: make([]Value, s.Len())}
}

// Get returns the cell at idx, or Null when idx is out of range.
func (r *Record) Get(idx int) Value {
	if idx < 0 || idx >= len(r.Cells) {
		return Null()
	}
	return r.Cells[idx]
}

// Set stores v at idx. Out-of-range indexes are ignored.
func (r *Record) Set(idx int, v Value) {
	if idx < 0 || idx >= len(r.Cells) {
		return
	}
	r.Cells[idx] = v
}

// AllNull reports whether every cell is null.
func (r *Record) AllNull() bool {
	for _, c := range r.Cells {
		if !c.IsNull() {
			return false
		}
	}
	return true
}

// Strings renders the record in schema order.
func (r *Record) Strings() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.String()
	}
	return out
}
