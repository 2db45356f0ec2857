package merge

import (
	"github.com/kilianp07/manifests/core/header"
	"github.com/kilianp07/manifests/core/model"
	"github.com/kilianp07/manifests/infra/sheet"
)

// DuplicateHeader records a header dropped because another spelling of the
// same normalized key was seen first.
type DuplicateHeader struct {
	Source  string `json:"source"`
	Heading string `json:"heading"`
	Kept    string `json:"kept"`
}

// SchemaOptions controls the placement of derived columns.
type SchemaOptions struct {
	OriginOdometer      string
	DestinationOdometer string
	Distance            string
	// Reserved headings are appended after source columns unless already present.
	Reserved []string
}

// headerMap maps normalized keys to the first source column carrying them.
type headerMap map[string]int

// Plan is the canonical schema of a run together with the per-file
// column bindings.
type Plan struct {
	Schema     *model.Schema
	Duplicates []DuplicateHeader
	bindings   map[*sheet.Table]headerMap
	distance   string
}

// BuildSchema unions the headers of tables in order. The first literal
// spelling of each key wins. The distance column is never taken from the
// position sources put it in: it is placed right after the later of the two
// odometer columns, or last among source columns when they are missing.
func BuildSchema(tables []*sheet.Table, opts SchemaOptions) *Plan {
	p := &Plan{bindings: make(map[*sheet.Table]headerMap, len(tables))}
	distKey := header.Normalize(opts.Distance)
	p.distance = distKey
	distHeading := opts.Distance

	var (
		cols    []model.Column
		seen    = map[string]string{}
		sawDist bool
	)
	for _, t := range tables {
		hm := headerMap{}
		for i, h := range t.Headers {
			key := header.Normalize(h)
			if key == "" {
				continue
			}
			if kept, ok := seen[key]; ok {
				if _, local := hm[key]; local || kept != h {
					p.Duplicates = append(p.Duplicates, DuplicateHeader{Source: t.Path, Heading: h, Kept: kept})
				}
				if _, local := hm[key]; !local {
					hm[key] = i
				}
				continue
			}
			seen[key] = h
			hm[key] = i
			if key == distKey {
				if !sawDist {
					distHeading = h
					sawDist = true
				}
				continue
			}
			cols = append(cols, model.Column{Key: key, Heading: h})
		}
		p.bindings[t] = hm
	}

	dist := model.Column{Key: distKey, Heading: distHeading}
	if distKey != "" {
		cols = insertDistance(cols, dist, header.Normalize(opts.OriginOdometer), header.Normalize(opts.DestinationOdometer))
	}
	for _, r := range opts.Reserved {
		key := header.Normalize(r)
		if key == "" || seen[key] != "" || key == distKey {
			continue
		}
		seen[key] = r
		cols = append(cols, model.Column{Key: key, Heading: r})
	}
	p.Schema = model.NewSchema(cols)
	return p
}

func insertDistance(cols []model.Column, dist model.Column, origin, dest string) []model.Column {
	oi, di := -1, -1
	for i, c := range cols {
		switch c.Key {
		case origin:
			oi = i
		case dest:
			di = i
		}
	}
	if oi < 0 || di < 0 {
		return append(cols, dist)
	}
	at := max(oi, di) + 1
	out := make([]model.Column, 0, len(cols)+1)
	out = append(out, cols[:at]...)
	out = append(out, dist)
	return append(out, cols[at:]...)
}

// Map converts the data rows of t into records bound to the plan's schema.
// Source distance values are ignored. Rows left entirely null are dropped
// and counted.
func (p *Plan) Map(t *sheet.Table) (recs []*model.Record, dropped int) {
	hm := p.bindings[t]
	type binding struct{ dst, src int }
	var bs []binding
	for key, src := range hm {
		if key == p.distance {
			continue
		}
		if dst := p.Schema.Index(key); dst >= 0 {
			bs = append(bs, binding{dst: dst, src: src})
		}
	}
	for i := range t.Rows {
		// Row 1 is the header.
		rec := model.NewRecord(p.Schema, t.Path, i+2)
		for _, b := range bs {
			rec.Set(b.dst, model.Text(t.Cell(i, b.src)))
		}
		if rec.AllNull() {
			dropped++
			continue
		}
		recs = append(recs, rec)
	}
	return recs, dropped
}
