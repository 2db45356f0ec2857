package merge

import (
	"math"

	"github.com/kilianp07/manifests/core/header"
	"github.com/kilianp07/manifests/core/model"
)

// RecomputeDistance sets the distance column to destination minus origin
// odometer for every record. Records with either reading missing or
// unparsable get a null distance. It only reads the odometer columns, so
// applying it twice yields the same result.
func RecomputeDistance(s *model.Schema, recs []*model.Record, origin, destination, distance string) {
	oi := s.Index(header.Normalize(origin))
	di := s.Index(header.Normalize(destination))
	ki := s.Index(header.Normalize(distance))
	if ki < 0 {
		return
	}
	for _, r := range recs {
		o, ok1 := r.Get(oi).Float()
		d, ok2 := r.Get(di).Float()
		if oi < 0 || di < 0 || !ok1 || !ok2 {
			r.Set(ki, model.Null())
			continue
		}
		r.Set(ki, model.Number(math.Round((d-o)*1000)/1000))
	}
}
