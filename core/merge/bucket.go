package merge

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/manifests/core/header"
)

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

func (k MonthKey) String() string { return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month)) }

// Before orders keys chronologically.
func (k MonthKey) Before(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

var (
	reYearMonth  = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})[-_.](0[1-9]|1[0-2])(?:\D|$)`)
	reMonthYear  = regexp.MustCompile(`(?:^|\D)(0?[1-9]|1[0-2])[-_.]((?:19|20)\d{2}|\d{2})(?:\D|$)`)
	reCompact    = regexp.MustCompile(`(?:^|\D)(0[1-9]|1[0-2])((?:19|20)\d{2}|\d{2})(?:\D|$)`)
	reMonthOnly  = regexp.MustCompile(`(?:^|\D)(0[1-9]|1[0-2])(?:\D|$)`)
	reFourDigits = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)
	reLetters    = regexp.MustCompile(`[A-Z]+`)
)

var monthNames = map[string]time.Month{}

func init() {
	names := map[time.Month][]string{
		time.January:   {"JAN", "JANUARY", "JANEIRO"},
		time.February:  {"FEB", "FEV", "FEBRUARY", "FEVEREIRO"},
		time.March:     {"MAR", "MARCH", "MARCO"},
		time.April:     {"APR", "ABR", "APRIL", "ABRIL"},
		time.May:       {"MAY", "MAI", "MAIO"},
		time.June:      {"JUN", "JUNE", "JUNHO"},
		time.July:      {"JUL", "JULY", "JULHO"},
		time.August:    {"AUG", "AGO", "AUGUST", "AGOSTO"},
		time.September: {"SEP", "SEPT", "SET", "SEPTEMBER", "SETEMBRO"},
		time.October:   {"OCT", "OUT", "OCTOBER", "OUTUBRO"},
		time.November:  {"NOV", "NOVEMBER", "NOVEMBRO"},
		time.December:  {"DEC", "DEZ", "DECEMBER", "DEZEMBRO"},
	}
	for m, list := range names {
		for _, n := range list {
			monthNames[n] = m
		}
	}
}

// DetectMonth extracts the month a file belongs to from its name. Numeric
// tokens (YYYY-MM, MM-YYYY, MM-YY, MMYYYY, MMYY) take precedence over month
// names, and a bare two-digit MM is the last resort. A month without a
// four-digit year is attributed to now's year.
func DetectMonth(path string, now time.Time) (MonthKey, bool) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if m := reYearMonth.FindStringSubmatch(base); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		return MonthKey{Year: y, Month: time.Month(mo)}, true
	}
	for _, re := range []*regexp.Regexp{reMonthYear, reCompact} {
		if m := re.FindStringSubmatch(base); m != nil {
			mo, _ := strconv.Atoi(m[1])
			y, _ := strconv.Atoi(m[2])
			if len(m[2]) == 2 {
				y += 2000
			}
			return MonthKey{Year: y, Month: time.Month(mo)}, true
		}
	}
	year := func() int {
		if m := reFourDigits.FindStringSubmatch(base); m != nil {
			y, _ := strconv.Atoi(m[1])
			return y
		}
		return now.Year()
	}
	norm := header.Normalize(base)
	for _, tok := range reLetters.FindAllString(norm, -1) {
		if mo, ok := monthNames[tok]; ok {
			return MonthKey{Year: year(), Month: mo}, true
		}
	}
	if m := reMonthOnly.FindStringSubmatch(base); m != nil {
		mo, _ := strconv.Atoi(m[1])
		return MonthKey{Year: year(), Month: time.Month(mo)}, true
	}
	return MonthKey{}, false
}

// Bucket is the set of files sharing a month.
type Bucket struct {
	Key        string   `json:"key"`
	Winner     string   `json:"winner"`
	Superseded []string `json:"superseded,omitempty"`
}

// SelectLatest keeps, for each detected month, the most recently modified
// file. Ties on modification time keep the lexically smallest path. Files
// without a detectable month are all kept. The selection is ordered by
// month, then undated files by path.
func SelectLatest(files []SourceFile, now time.Time) ([]SourceFile, []Bucket) {
	type group struct {
		key     MonthKey
		members []SourceFile
	}
	groups := map[MonthKey]*group{}
	var undated []SourceFile
	for _, f := range files {
		k, ok := DetectMonth(f.Path, now)
		if !ok {
			undated = append(undated, f)
			continue
		}
		g, ok := groups[k]
		if !ok {
			g = &group{key: k}
			groups[k] = g
		}
		g.members = append(g.members, f)
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].key.Before(ordered[j].key) })

	var (
		selected []SourceFile
		buckets  []Bucket
	)
	for _, g := range ordered {
		sort.Slice(g.members, func(i, j int) bool {
			a, b := g.members[i], g.members[j]
			if !a.ModTime.Equal(b.ModTime) {
				return a.ModTime.After(b.ModTime)
			}
			return a.Path < b.Path
		})
		b := Bucket{Key: g.key.String(), Winner: g.members[0].Path}
		for _, m := range g.members[1:] {
			b.Superseded = append(b.Superseded, m.Path)
		}
		selected = append(selected, g.members[0])
		buckets = append(buckets, b)
	}
	sort.Slice(undated, func(i, j int) bool { return undated[i].Path < undated[j].Path })
	for _, f := range undated {
		selected = append(selected, f)
		buckets = append(buckets, Bucket{Key: "", Winner: f.Path})
	}
	return selected, buckets
}
