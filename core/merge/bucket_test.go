package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func TestDetectMonth(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"manifest 09-25.xlsx", "2025-09", true},
		{"manifest 09-2025.csv", "2025-09", true},
		{"fechamento_12.2024.xlsx", "2024-12", true},
		{"report-2025-10-31.csv", "2025-10", true},
		{"Manifesto_SETEMBRO.xlsx", "2026-09", true},
		{"Março 2024.xlsx", "2024-03", true},
		{"outubro-final.xlsx", "2026-10", true},
		{"Sept 2023 export.csv", "2023-09", true},
		{"Manifesto_0925.xlsx", "2025-09", true},
		{"manifesto_092025.csv", "2025-09", true},
		{"manifesto 09.xlsx", "2026-09", true},
		{"MANIFESTO_08.xlsx", "2026-08", true},
		{"manifesto 13.xlsx", "", false},
		{"export.csv", "", false},
		{"output.csv", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, ok := DetectMonth("/data/"+tt.name, clock)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, k.String())
			}
		})
	}
}

func TestSelectLatestKeepsNewestPerMonth(t *testing.T) {
	base := clock.Add(-24 * time.Hour)
	files := []SourceFile{
		{Path: "/in/manifest 09-2025 v1.csv", ModTime: base},
		{Path: "/in/manifest 09-2025 v2.csv", ModTime: base.Add(time.Hour)},
		{Path: "/in/manifest 10-2025.csv", ModTime: base},
		{Path: "/in/extra.csv", ModTime: base},
		{Path: "/in/adhoc.csv", ModTime: base},
	}
	selected, buckets := SelectLatest(files, clock)
	require.Len(t, selected, 4)
	assert.Equal(t, "/in/manifest 09-2025 v2.csv", selected[0].Path)
	assert.Equal(t, "/in/manifest 10-2025.csv", selected[1].Path)
	assert.Equal(t, "/in/adhoc.csv", selected[2].Path)
	assert.Equal(t, "/in/extra.csv", selected[3].Path)

	require.Len(t, buckets, 4)
	assert.Equal(t, "2025-09", buckets[0].Key)
	assert.Equal(t, []string{"/in/manifest 09-2025 v1.csv"}, buckets[0].Superseded)
	assert.Empty(t, buckets[1].Superseded)
}

func TestSelectLatestFlipsOnMtime(t *testing.T) {
	base := clock.Add(-24 * time.Hour)
	files := []SourceFile{
		{Path: "/in/a setembro 2025.csv", ModTime: base.Add(time.Hour)},
		{Path: "/in/b 09-2025.csv", ModTime: base},
	}
	selected, _ := SelectLatest(files, clock)
	require.Len(t, selected, 1)
	assert.Equal(t, "/in/a setembro 2025.csv", selected[0].Path)

	files[1].ModTime = base.Add(2 * time.Hour)
	selected, _ = SelectLatest(files, clock)
	require.Len(t, selected, 1)
	assert.Equal(t, "/in/b 09-2025.csv", selected[0].Path)
}

func TestSelectLatestTieKeepsSmallestPath(t *testing.T) {
	files := []SourceFile{
		{Path: "/in/z 09-2025.csv", ModTime: clock},
		{Path: "/in/a 09-2025.csv", ModTime: clock},
	}
	selected, _ := SelectLatest(files, clock)
	require.Len(t, selected, 1)
	assert.Equal(t, "/in/a 09-2025.csv", selected[0].Path)
}
