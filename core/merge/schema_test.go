package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/manifests/core/model"
	"github.com/kilianp07/manifests/infra/sheet"
)

func table(path string, headers []string, rows ...[]string) *sheet.Table {
	return &sheet.Table{Path: path, Headers: headers, Rows: rows}
}

func opts() SchemaOptions {
	return SchemaOptions{
		OriginOdometer:      "KM SAIDA",
		DestinationOdometer: "KM CHEGADA",
		Distance:            "KM RODADO",
		Reserved:            []string{"STATUS VEICULO", "CUSTO FIXO"},
	}
}

func TestBuildSchemaUnionAndDistancePlacement(t *testing.T) {
	a := table("a.csv", []string{"KM Rodado", "Placa", "KM Saída", "KM Chegada", "Valor"})
	b := table("b.csv", []string{"PLACA", "Filial", "custo  fixo"})

	p := BuildSchema([]*sheet.Table{a, b}, opts())
	assert.Equal(t,
		[]string{"Placa", "KM Saída", "KM Chegada", "KM Rodado", "Valor", "Filial", "custo  fixo", "STATUS VEICULO"},
		p.Schema.Headings())

	require.Len(t, p.Duplicates, 1)
	assert.Equal(t, DuplicateHeader{Source: "b.csv", Heading: "PLACA", Kept: "Placa"}, p.Duplicates[0])
}

func TestBuildSchemaDistanceAppendedWithoutOdometers(t *testing.T) {
	a := table("a.csv", []string{"Placa", "Valor"})
	p := BuildSchema([]*sheet.Table{a}, opts())
	assert.Equal(t, []string{"Placa", "Valor", "KM RODADO", "STATUS VEICULO", "CUSTO FIXO"}, p.Schema.Headings())
}

func TestBuildSchemaSameFileDuplicateKeepsFirstColumn(t *testing.T) {
	a := table("a.csv", []string{"Placa", "PLACA "}, []string{"ABC1234", "IGNORED"})
	p := BuildSchema([]*sheet.Table{a}, opts())
	require.Len(t, p.Duplicates, 1)

	recs, dropped := p.Map(a)
	require.Len(t, recs, 1)
	assert.Zero(t, dropped)
	assert.Equal(t, "ABC1234", recs[0].Get(p.Schema.Index("PLACA")).Raw())
}

func TestMapFillsMissingColumnsWithNullAndDropsBlankRows(t *testing.T) {
	a := table("a.csv", []string{"Placa", "KM Rodado"},
		[]string{"ABC1234", "999"},
		[]string{" ", ""},
		[]string{"DEF5678"},
	)
	b := table("b.csv", []string{"Placa", "Valor"}, []string{"XYZ0001", "10"})
	p := BuildSchema([]*sheet.Table{a, b}, opts())

	recs, dropped := p.Map(a)
	assert.Equal(t, 1, dropped)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, recs[0].Row)
	assert.Equal(t, 4, recs[1].Row)
	assert.Equal(t, model.KindNull, recs[0].Get(p.Schema.Index("VALOR")).Kind())
	assert.True(t, recs[0].Get(p.Schema.Index("KM RODADO")).IsNull(), "source distance must not be copied")
}

func TestRecomputeDistanceIsIdempotent(t *testing.T) {
	a := table("a.csv", []string{"KM Saida", "KM Chegada"},
		[]string{"1000", "1.120,5"},
		[]string{"abc", "200"},
		[]string{"300", ""},
	)
	p := BuildSchema([]*sheet.Table{a}, opts())
	recs, _ := p.Map(a)
	ki := p.Schema.Index("KM RODADO")

	RecomputeDistance(p.Schema, recs, "KM SAIDA", "KM CHEGADA", "KM RODADO")
	first := make([]model.Value, len(recs))
	for i, r := range recs {
		first[i] = r.Get(ki)
	}
	RecomputeDistance(p.Schema, recs, "KM SAIDA", "KM CHEGADA", "KM RODADO")
	for i, r := range recs {
		assert.True(t, first[i].Equal(r.Get(ki)), "row %d changed", r.Row)
	}

	d, ok := recs[0].Get(ki).Float()
	require.True(t, ok)
	assert.InDelta(t, 120.5, d, 1e-9)
	assert.True(t, recs[1].Get(ki).IsNull())
	assert.True(t, recs[2].Get(ki).IsNull())
}
