package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkConf struct {
	URL     string `json:"url"`
	Bucket  string `json:"bucket"`
	Retries int    `json:"retries"`
	Enabled bool   `json:"enabled"`
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[sinkConf]()
	require.NoError(t, reg.Register("Influx", func(conf map[string]any) (sinkConf, error) {
		var c sinkConf
		err := Decode(conf, &c)
		return c, err
	}))

	got, err := reg.Create(ModuleConfig{Type: "influx", Conf: map[string]any{
		"url": "http://localhost:8086", "bucket": "manifests", "retries": "3", "enabled": "true",
	}})
	require.NoError(t, err)
	assert.Equal(t, sinkConf{URL: "http://localhost:8086", Bucket: "manifests", Retries: 3, Enabled: true}, got)

	got, err = reg.Create(ModuleConfig{Type: "INFLUX"})
	require.NoError(t, err)
	assert.Empty(t, got.URL)
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("nop", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("nop", func(map[string]any) (int, error) { return 2, nil }))
	assert.Error(t, reg.Register("x", nil))
	assert.Error(t, reg.Register(" ", func(map[string]any) (int, error) { return 0, nil }))

	require.NoError(t, reg.Register("prometheus", func(map[string]any) (int, error) { return 3, nil }))
	assert.Equal(t, []string{"nop", "prometheus"}, reg.Types())

	_, err := reg.Create(ModuleConfig{Type: "kafka"})
	assert.ErrorContains(t, err, "known: nop, prometheus")
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	var c sinkConf
	err := Decode(map[string]any{"bukcet": "typo"}, &c)
	assert.ErrorContains(t, err, "bukcet")
}
