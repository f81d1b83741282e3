package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Buildings", "buildings"},
		{"Road Network", "road_network"},
		{"Parks & Gardens!", "parks__gardens"},
		{"ÄÖ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generateID(tt.name))
		})
	}
}

func TestLayerService_CRUD(t *testing.T) {
	dir := t.TempDir()
	s := NewLayerService(dir, nil)

	created, err := s.Create(LayerConfig{Name: "Road Network", File: "roads.pmtiles", GeomType: "line"})
	require.NoError(t, err)
	assert.Equal(t, "road_network", created.ID)

	_, err = s.Create(LayerConfig{Name: "Road Network"})
	assert.Error(t, err, "duplicate ID")

	_, err = s.Create(LayerConfig{Name: "!!!"})
	assert.Error(t, err, "empty ID")

	updated, err := s.Update("road_network", LayerConfig{Name: "Roads", File: "roads.pmtiles", GeomType: "line"})
	require.NoError(t, err)
	assert.Equal(t, "road_network", updated.ID)

	_, err = s.Update("missing", LayerConfig{Name: "x"})
	assert.ErrorIs(t, err, ErrLayerNotFound)

	reloaded := NewLayerService(dir, nil)
	got, ok := reloaded.Get("road_network")
	require.True(t, ok)
	assert.Equal(t, "Roads", got.Name)

	require.NoError(t, reloaded.Delete("road_network"))
	assert.ErrorIs(t, reloaded.Delete("road_network"), ErrLayerNotFound)
	assert.Empty(t, reloaded.List())
}

func TestLayerService_ListSortedByName(t *testing.T) {
	s := NewLayerService(t.TempDir(), nil)
	for _, name := range []string{"Water", "Buildings", "Parks"} {
		_, err := s.Create(LayerConfig{Name: name})
		require.NoError(t, err)
	}

	var got []string
	for _, l := range s.List() {
		got = append(got, l.Name)
	}
	assert.Equal(t, []string{"Buildings", "Parks", "Water"}, got)
}

func TestLayerService_Resolve(t *testing.T) {
	s := NewLayerService(t.TempDir(), nil)
	for _, id := range []string{"a", "b"} {
		_, err := s.Create(LayerConfig{ID: id, Name: id})
		require.NoError(t, err)
	}

	got, err := s.Resolve([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(got))

	_, err = s.Resolve([]string{"a", "c"})
	assert.ErrorIs(t, err, ErrLayerNotFound)
}

func TestLayerConfig_Bound(t *testing.T) {
	_, ok := LayerConfig{}.Bound()
	assert.False(t, ok)

	_, ok = LayerConfig{Bounds: []float64{1, 2}}.Bound()
	assert.False(t, ok)

	b, ok := LayerConfig{Bounds: []float64{1, 2, 3, 4}}.Bound()
	require.True(t, ok)
	assert.Equal(t, 1.0, b.Min.Lon())
	assert.Equal(t, 4.0, b.Max.Lat())
}
