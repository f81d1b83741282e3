package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedLayers creates layers named after ids in a fresh data dir and attaches
// them in order.
func seedLayers(t *testing.T, ids ...string) (string, *LayerService, *MapService, *EventBus) {
	t.Helper()
	dir := t.TempDir()
	bus := NewEventBus()
	layers := NewLayerService(dir, bus)
	maps := NewMapService(dir, layers, bus)
	for _, id := range ids {
		_, err := layers.Create(LayerConfig{ID: id, Name: "Layer " + id, File: id + ".pmtiles", GeomType: "polygon"})
		require.NoError(t, err)
		require.NoError(t, maps.Attach(id))
	}
	return dir, layers, maps, bus
}

func ids(layers []LayerConfig) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.ID
	}
	return out
}

func TestMapService_AttachDetach(t *testing.T) {
	_, _, maps, _ := seedLayers(t, "a", "b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, maps.State().Layers)

	require.NoError(t, maps.Attach("b"))
	assert.Equal(t, []string{"a", "b", "c"}, maps.State().Layers, "attach is idempotent")

	require.NoError(t, maps.Detach("b"))
	assert.Equal(t, []string{"a", "c"}, maps.State().Layers)

	require.NoError(t, maps.Detach("missing"))
	assert.Equal(t, []string{"a", "c"}, maps.State().Layers)
}

func TestMapService_SetLayersPersists(t *testing.T) {
	dir, layers, maps, _ := seedLayers(t, "a", "b", "c")

	drawOrder, err := layers.Resolve([]string{"c", "a"})
	require.NoError(t, err)
	require.NoError(t, maps.SetLayers(drawOrder))

	reloaded := NewMapService(dir, NewLayerService(dir, nil), nil)
	assert.Equal(t, []string{"c", "a"}, reloaded.State().Layers)
	assert.Equal(t, []string{"c", "a"}, ids(reloaded.Layers()))
}

func TestMapService_SetLayerIDsRejectsUnknown(t *testing.T) {
	_, _, maps, _ := seedLayers(t, "a", "b")

	err := maps.SetLayerIDs([]string{"b", "nope"})
	assert.ErrorIs(t, err, ErrLayerNotFound)
	assert.Equal(t, []string{"a", "b"}, maps.State().Layers)

	require.NoError(t, maps.SetLayerIDs([]string{"b"}))
	assert.Equal(t, []string{"b"}, maps.State().Layers)
}

func TestMapService_LayersSkipsDeleted(t *testing.T) {
	_, layers, maps, _ := seedLayers(t, "a", "b", "c")

	require.NoError(t, layers.Delete("b"))

	assert.Equal(t, []string{"a", "c"}, ids(maps.Layers()))
}

func TestMapService_PublishesReorder(t *testing.T) {
	_, layers, maps, bus := seedLayers(t, "a", "b")
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	drawOrder, err := layers.Resolve([]string{"b", "a"})
	require.NoError(t, err)
	require.NoError(t, maps.SetLayers(drawOrder))

	select {
	case ev := <-ch:
		assert.Equal(t, ResourceMap, ev.Resource)
		assert.Equal(t, "reordered", ev.Action)
		assert.Equal(t, []string{"b", "a"}, ev.Layers)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestMapService_Extent(t *testing.T) {
	dir := t.TempDir()
	layers := NewLayerService(dir, nil)
	maps := NewMapService(dir, layers, nil)

	_, ok := maps.Extent()
	assert.False(t, ok)

	for _, l := range []LayerConfig{
		{ID: "west", Name: "West", Bounds: []float64{-10, -5, 0, 5}},
		{ID: "east", Name: "East", Bounds: []float64{2, 0, 12, 8}},
		{ID: "nobounds", Name: "No bounds"},
	} {
		_, err := layers.Create(l)
		require.NoError(t, err)
		require.NoError(t, maps.Attach(l.ID))
	}

	extent, ok := maps.Extent()
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{-10, -5}, Max: orb.Point{12, 8}}, extent)

	require.NoError(t, maps.Detach("west"))
	extent, ok = maps.Extent()
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{2, 0}, Max: orb.Point{12, 8}}, extent)
}

func TestMapService_ConcurrentAttach(t *testing.T) {
	dir := t.TempDir()
	layers := NewLayerService(dir, nil)
	maps := NewMapService(dir, layers, nil)

	var want []string
	for i := range 20 {
		id := fmt.Sprintf("layer%d", i)
		_, err := layers.Create(LayerConfig{ID: id, Name: id})
		require.NoError(t, err)
		want = append(want, id)
	}

	var wg sync.WaitGroup
	for _, id := range want {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, maps.Attach(id))
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, want, maps.State().Layers)
	reloaded := NewMapService(dir, layers, nil)
	assert.Equal(t, maps.State().Layers, reloaded.State().Layers)

	for _, id := range want[:10] {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, maps.Detach(id))
		}()
	}
	wg.Wait()
	assert.ElementsMatch(t, want[10:], maps.State().Layers)
}

func TestMapService_EventsFollowSaveOrder(t *testing.T) {
	dir := t.TempDir()
	bus := NewEventBus()
	layers := NewLayerService(dir, nil)
	maps := NewMapService(dir, layers, bus)
	for i := range 10 {
		_, err := layers.Create(LayerConfig{ID: fmt.Sprintf("layer%d", i), Name: "x"})
		require.NoError(t, err)
	}

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, maps.Attach(fmt.Sprintf("layer%d", i)))
		}()
	}
	wg.Wait()

	var last Event
	for range 10 {
		select {
		case last = <-ch:
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
	assert.Equal(t, maps.State().Layers, last.Layers)
}

func TestMapService_Apply(t *testing.T) {
	_, layers, maps, _ := seedLayers(t, "a", "b", "c")
	require.NoError(t, layers.Delete("b"))
	_, err := layers.Create(LayerConfig{ID: "d", Name: "Layer d"})
	require.NoError(t, err)
	require.NoError(t, maps.Attach("d"))

	order, err := layers.Resolve([]string{"c", "a"})
	require.NoError(t, err)
	order = append(order, LayerConfig{ID: "b"})

	applied, err := maps.Apply(order, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "d"}, applied)
	assert.Equal(t, applied, maps.State().Layers)
}
