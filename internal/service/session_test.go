package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	sessions []string
	orders   [][]string
	err      error
}

func (r *fakeRecorder) Record(ctx context.Context, sessionID string, drawOrder []string) error {
	if r.err != nil {
		return r.err
	}
	r.sessions = append(r.sessions, sessionID)
	r.orders = append(r.orders, drawOrder)
	return nil
}

func TestSessionService_OpenSeedsFromMap(t *testing.T) {
	_, _, maps, _ := seedLayers(t, "a", "b", "c")
	sessions := NewSessionService(maps, nil)

	view := sessions.Open()

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, []string{"Layer c", "Layer b", "Layer a"}, names(view.Operational))
	assert.Empty(t, view.Removed)
	assert.Contains(t, sessions.IDs(), view.ID)
}

func TestSessionService_EditsApplyToMap(t *testing.T) {
	ctx := context.Background()
	_, _, maps, _ := seedLayers(t, "a", "b", "c")
	sessions := NewSessionService(maps, nil)
	rec := &fakeRecorder{}
	sessions.SetRecorder(rec)
	view := sessions.Open()

	view, moved, err := sessions.Reorder(ctx, view.ID, op(0), op(2))
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{"c", "b", "a"}, maps.State().Layers)
	assert.Equal(t, []string{"Layer a", "Layer b", "Layer c"}, names(view.Operational))

	view, err = sessions.Remove(ctx, view.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, maps.State().Layers)
	assert.Equal(t, []string{"Layer a"}, names(view.Removed))

	view, err = sessions.Restore(ctx, view.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, maps.State().Layers)
	assert.Empty(t, view.Removed)

	assert.Equal(t, [][]string{{"c", "b", "a"}, {"c", "b"}, {"c", "b", "a"}}, rec.orders)
	assert.Equal(t, []string{view.ID, view.ID, view.ID}, rec.sessions)
}

func TestSessionService_ClampedReorderLeavesMapAlone(t *testing.T) {
	ctx := context.Background()
	_, _, maps, bus := seedLayers(t, "a", "b")
	sessions := NewSessionService(maps, bus)
	rec := &fakeRecorder{}
	sessions.SetRecorder(rec)
	view := sessions.Open()
	_, err := sessions.Remove(ctx, view.ID, 0)
	require.NoError(t, err)
	rec.orders = nil

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	_, moved, err := sessions.Reorder(ctx, view.ID, op(0), rm(0))
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, rec.orders)
	assert.Equal(t, []string{"a"}, maps.State().Layers)
	assert.Empty(t, ch)
}

func TestSessionService_RowBounds(t *testing.T) {
	ctx := context.Background()
	_, _, maps, _ := seedLayers(t, "a", "b")
	sessions := NewSessionService(maps, nil)
	view := sessions.Open()

	tests := []struct {
		name string
		run  func() error
	}{
		{"remove past end", func() error { _, err := sessions.Remove(ctx, view.ID, 2); return err }},
		{"remove negative", func() error { _, err := sessions.Remove(ctx, view.ID, -1); return err }},
		{"restore empty", func() error { _, err := sessions.Restore(ctx, view.ID, 0); return err }},
		{"reorder bad source", func() error { _, _, err := sessions.Reorder(ctx, view.ID, op(5), op(0)); return err }},
		{"reorder bad target", func() error { _, _, err := sessions.Reorder(ctx, view.ID, op(0), op(5)); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), ErrRowOutOfRange)
		})
	}
	assert.Equal(t, []string{"a", "b"}, maps.State().Layers)
}

func TestSessionService_RecorderErrorSurfaces(t *testing.T) {
	_, _, maps, _ := seedLayers(t, "a", "b")
	sessions := NewSessionService(maps, nil)
	sessions.SetRecorder(&fakeRecorder{err: errors.New("disk full")})
	view := sessions.Open()

	_, err := sessions.Remove(context.Background(), view.ID, 0)
	assert.ErrorContains(t, err, "disk full")
}

func TestSessionService_Close(t *testing.T) {
	_, _, maps, _ := seedLayers(t, "a")
	sessions := NewSessionService(maps, nil)
	view := sessions.Open()

	require.NoError(t, sessions.Close(view.ID))
	assert.ErrorIs(t, sessions.Close(view.ID), ErrSessionNotFound)

	_, err := sessions.Get(view.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = sessions.Remove(context.Background(), view.ID, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Equal(t, []string{"a"}, maps.State().Layers)
}

func TestSessionService_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	_, _, maps, _ := seedLayers(t, "a", "b")
	sessions := NewSessionService(maps, nil)
	first := sessions.Open()
	second := sessions.Open()

	_, err := sessions.Remove(ctx, first.ID, 0)
	require.NoError(t, err)

	got, err := sessions.Get(second.ID)
	require.NoError(t, err)
	assert.Len(t, got.Operational, 2)
	assert.Empty(t, got.Removed)
}

func TestSessionService_FollowsLayerStore(t *testing.T) {
	ctx := context.Background()
	_, layers, maps, _ := seedLayers(t, "a", "b")
	sessions := NewSessionService(maps, nil)
	rec := &fakeRecorder{}
	sessions.SetRecorder(rec)
	view := sessions.Open()

	_, err := layers.Create(LayerConfig{ID: "c", Name: "Layer c"})
	require.NoError(t, err)
	require.NoError(t, maps.Attach("c"))
	require.NoError(t, layers.Delete("a"))
	require.NoError(t, maps.Detach("a"))
	require.Equal(t, []string{"b", "c"}, maps.State().Layers)

	view, moved, err := sessions.Reorder(ctx, view.ID, op(0), op(1))
	require.NoError(t, err)
	assert.True(t, moved)

	assert.Equal(t, []string{"b", "c"}, maps.State().Layers)
	assert.Equal(t, []string{"Layer c", "Layer b"}, names(view.Operational))
	assert.Empty(t, view.Removed)
	assert.Equal(t, [][]string{{"b", "c"}}, rec.orders)
}

func TestSessionService_GetDropsDeletedRemovedLayers(t *testing.T) {
	ctx := context.Background()
	_, layers, maps, _ := seedLayers(t, "a", "b")
	sessions := NewSessionService(maps, nil)
	view := sessions.Open()

	view, err := sessions.Remove(ctx, view.ID, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"Layer b"}, names(view.Removed))

	require.NoError(t, layers.Delete("b"))

	view, err = sessions.Get(view.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Removed)
	assert.Equal(t, []string{"Layer a"}, names(view.Operational))

	_, err = sessions.Restore(ctx, view.ID, 0)
	assert.ErrorIs(t, err, ErrRowOutOfRange)
	assert.Equal(t, []string{"a"}, maps.State().Layers)
}
