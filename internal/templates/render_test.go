package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	SessionID string
	Section   string
	Index     int
	Name      string
	Last      bool
}

func TestDefault_LayerRow(t *testing.T) {
	r := Default()

	top, err := r.Render("layer-row", row{SessionID: "s1", Section: "operational", Index: 0, Name: "Water"})
	require.NoError(t, err)
	assert.Contains(t, top, `id="operational-row-0"`)
	assert.NotContains(t, top, ">Up<")
	assert.Contains(t, top, ">Down<")
	assert.Contains(t, top, "/api/v1/editor/sessions/s1/remove")

	bottom, err := r.Render("layer-row", row{SessionID: "s1", Section: "operational", Index: 2, Name: "Roads", Last: true})
	require.NoError(t, err)
	assert.Contains(t, bottom, ">Up<")
	assert.NotContains(t, bottom, ">Down<")

	removed, err := r.Render("layer-row", row{SessionID: "s1", Section: "removed", Index: 0, Name: "Parks"})
	require.NoError(t, err)
	assert.Contains(t, removed, "/api/v1/editor/sessions/s1/restore")
	assert.NotContains(t, removed, "/remove")
}

func TestRender_EscapesNames(t *testing.T) {
	out, err := Default().Render("empty-state", map[string]string{"Title": "<b>", "Message": "x"})
	require.NoError(t, err)
	assert.Contains(t, out, "&lt;b&gt;")
}

func TestNewAndReload(t *testing.T) {
	dir := t.TempDir()
	write := func(body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.html"), []byte(body), 0o644))
	}

	write(`{{define "hello"}}hello {{.}}{{end}}`)
	r, err := New(dir)
	require.NoError(t, err)
	out, err := r.Render("hello", "map")
	require.NoError(t, err)
	assert.Equal(t, "hello map", out)

	write(`{{define "hello"}}bye {{.}}{{end}}`)
	require.NoError(t, r.Reload(dir))
	out, err = r.Render("hello", "map")
	require.NoError(t, err)
	assert.Equal(t, "bye map", out)

	_, err = r.Render("missing", nil)
	assert.Error(t, err)
}
