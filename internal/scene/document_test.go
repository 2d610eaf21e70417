package scene

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/route-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineFC(points ...orb.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.LineString(points)))
	return fc
}

func TestDocument_SourcesAndLayers(t *testing.T) {
	d := NewDocument(true)

	t.Run("layer requires source", func(t *testing.T) {
		err := d.AddLayer(domain.Layer{ID: "l1", Type: domain.LayerLine, Source: "s1"})
		assert.ErrorIs(t, err, ErrMissingSource)
		assert.False(t, d.HasLayer("l1"))
	})

	t.Run("add source then layer", func(t *testing.T) {
		require.NoError(t, d.AddSource("s1", lineFC(orb.Point{0, 0}, orb.Point{1, 1})))
		require.NoError(t, d.AddLayer(domain.Layer{ID: "l1", Type: domain.LayerLine, Source: "s1"}))
		assert.True(t, d.HasSource("s1"))
		assert.True(t, d.HasLayer("l1"))
	})

	t.Run("duplicates rejected", func(t *testing.T) {
		assert.ErrorIs(t, d.AddSource("s1", nil), ErrAlreadyExists)
		assert.ErrorIs(t, d.AddLayer(domain.Layer{ID: "l1", Source: "s1"}), ErrAlreadyExists)
	})

	t.Run("source removal blocked while layer exists", func(t *testing.T) {
		assert.ErrorIs(t, d.RemoveSource("s1"), ErrSourceInUse)
		require.NoError(t, d.RemoveLayer("l1"))
		require.NoError(t, d.RemoveSource("s1"))
		assert.False(t, d.HasSource("s1"))
	})

	t.Run("set data on missing source", func(t *testing.T) {
		assert.ErrorIs(t, d.SetSourceData("nope", nil), ErrNotFound)
	})
}

func TestDocument_Markers(t *testing.T) {
	d := NewDocument(true)

	require.NoError(t, d.AddMarker(domain.Marker{ID: "m", Position: domain.Coordinate{Lon: 1, Lat: 2}}))
	assert.ErrorIs(t, d.AddMarker(domain.Marker{ID: "m"}), ErrAlreadyExists)

	require.NoError(t, d.UpdateMarker("m", domain.Coordinate{Lon: 3, Lat: 4}, 90))
	m, ok := d.Marker("m")
	require.True(t, ok)
	assert.Equal(t, 3.0, m.Position.Lon)
	assert.Equal(t, 90.0, m.Rotation)

	require.NoError(t, d.RemoveMarker("m"))
	assert.ErrorIs(t, d.RemoveMarker("m"), ErrNotFound)
	assert.ErrorIs(t, d.UpdateMarker("m", domain.Coordinate{}, 0), ErrNotFound)
}

func TestDocument_OnLoad(t *testing.T) {
	d := NewDocument(false)
	var order []int
	d.OnLoad(func() { order = append(order, 1) })
	d.OnLoad(func() { order = append(order, 2) })
	assert.Empty(t, order)

	d.SetLoaded()
	assert.Equal(t, []int{1, 2}, order)

	// после загрузки обработчик вызывается сразу
	d.OnLoad(func() { order = append(order, 3) })
	assert.Equal(t, []int{1, 2, 3}, order)

	d.SetLoaded()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestDocument_Snapshot(t *testing.T) {
	d := NewDocument(true)
	require.NoError(t, d.ConfigureScene(domain.SceneOptions{Style: domain.StyleDark, Fog: true}))
	require.NoError(t, d.AddSource("a", nil))
	require.NoError(t, d.AddLayer(domain.Layer{ID: "la", Source: "a"}))
	require.NoError(t, d.AddLayer(domain.Layer{ID: "sky", Type: domain.LayerSky}))
	require.NoError(t, d.AddMarker(domain.Marker{ID: "m1"}))
	require.NoError(t, d.AddMarker(domain.Marker{ID: "m2"}))
	require.NoError(t, d.SetCamera(domain.CameraState{Zoom: 4}))

	s := d.Snapshot()
	assert.Equal(t, domain.StyleDark, s.Style)
	assert.Equal(t, "mapbox://styles/mapbox/dark-v11", s.URL)
	assert.Len(t, s.Sources, 1)
	require.Len(t, s.Layers, 2)
	assert.Equal(t, "la", s.Layers[0].ID)
	assert.Equal(t, []string{"m1", "m2"}, []string{s.Markers[0].ID, s.Markers[1].ID})
	assert.Equal(t, 4.0, s.Camera.Zoom)
}
