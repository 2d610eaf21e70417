package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb/geojson"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrMissingSource = errors.New("layer references missing source")
	ErrSourceInUse   = errors.New("source is used by a layer")
)

// Document - состояние сцены в памяти, реализующее контракт MapRenderer.
// Используется в тестах и для статических снимков сцены по HTTP.
type Document struct {
	mu sync.RWMutex

	loaded  bool
	onLoad  []func()
	style   domain.MapStyle
	options domain.SceneOptions

	sources    map[string]*geojson.FeatureCollection
	layers     map[string]domain.Layer
	layerOrder []string
	markers    map[string]domain.Marker
	markerIDs  []string
	camera     domain.CameraState
}

var _ repository.MapRenderer = (*Document)(nil)

// NewDocument создаёт пустую сцену. loaded=false имитирует карту, у которой ещё грузится стиль.
func NewDocument(loaded bool) *Document {
	return &Document{
		loaded:  loaded,
		style:   domain.StyleStreets,
		sources: make(map[string]*geojson.FeatureCollection),
		layers:  make(map[string]domain.Layer),
		markers: make(map[string]domain.Marker),
	}
}

func (d *Document) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// OnLoad регистрирует обработчик загрузки; если сцена уже загружена, вызывает его сразу
func (d *Document) OnLoad(fn func()) {
	d.mu.Lock()
	if !d.loaded {
		d.onLoad = append(d.onLoad, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	fn()
}

// SetLoaded помечает сцену загруженной и по порядку вызывает отложенные обработчики
func (d *Document) SetLoaded() {
	d.mu.Lock()
	if d.loaded {
		d.mu.Unlock()
		return
	}
	d.loaded = true
	pending := d.onLoad
	d.onLoad = nil
	d.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func (d *Document) SetStyle(style domain.MapStyle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.style = style
	return nil
}

func (d *Document) ConfigureScene(opts domain.SceneOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.options = opts
	if opts.Style != "" {
		d.style = opts.Style
	}
	return nil
}

func (d *Document) HasSource(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.sources[id]
	return ok
}

func (d *Document) AddSource(id string, data *geojson.FeatureCollection) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sources[id]; ok {
		return fmt.Errorf("source %q: %w", id, ErrAlreadyExists)
	}
	if data == nil {
		data = geojson.NewFeatureCollection()
	}
	d.sources[id] = data
	return nil
}

func (d *Document) SetSourceData(id string, data *geojson.FeatureCollection) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sources[id]; !ok {
		return fmt.Errorf("source %q: %w", id, ErrNotFound)
	}
	if data == nil {
		data = geojson.NewFeatureCollection()
	}
	d.sources[id] = data
	return nil
}

func (d *Document) RemoveSource(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sources[id]; !ok {
		return fmt.Errorf("source %q: %w", id, ErrNotFound)
	}
	for _, l := range d.layers {
		if l.Source == id {
			return fmt.Errorf("source %q (layer %q): %w", id, l.ID, ErrSourceInUse)
		}
	}
	delete(d.sources, id)
	return nil
}

// SourceData возвращает текущие данные источника
func (d *Document) SourceData(id string) (*geojson.FeatureCollection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fc, ok := d.sources[id]
	return fc, ok
}

func (d *Document) HasLayer(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.layers[id]
	return ok
}

func (d *Document) AddLayer(layer domain.Layer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.layers[layer.ID]; ok {
		return fmt.Errorf("layer %q: %w", layer.ID, ErrAlreadyExists)
	}
	if layer.Source != "" {
		if _, ok := d.sources[layer.Source]; !ok {
			return fmt.Errorf("layer %q -> %q: %w", layer.ID, layer.Source, ErrMissingSource)
		}
	}
	d.layers[layer.ID] = layer
	d.layerOrder = append(d.layerOrder, layer.ID)
	return nil
}

func (d *Document) RemoveLayer(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.layers[id]; !ok {
		return fmt.Errorf("layer %q: %w", id, ErrNotFound)
	}
	delete(d.layers, id)
	d.layerOrder = removeID(d.layerOrder, id)
	return nil
}

// Layer возвращает слой по идентификатору
func (d *Document) Layer(id string) (domain.Layer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.layers[id]
	return l, ok
}

func (d *Document) HasMarker(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.markers[id]
	return ok
}

func (d *Document) AddMarker(marker domain.Marker) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.markers[marker.ID]; ok {
		return fmt.Errorf("marker %q: %w", marker.ID, ErrAlreadyExists)
	}
	d.markers[marker.ID] = marker
	d.markerIDs = append(d.markerIDs, marker.ID)
	return nil
}

func (d *Document) UpdateMarker(id string, position domain.Coordinate, rotation float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.markers[id]
	if !ok {
		return fmt.Errorf("marker %q: %w", id, ErrNotFound)
	}
	m.Position = position
	m.Rotation = rotation
	d.markers[id] = m
	return nil
}

func (d *Document) RemoveMarker(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.markers[id]; !ok {
		return fmt.Errorf("marker %q: %w", id, ErrNotFound)
	}
	delete(d.markers, id)
	d.markerIDs = removeID(d.markerIDs, id)
	return nil
}

// Marker возвращает маркер по идентификатору
func (d *Document) Marker(id string) (domain.Marker, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.markers[id]
	return m, ok
}

func (d *Document) SetCamera(camera domain.CameraState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.camera = camera
	return nil
}

func (d *Document) Camera() domain.CameraState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.camera
}

// Snapshot - сериализуемое состояние сцены
type Snapshot struct {
	Loaded  bool                                  `json:"loaded"`
	Style   domain.MapStyle                       `json:"style"`
	URL     string                                `json:"style_url"`
	Options domain.SceneOptions                   `json:"options"`
	Sources map[string]*geojson.FeatureCollection `json:"sources"`
	Layers  []domain.Layer                        `json:"layers"`
	Markers []domain.Marker                       `json:"markers"`
	Camera  domain.CameraState                    `json:"camera"`
}

// Snapshot копирует текущее состояние сцены (слои и маркеры в порядке добавления)
func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Snapshot{
		Loaded:  d.loaded,
		Style:   d.style,
		URL:     d.style.URL(),
		Options: d.options,
		Sources: make(map[string]*geojson.FeatureCollection, len(d.sources)),
		Layers:  make([]domain.Layer, 0, len(d.layerOrder)),
		Markers: make([]domain.Marker, 0, len(d.markerIDs)),
		Camera:  d.camera,
	}
	for id, fc := range d.sources {
		s.Sources[id] = fc
	}
	for _, id := range d.layerOrder {
		s.Layers = append(s.Layers, d.layers[id])
	}
	for _, id := range d.markerIDs {
		s.Markers = append(s.Markers, d.markers[id])
	}
	return s
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
