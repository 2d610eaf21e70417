package natsbus

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
)

// Command kinds, последний токен темы
const (
	KindStyle        = "style"
	KindScene        = "scene"
	KindSourceAdd    = "source.add"
	KindSourceUpdate = "source.update"
	KindSourceRemove = "source.remove"
	KindLayerAdd     = "layer.add"
	KindLayerRemove  = "layer.remove"
	KindMarkerAdd    = "marker.add"
	KindMarkerUpdate = "marker.update"
	KindMarkerRemove = "marker.remove"
	KindCamera       = "camera"
)

// Command - сообщение для клиента карты
type Command struct {
	Seq       uint64    `json:"seq"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

type markerMove struct {
	Position domain.Coordinate `json:"position"`
	Rotation float64           `json:"rotation"`
}

// Renderer применяет изменения к базовому рендеру и публикует их.
// Команда уходит только после успешного применения изменения к base.
type Renderer struct {
	base      repository.MapRenderer
	publisher *Publisher
	subject   string
	seq       atomic.Uint64
	logger    *zap.Logger
}

func (r *Renderer) emit(kind, id string, payload any) {
	cmd := Command{
		Seq:       r.seq.Add(1),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		ID:        id,
		Payload:   payload,
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		r.logger.Error("Failed to encode render command", zap.String("kind", kind), zap.Error(err))
		return
	}
	if err := r.publisher.publish(r.subject+"."+kind, data); err != nil {
		r.logger.Warn("Failed to publish render command", zap.String("kind", kind), zap.Error(err))
	}
}

// applied публикует команду, если base принял изменение
func (r *Renderer) applied(err error, kind, id string, payload any) error {
	if err != nil {
		return err
	}
	r.emit(kind, id, payload)
	return nil
}

func (r *Renderer) Loaded() bool { return r.base.Loaded() }
func (r *Renderer) OnLoad(fn func()) { r.base.OnLoad(fn) }
func (r *Renderer) HasSource(id string) bool { return r.base.HasSource(id) }
func (r *Renderer) HasLayer(id string) bool { return r.base.HasLayer(id) }
func (r *Renderer) HasMarker(id string) bool { return r.base.HasMarker(id) }
func (r *Renderer) Camera() domain.CameraState { return r.base.Camera() }

func (r *Renderer) SetStyle(style domain.MapStyle) error {
	return r.applied(r.base.SetStyle(style), KindStyle, "", map[string]string{
		"style": string(style),
		"url":   style.URL(),
	})
}

func (r *Renderer) ConfigureScene(opts domain.SceneOptions) error {
	return r.applied(r.base.ConfigureScene(opts), KindScene, "", opts)
}

func (r *Renderer) AddSource(id string, data *geojson.FeatureCollection) error {
	if data == nil {
		data = geojson.NewFeatureCollection()
	}
	return r.applied(r.base.AddSource(id, data), KindSourceAdd, id, data)
}

func (r *Renderer) SetSourceData(id string, data *geojson.FeatureCollection) error {
	if data == nil {
		data = geojson.NewFeatureCollection()
	}
	return r.applied(r.base.SetSourceData(id, data), KindSourceUpdate, id, data)
}

func (r *Renderer) RemoveSource(id string) error {
	return r.applied(r.base.RemoveSource(id), KindSourceRemove, id, nil)
}

func (r *Renderer) AddLayer(layer domain.Layer) error {
	return r.applied(r.base.AddLayer(layer), KindLayerAdd, layer.ID, layer)
}

func (r *Renderer) RemoveLayer(id string) error {
	return r.applied(r.base.RemoveLayer(id), KindLayerRemove, id, nil)
}

func (r *Renderer) AddMarker(marker domain.Marker) error {
	return r.applied(r.base.AddMarker(marker), KindMarkerAdd, marker.ID, marker)
}

func (r *Renderer) UpdateMarker(id string, position domain.Coordinate, rotation float64) error {
	return r.applied(r.base.UpdateMarker(id, position, rotation), KindMarkerUpdate, id, markerMove{
		Position: position,
		Rotation: rotation,
	})
}

func (r *Renderer) RemoveMarker(id string) error {
	return r.applied(r.base.RemoveMarker(id), KindMarkerRemove, id, nil)
}

func (r *Renderer) SetCamera(camera domain.CameraState) error {
	return r.applied(r.base.SetCamera(camera), KindCamera, "", camera)
}
