package natsbus

import (
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/metrics"
	"github.com/route-planner/internal/scene"
)

type published struct {
	subject string
	cmd     Command
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []published
	fail bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("connection lost")
	}
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return err
	}
	c.msgs = append(c.msgs, published{subject: subject, cmd: cmd})
	return nil
}

func TestRenderer_PublishesAppliedChanges(t *testing.T) {
	conn := &fakeConn{}
	m := metrics.NewCollector()
	p := NewPublisher(conn, "fly", m, zap.NewNop())
	doc := scene.NewDocument(true)
	r := p.Wrap("session 1", doc)

	assert.Equal(t, "fly.session_1.>", p.Subject("session 1"))

	require.NoError(t, r.SetStyle(domain.StyleDark))
	require.NoError(t, r.AddSource("live", nil))
	require.NoError(t, r.AddLayer(domain.Layer{ID: "live-line", Type: domain.LayerLine, Source: "live"}))
	require.NoError(t, r.AddMarker(domain.Marker{ID: "vehicle"}))
	require.NoError(t, r.UpdateMarker("vehicle", domain.Coordinate{Lon: 2, Lat: 41}, 90))
	require.NoError(t, r.SetCamera(domain.CameraState{Zoom: 4}))

	require.Len(t, conn.msgs, 6)
	assert.Equal(t, "fly.session_1.style", conn.msgs[0].subject)
	assert.Equal(t, "fly.session_1.source.add", conn.msgs[1].subject)
	assert.Equal(t, "live-line", conn.msgs[2].cmd.ID)
	assert.Equal(t, KindMarkerUpdate, conn.msgs[4].cmd.Kind)
	assert.Equal(t, "fly.session_1.camera", conn.msgs[5].subject)
	for i, msg := range conn.msgs {
		assert.Equal(t, uint64(i+1), msg.cmd.Seq)
	}

	// состояние base совпадает с опубликованным
	assert.True(t, doc.HasLayer("live-line"))
	assert.Equal(t, 4.0, r.Camera().Zoom)
	assert.Equal(t, 6.0, testutil.ToFloat64(m.RenderPublished))
}

func TestRenderer_RejectedChangeIsNotPublished(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "", nil, zap.NewNop())
	r := p.Wrap("s", scene.NewDocument(true))

	err := r.AddLayer(domain.Layer{ID: "orphan", Type: domain.LayerLine, Source: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, r.RemoveSource("missing"), scene.ErrNotFound)
	assert.Empty(t, conn.msgs)
	assert.Equal(t, "flythrough.s.>", p.Subject("s"))
}

func TestRenderer_PublishFailureDoesNotFailRender(t *testing.T) {
	conn := &fakeConn{fail: true}
	m := metrics.NewCollector()
	r := NewPublisher(conn, "fly", m, zap.NewNop()).Wrap("s", scene.NewDocument(true))

	require.NoError(t, r.AddMarker(domain.Marker{ID: "a"}))
	assert.True(t, r.HasMarker("a"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RenderPublishErrs))
}
