package animation

import (
	"context"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/pkg/utils"
	"github.com/route-planner/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	doc   *scene.Document
	sched *ManualScheduler
	paths *linePath
	anim  *RouteAnimator

	starts    []int
	completes []int
	progress  []domain.ProgressReadout
	done      []domain.AnimationState
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		doc:   scene.NewDocument(true),
		sched: NewManualScheduler(0),
		paths: &linePath{n: 20},
	}
	logger := zap.NewNop()
	cam := NewCameraController(h.doc, h.sched, Viewport{Width: 800, Height: 600}, logger)
	h.anim = NewRouteAnimator(h.doc, h.sched, cam, h.paths, fixedSpeed{}, opts, Hooks{
		OnSegmentStart: func(i int, _ domain.RouteSegment) { h.starts = append(h.starts, i) },
		OnProgress: func(r domain.ProgressReadout) {
			h.progress = append(h.progress, r)
		},
		OnSegmentComplete: func(i int, _ domain.RouteSegment, _ domain.AnimationState) {
			h.completes = append(h.completes, i)
		},
		OnComplete: func(s domain.AnimationState) { h.done = append(h.done, s) },
	}, nil, logger)
	return h
}

func TestRouteAnimator_SingleFlightRoundTrip(t *testing.T) {
	h := newHarness(t, testOptions())
	seg := domain.RouteSegment{From: barcelona, To: paris, Mode: domain.ModeFlight}
	full := h.paths.BuildPath(context.Background(), barcelona.Coordinate, paris.Coordinate, domain.ModeFlight)

	// на каждом кадре живой маршрут - префикс полного пути плюс текущая точка
	h.anim.hooks.OnProgress = func(r domain.ProgressReadout) {
		h.progress = append(h.progress, r)
		fc, ok := h.doc.SourceData(LiveRouteSourceID)
		require.True(t, ok)
		ls := fc.Features[0].Geometry.(orb.LineString)
		require.LessOrEqual(t, len(ls), len(full))
		for i := 0; i < len(ls)-1; i++ {
			assert.Equal(t, full[i].Lon, ls[i][0])
			assert.Equal(t, full[i].Lat, ls[i][1])
		}
	}

	h.anim.SetSegments([]domain.RouteSegment{seg})
	h.anim.Start()
	require.True(t, h.sched.RunUntilIdle(5000))

	st := h.anim.State()
	assert.Equal(t, domain.AnimationIdle, st.Status)
	assert.True(t, st.Completed)
	assert.Equal(t, 1, st.SegmentIndex)
	assert.InDelta(t, utils.HaversineDistance(barcelona.Coordinate.Lat, barcelona.Coordinate.Lon, paris.Coordinate.Lat, paris.Coordinate.Lon), st.TotalDistanceKm, 1e-9)

	assert.False(t, h.doc.HasMarker(VehicleMarkerID))
	assert.False(t, h.doc.HasLayer(LiveRouteLayerID))
	assert.False(t, h.doc.HasSource(LiveRouteSourceID))
	assert.Equal(t, 0, h.sched.Pending())

	require.Len(t, h.done, 1)
	assert.Equal(t, []int{0}, h.starts)
	assert.Equal(t, []int{0}, h.completes)
	require.NotEmpty(t, h.progress)

	last := h.progress[len(h.progress)-1]
	assert.Equal(t, 100.0, last.Percent)
	assert.Equal(t, "Barcelona", last.FromName)
	assert.Equal(t, "Paris", last.ToName)
	assert.Equal(t, domain.ModeFlight, last.Mode)

	// прогресс монотонен
	for i := 1; i < len(h.progress); i++ {
		assert.GreaterOrEqual(t, h.progress[i].Percent, h.progress[i-1].Percent)
	}
}

func TestRouteAnimator_CancelLeavesNothingPending(t *testing.T) {
	h := newHarness(t, testOptions())
	h.anim.SetSegments([]domain.RouteSegment{{From: barcelona, To: paris, Mode: domain.ModeFlight}})
	h.anim.Start()

	h.sched.Advance(400 * time.Millisecond)
	require.True(t, h.doc.HasMarker(VehicleMarkerID))
	require.NotEmpty(t, h.progress)

	h.anim.Stop()
	h.sched.Flush()

	assert.Equal(t, 0, h.sched.Pending())
	assert.False(t, h.doc.HasMarker(VehicleMarkerID))
	assert.False(t, h.doc.HasSource(LiveRouteSourceID))

	before := len(h.progress)
	state := h.anim.State()
	h.sched.Advance(200 * time.Millisecond)

	assert.Equal(t, before, len(h.progress))
	assert.Equal(t, state, h.anim.State())
	assert.Equal(t, domain.AnimationIdle, state.Status)
	assert.Empty(t, h.done)
}

func TestRouteAnimator_ThreeSegmentsInOrder(t *testing.T) {
	h := newHarness(t, testOptions())
	segments := []domain.RouteSegment{
		{From: barcelona, To: paris, Mode: domain.ModeFlight},
		{From: paris, To: lyon, Mode: domain.ModeFlight},
		{From: lyon, To: geneva, Mode: domain.ModeFlight},
	}

	h.anim.SetSegments(segments)
	h.anim.Start()
	require.True(t, h.sched.RunUntilIdle(20000))

	assert.Equal(t, []int{0, 1, 2}, h.starts)
	assert.Equal(t, []int{0, 1, 2}, h.completes)

	var want float64
	for _, s := range segments {
		want += utils.HaversineDistance(s.From.Coordinate.Lat, s.From.Coordinate.Lon, s.To.Coordinate.Lat, s.To.Coordinate.Lon)
	}
	st := h.anim.State()
	assert.InDelta(t, want, st.TotalDistanceKm, 1e-6)
	assert.InDelta(t, want/800*60, st.TotalDurationMin, 1e-6)
	assert.Equal(t, 3, st.SegmentIndex)
	assert.True(t, st.Completed)

	// сегменты не перекрываются: прогресс сегмента i+1 приходит только после завершения i
	seen := -1
	for _, r := range h.progress {
		assert.GreaterOrEqual(t, r.SegmentIndex, seen)
		seen = r.SegmentIndex
	}
}

func TestRouteAnimator_PauseResume(t *testing.T) {
	h := newHarness(t, testOptions())
	h.anim.SetSegments([]domain.RouteSegment{{From: paris, To: lyon, Mode: domain.ModeDrive}})
	h.anim.Start()

	h.sched.Advance(300 * time.Millisecond)
	h.anim.Pause()
	h.sched.Flush()

	st := h.anim.State()
	require.Equal(t, domain.AnimationPaused, st.Status)
	assert.Greater(t, st.Progress, 0.0)
	assert.Less(t, st.Progress, 1.0)
	assert.Equal(t, 0, h.sched.Pending())
	assert.True(t, h.doc.HasMarker(VehicleMarkerID), "pause keeps the vehicle in place")

	h.sched.Advance(time.Second)
	assert.Equal(t, st, h.anim.State())

	h.anim.Resume()
	h.sched.Step()
	h.sched.Step()
	assert.GreaterOrEqual(t, h.anim.State().Progress, st.Progress)

	require.True(t, h.sched.RunUntilIdle(5000))
	assert.True(t, h.anim.State().Completed)
	assert.Equal(t, []int{0}, h.starts, "resume must not restart the segment")
}

func TestRouteAnimator_PauseBeforeReveal(t *testing.T) {
	h := newHarness(t, testOptions())
	h.anim.SetSegments([]domain.RouteSegment{{From: paris, To: lyon, Mode: domain.ModeTrain}})
	h.anim.Start()
	h.sched.Step()

	h.anim.Pause()
	h.sched.Flush()
	assert.Equal(t, 0, h.sched.Pending())
	assert.Equal(t, 1, h.paths.calls)

	h.anim.Resume()
	require.True(t, h.sched.RunUntilIdle(5000))
	assert.True(t, h.anim.State().Completed)
	assert.Equal(t, 2, h.paths.calls, "setup phase runs again")
	assert.Equal(t, []int{0}, h.starts)
}

func TestRouteAnimator_PauseDuringArrivalKeepsDelay(t *testing.T) {
	opts := testOptions()
	opts.ArrivalDelay = 800 * time.Millisecond
	h := newHarness(t, opts)
	h.anim.SetSegments([]domain.RouteSegment{
		{From: barcelona, To: paris, Mode: domain.ModeFlight},
		{From: paris, To: lyon, Mode: domain.ModeFlight},
	})
	h.anim.Start()
	for i := 0; i < 2000 && len(h.completes) == 0; i++ {
		h.sched.Step()
	}
	require.Equal(t, []int{0}, h.completes)

	h.anim.Pause()
	h.sched.Flush()
	h.anim.Resume()
	h.sched.Flush()
	assert.Equal(t, []int{0}, h.starts, "next segment waits for the arrival delay")

	h.sched.Advance(640 * time.Millisecond)
	assert.Equal(t, []int{0}, h.starts)

	h.sched.Advance(200 * time.Millisecond)
	assert.Equal(t, []int{0, 1}, h.starts)

	require.True(t, h.sched.RunUntilIdle(20000))
	assert.True(t, h.anim.State().Completed)
}

func TestRouteAnimator_PauseDuringArrivalResumesRemainder(t *testing.T) {
	opts := testOptions()
	opts.ArrivalDelay = 800 * time.Millisecond
	h := newHarness(t, opts)
	h.anim.SetSegments([]domain.RouteSegment{
		{From: paris, To: lyon, Mode: domain.ModeDrive},
		{From: lyon, To: geneva, Mode: domain.ModeDrive},
	})
	h.anim.Start()
	for i := 0; i < 2000 && len(h.completes) == 0; i++ {
		h.sched.Step()
	}
	require.Equal(t, []int{0}, h.completes)

	h.sched.Advance(320 * time.Millisecond)
	h.anim.Pause()
	h.sched.Flush()
	assert.Equal(t, 0, h.sched.Pending())

	// на паузе время прибытия не идёт
	h.sched.Advance(2 * time.Second)
	assert.Equal(t, []int{0}, h.starts)

	h.anim.Resume()
	h.sched.Flush()
	h.sched.Advance(400 * time.Millisecond)
	assert.Equal(t, []int{0}, h.starts)

	h.sched.Advance(160 * time.Millisecond)
	assert.Equal(t, []int{0, 1}, h.starts)

	require.True(t, h.sched.RunUntilIdle(20000))
	assert.Equal(t, []int{0, 1}, h.completes)
}

func TestRouteAnimator_DegeneratePath(t *testing.T) {
	h := newHarness(t, testOptions())
	h.anim.SetSegments([]domain.RouteSegment{{From: paris, To: paris, Mode: domain.ModeWalk}})
	h.anim.Start()
	require.True(t, h.sched.RunUntilIdle(1000))

	st := h.anim.State()
	assert.True(t, st.Completed)
	assert.Equal(t, 0.0, st.TotalDistanceKm)
	assert.Equal(t, []int{0}, h.completes)
	assert.False(t, h.doc.HasMarker(VehicleMarkerID))
}

func TestRouteAnimator_Preconditions(t *testing.T) {
	h := newHarness(t, testOptions())

	t.Run("empty segments", func(t *testing.T) {
		h.anim.Start()
		h.sched.Advance(100 * time.Millisecond)
		assert.Equal(t, domain.AnimationIdle, h.anim.State().Status)
		assert.Empty(t, h.starts)
	})

	t.Run("index out of range", func(t *testing.T) {
		h.anim.SetSegments([]domain.RouteSegment{{From: paris, To: lyon, Mode: domain.ModeDrive}})
		h.anim.Play(3)
		h.anim.Play(-1)
		h.sched.Advance(100 * time.Millisecond)
		assert.Equal(t, domain.AnimationIdle, h.anim.State().Status)
		assert.Empty(t, h.starts)
	})

	t.Run("resume without pause", func(t *testing.T) {
		h.anim.Resume()
		h.sched.Flush()
		assert.Equal(t, domain.AnimationIdle, h.anim.State().Status)
	})
}

func TestRouteAnimator_SetSegmentsCancelsPlayback(t *testing.T) {
	h := newHarness(t, testOptions())
	h.anim.SetSegments([]domain.RouteSegment{{From: barcelona, To: paris, Mode: domain.ModeFlight}})
	h.anim.Start()
	h.sched.Advance(300 * time.Millisecond)

	h.anim.SetSegments([]domain.RouteSegment{{From: lyon, To: geneva, Mode: domain.ModeDrive}})
	h.sched.Flush()

	assert.Equal(t, domain.AnimationState{Status: domain.AnimationIdle}, h.anim.State())
	assert.Equal(t, 0, h.sched.Pending())
	assert.False(t, h.doc.HasMarker(VehicleMarkerID))

	h.anim.Play(0)
	require.True(t, h.sched.RunUntilIdle(5000))
	assert.Equal(t, []int{0, 0}, h.starts)
	assert.True(t, h.anim.State().Completed)
}

func TestRouteAnimator_MarkerFollowsBearing(t *testing.T) {
	h := newHarness(t, testOptions())
	// строго на восток по экватору
	east := domain.RouteSegment{
		From: loc("a", "A", 10, 0),
		To:   loc("b", "B", 11, 0),
		Mode: domain.ModeDrive,
	}
	h.anim.SetSegments([]domain.RouteSegment{east})
	h.anim.Start()
	h.sched.Advance(300 * time.Millisecond)

	m, ok := h.doc.Marker(VehicleMarkerID)
	require.True(t, ok)
	assert.InDelta(t, 90.0, m.Rotation, 1e-6)
	assert.Greater(t, m.Position.Lon, 10.0)
	assert.Equal(t, 0.0, h.doc.Camera().Bearing)
}
