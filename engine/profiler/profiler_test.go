package profiler

import (
	"runtime"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fakePose struct {
	pos mgl32.Vec3
}

func (p *fakePose) Position() mgl32.Vec3       { return p.pos }
func (p *fakePose) SetPosition(pos mgl32.Vec3) { p.pos = pos }

type fakeSink struct {
	titles []string
}

func (s *fakeSink) SetTitle(title string) { s.titles = append(s.titles, title) }

func fixedMem(ms *runtime.MemStats) {
	ms.Alloc = 4 * 1024 * 1024
	ms.Sys = 16 * 1024 * 1024
	ms.TotalAlloc = 8 * 1024 * 1024
	ms.NumGC = 2
	ms.PauseNs[0] = 3000
	ms.PauseNs[1] = 1000
}

func newTestOverlay(options ...OverlayBuilderOption) (Overlay, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	return NewOverlay(append([]OverlayBuilderOption{withClock(clock.now, fixedMem)}, options...)...), clock
}

func TestRenderComputesStatsEachInterval(t *testing.T) {
	o, clock := newTestOverlay()

	for range 99 {
		o.BeginFrame()
		clock.advance(10 * time.Millisecond)
		assert.False(t, o.Render())
	}
	o.BeginFrame()
	clock.advance(10 * time.Millisecond)
	assert.True(t, o.Render())

	s := o.Stats()
	assert.InDelta(t, 100, s.FPS, 1e-9)
	assert.Equal(t, 10*time.Millisecond, s.FrameTime)
	assert.InDelta(t, 4, s.HeapMB, 1e-9)
	assert.InDelta(t, 16, s.SysMB, 1e-9)
	assert.InDelta(t, 8, s.AllocRateMB, 1e-6)
	assert.Equal(t, uint32(2), s.GCCount)
	assert.Equal(t, uint64(1), s.LastPauseUs)
	assert.Equal(t, uint64(3), s.MaxPauseUs)
}

func TestOverlayShowsCameraPosition(t *testing.T) {
	pose := &fakePose{pos: mgl32.Vec3{1, 0, -2}}
	sink := &fakeSink{}
	o, _ := newTestOverlay(WithPoseSource(pose), WithTextSink(sink), WithTitle("demo"))

	o.BeginFrame()
	o.Render()
	assert.Equal(t, "demo | FPS 0.0 | Heap 0.0 MB | Camera (1.00, 0.00, -2.00)", o.Text())
	assert.Equal(t, []string{o.Text()}, sink.titles)

	o.SetCameraPosition(mgl32.Vec3{3, 4, 5})
	assert.Equal(t, mgl32.Vec3{3, 4, 5}, pose.pos)
	assert.Equal(t, mgl32.Vec3{3, 4, 5}, o.CameraPosition())
}

func TestHiddenOverlayRestoresTitle(t *testing.T) {
	sink := &fakeSink{}
	o, clock := newTestOverlay(WithTextSink(sink), WithTitle("demo"), WithVisible(false))
	assert.False(t, o.Visible())

	o.Render()
	assert.Empty(t, sink.titles)

	clock.advance(2 * time.Second)
	assert.True(t, o.Render())
	assert.Equal(t, []string{"demo"}, sink.titles)

	o.SetVisible(true)
	o.Render()
	assert.Len(t, sink.titles, 2)
}

func TestOverlayWithoutPose(t *testing.T) {
	o, _ := newTestOverlay()
	assert.Equal(t, mgl32.Vec3{}, o.CameraPosition())
	assert.NotPanics(t, func() { o.SetCameraPosition(mgl32.Vec3{1, 1, 1}) })
}
