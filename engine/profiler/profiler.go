// Package profiler implements the debug overlay: frame rate and memory statistics
// plus a live camera position readout that can also be edited.
package profiler

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

// PoseSource is the camera state the overlay displays and edits.
type PoseSource interface {
	Position() mgl32.Vec3
	SetPosition(pos mgl32.Vec3)
}

// TextSink displays the overlay text, typically the window title bar.
type TextSink interface {
	SetTitle(title string)
}

// Stats is one interval's worth of frame and memory statistics.
type Stats struct {
	FPS         float64
	FrameTime   time.Duration // average time between BeginFrame calls
	HeapMB      float64       // live heap objects
	AllocRateMB float64       // heap allocation churn per second
	SysMB       float64       // memory obtained from the OS
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Overlay is the debug overlay driven by the frame orchestrator.
// BeginFrame and Render bracket the frame's own draw call.
type Overlay interface {
	// BeginFrame marks the start of a frame for timing purposes.
	BeginFrame()

	// Render refreshes the overlay text. Once per update interval it recomputes Stats
	// and logs them.
	//
	// Returns:
	//   - bool: true if stats were recomputed this frame
	Render() bool

	// Stats returns the statistics from the last completed interval.
	//
	// Returns:
	//   - Stats: the last interval's statistics
	Stats() Stats

	// Text returns the text currently shown by the overlay.
	//
	// Returns:
	//   - string: the overlay text
	Text() string

	// CameraPosition reads the camera position shown by the overlay.
	//
	// Returns:
	//   - mgl32.Vec3: the camera position, zero when no pose source is attached
	CameraPosition() mgl32.Vec3

	// SetCameraPosition moves the camera. Ignored when no pose source is attached.
	//
	// Parameters:
	//   - pos: the new world-space position
	SetCameraPosition(pos mgl32.Vec3)

	// SetVisible shows or hides the overlay text. Statistics keep being collected.
	//
	// Parameters:
	//   - visible: true to show the overlay
	SetVisible(visible bool)

	// Visible reports whether the overlay text is shown.
	//
	// Returns:
	//   - bool: true when visible
	Visible() bool
}

type overlay struct {
	mu *sync.Mutex

	title          string
	pose           PoseSource
	sink           TextSink
	updateInterval time.Duration
	now            func() time.Time
	readMem        func(*runtime.MemStats)

	visible     bool
	frameCount  int
	frameStart  time.Time
	frameTotal  time.Duration
	lastTime    time.Time
	memStats    runtime.MemStats
	lastGCCount uint32
	lastAlloc   uint64
	stats       Stats
	text        string
}

var _ Overlay = &overlay{}

// NewOverlay creates a debug overlay. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the overlay
//
// Returns:
//   - Overlay: the newly created overlay
func NewOverlay(options ...OverlayBuilderOption) Overlay {
	o := &overlay{
		mu:             &sync.Mutex{},
		title:          "Ghost Engine 3D",
		updateInterval: time.Second,
		now:            time.Now,
		readMem:        runtime.ReadMemStats,
		visible:        true,
	}
	for _, option := range options {
		option(o)
	}
	o.lastTime = o.now()
	return o
}

func (o *overlay) BeginFrame() {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	if !o.frameStart.IsZero() {
		o.frameTotal += now.Sub(o.frameStart)
	}
	o.frameStart = now
	o.frameCount++
}

func (o *overlay) Render() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	currentTime := o.now()
	elapsed := currentTime.Sub(o.lastTime)
	refreshed := false

	if elapsed >= o.updateInterval && elapsed > 0 {
		o.collect(elapsed)
		common.Logger().Info("frame stats",
			"fps", o.stats.FPS,
			"frame_time", o.stats.FrameTime,
			"heap_mb", o.stats.HeapMB,
			"alloc_rate_mb", o.stats.AllocRateMB,
			"gc", o.stats.GCCount,
			"gc_last_us", o.stats.LastPauseUs,
			"gc_max_us", o.stats.MaxPauseUs,
			"sys_mb", o.stats.SysMB,
		)
		o.lastTime = currentTime
		refreshed = true
	}

	o.text = o.format()
	if o.sink != nil {
		if o.visible {
			o.sink.SetTitle(o.text)
		} else if refreshed {
			o.sink.SetTitle(o.title)
		}
	}
	return refreshed
}

func (o *overlay) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

func (o *overlay) Text() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.text
}

func (o *overlay) CameraPosition() mgl32.Vec3 {
	if o.pose == nil {
		return mgl32.Vec3{}
	}
	return o.pose.Position()
}

func (o *overlay) SetCameraPosition(pos mgl32.Vec3) {
	if o.pose == nil {
		return
	}
	o.pose.SetPosition(pos)
}

func (o *overlay) SetVisible(visible bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = visible
}

func (o *overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// collect recomputes the interval statistics and resets the frame counters.
// Caller must hold the mutex.
func (o *overlay) collect(elapsed time.Duration) {
	o.readMem(&o.memStats)

	s := Stats{
		FPS:    float64(o.frameCount) / elapsed.Seconds(),
		HeapMB: float64(o.memStats.Alloc) / 1024 / 1024,
		SysMB:  float64(o.memStats.Sys) / 1024 / 1024,
	}
	if o.frameCount > 1 {
		s.FrameTime = o.frameTotal / time.Duration(o.frameCount-1)
	}

	allocDelta := o.memStats.TotalAlloc - o.lastAlloc
	s.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	s.GCCount = o.memStats.NumGC
	if s.GCCount > 0 {
		s.LastPauseUs = o.memStats.PauseNs[(s.GCCount-1)%256] / 1000

		startIdx := o.lastGCCount
		if s.GCCount-startIdx > 256 {
			startIdx = s.GCCount - 256
		}
		for i := startIdx; i < s.GCCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, o.memStats.PauseNs[i%256]/1000)
		}
	}

	o.stats = s
	o.frameCount = 0
	o.frameTotal = 0
	o.frameStart = time.Time{}
	o.lastGCCount = s.GCCount
	o.lastAlloc = o.memStats.TotalAlloc
}

// format renders the overlay line. Caller must hold the mutex.
func (o *overlay) format() string {
	text := fmt.Sprintf("%s | FPS %.1f | Heap %.1f MB", o.title, o.stats.FPS, o.stats.HeapMB)
	if o.pose != nil {
		p := o.pose.Position()
		text += fmt.Sprintf(" | Camera (%.2f, %.2f, %.2f)", p.X(), p.Y(), p.Z())
	}
	return text
}
