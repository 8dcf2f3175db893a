package profiler

import (
	"runtime"
	"time"
)

// OverlayBuilderOption is a functional option for configuring an Overlay.
type OverlayBuilderOption func(*overlay)

// WithTitle sets the prefix of the overlay text.
//
// Parameters:
//   - title: the text shown before the statistics
//
// Returns:
//   - OverlayBuilderOption: functional option to set the title
func WithTitle(title string) OverlayBuilderOption {
	return func(o *overlay) {
		o.title = title
	}
}

// WithPoseSource attaches the camera whose position the overlay shows and edits.
//
// Parameters:
//   - pose: the camera pose source
//
// Returns:
//   - OverlayBuilderOption: functional option to set the pose source
func WithPoseSource(pose PoseSource) OverlayBuilderOption {
	return func(o *overlay) {
		o.pose = pose
	}
}

// WithTextSink sets where the overlay text is displayed.
//
// Parameters:
//   - sink: the display target
//
// Returns:
//   - OverlayBuilderOption: functional option to set the sink
func WithTextSink(sink TextSink) OverlayBuilderOption {
	return func(o *overlay) {
		o.sink = sink
	}
}

// WithUpdateInterval sets how often statistics are recomputed and logged.
//
// Parameters:
//   - interval: the stats interval
//
// Returns:
//   - OverlayBuilderOption: functional option to set the interval
func WithUpdateInterval(interval time.Duration) OverlayBuilderOption {
	return func(o *overlay) {
		o.updateInterval = interval
	}
}

// WithVisible sets whether the overlay text starts visible.
//
// Parameters:
//   - visible: initial visibility
//
// Returns:
//   - OverlayBuilderOption: functional option to set visibility
func WithVisible(visible bool) OverlayBuilderOption {
	return func(o *overlay) {
		o.visible = visible
	}
}

// withClock replaces the time and memory sources. Used by tests.
func withClock(now func() time.Time, readMem func(*runtime.MemStats)) OverlayBuilderOption {
	return func(o *overlay) {
		o.now = now
		o.readMem = readMem
	}
}
