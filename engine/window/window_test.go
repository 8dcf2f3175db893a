package window

import (
	"strconv"
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

// recorder captures every callback a window delivers.
type recorder struct {
	events []string
	x, y   float64
	w, h   int
}

func newRecordingWindow() (*engineWindow, *recorder) {
	rec := &recorder{}
	w := &engineWindow{}
	w.SetKeyDownCallback(func(k int) { rec.events = append(rec.events, "down:"+strconv.Itoa(k)) })
	w.SetKeyUpCallback(func(k int) { rec.events = append(rec.events, "up:"+strconv.Itoa(k)) })
	w.SetMouseDownCallback(func(x, y float64) {
		rec.events = append(rec.events, "mouse-down")
		rec.x, rec.y = x, y
	})
	w.SetMouseUpCallback(func() { rec.events = append(rec.events, "mouse-up") })
	w.SetMouseMoveCallback(func(x, y float64) {
		rec.events = append(rec.events, "move")
		rec.x, rec.y = x, y
	})
	w.SetMouseLeaveCallback(func() { rec.events = append(rec.events, "leave") })
	w.SetResizeCallback(func(width, height int) {
		rec.events = append(rec.events, "resize")
		rec.w, rec.h = width, height
	})
	return w, rec
}

func TestDispatchKey(t *testing.T) {
	w, rec := newRecordingWindow()

	dispatchKey(w, glfw.KeyW, glfw.Press)
	dispatchKey(w, glfw.KeyW, glfw.Repeat)
	dispatchKey(w, glfw.KeyW, glfw.Release)

	assert.Equal(t, []string{"down:87", "down:87", "up:87"}, rec.events)
}

func TestDispatchMouseButtonOnlyRight(t *testing.T) {
	w, rec := newRecordingWindow()

	dispatchMouseButton(w, glfw.MouseButtonLeft, glfw.Press, 1, 1)
	dispatchMouseButton(w, glfw.MouseButtonMiddle, glfw.Press, 1, 1)
	assert.Empty(t, rec.events)

	dispatchMouseButton(w, glfw.MouseButtonRight, glfw.Press, 40, 30)
	dispatchMouseButton(w, glfw.MouseButtonRight, glfw.Release, 41, 30)
	assert.Equal(t, []string{"mouse-down", "mouse-up"}, rec.events)
	assert.Equal(t, 40.0, rec.x)
	assert.Equal(t, 30.0, rec.y)
}

func TestResizedUpdatesSize(t *testing.T) {
	w, rec := newRecordingWindow()

	w.resized(800, 600)
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())
	assert.Equal(t, []string{"resize"}, rec.events)

	w.resized(0, 0)
	assert.Equal(t, 0, rec.w)
	assert.Equal(t, 0, rec.h)
}

func TestCallbacksAreOptional(t *testing.T) {
	w := &engineWindow{}
	assert.NotPanics(t, func() {
		w.keyDown(1)
		w.keyUp(1)
		w.mouseDown(0, 0)
		w.mouseUp()
		w.mouseMove(0, 0)
		w.mouseLeave()
		w.resized(10, 10)
	})
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	assert.NotPanics(t, w.RequestClose)
	assert.Nil(t, w.SurfaceDescriptor())
	assert.ErrorIs(t, w.Close(), ErrNotInitialized)
	assert.ErrorIs(t, w.SetFullscreen(true), ErrNotInitialized)
	assert.False(t, w.IsFullscreen())
	assert.NoError(t, w.SetFullscreen(false))

	w.SetTitle("stats")
	assert.Equal(t, "stats", w.title)
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{}
	for _, opt := range []WindowBuilderOption{
		WithTitle("demo"),
		WithSize(640, 480),
		WithMinSize(100, 50),
		WithMaxSize(1920, 1080),
	} {
		opt(w)
	}
	assert.Equal(t, "demo", w.title)
	assert.Equal(t, 640, w.width)
	assert.Equal(t, 480, w.height)
	assert.Equal(t, 100, w.minWidth)
	assert.Equal(t, 50, w.minHeight)
	assert.Equal(t, 1920, w.maxWidth)
	assert.Equal(t, 1080, w.maxHeight)
}
