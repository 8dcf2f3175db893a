// Package window owns the native window, its message loop and the raw input events
// fed to the camera controller.
package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNotInitialized is returned when a platform call reaches a window that was never created or is already closed.
var ErrNotInitialized = errors.New("window is not initialized")

// Window provides platform windowing and input event handling.
// Wraps platform-specific window implementations with a common interface.
// Every method must be called from the goroutine that created the window.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the client area is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(keyCode int))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyUpCallback(callback func(keyCode int))

	// SetMouseDownCallback sets the callback for right mouse button presses.
	//
	// Parameters:
	//   - callback: function receiving the cursor position in client pixels
	SetMouseDownCallback(callback func(x, y float64))

	// SetMouseUpCallback sets the callback for right mouse button releases.
	//
	// Parameters:
	//   - callback: function to call
	SetMouseUpCallback(callback func())

	// SetMouseMoveCallback sets the callback for cursor movement.
	//
	// Parameters:
	//   - callback: function receiving the cursor position in client pixels
	SetMouseMoveCallback(callback func(x, y float64))

	// SetMouseLeaveCallback sets the callback for the cursor leaving the client area.
	//
	// Parameters:
	//   - callback: function to call
	SetMouseLeaveCallback(callback func())

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// RequestClose asks the message loop to stop after the current iteration.
	// The window stays alive until Close.
	RequestClose()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: ErrNotInitialized if the window is already closed
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current window client area width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current window client area height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int

	// SetFullscreen switches between exclusive fullscreen on the primary monitor and windowed mode.
	// Width and Height reflect the new client size when it returns.
	//
	// Parameters:
	//   - on: true for fullscreen
	//
	// Returns:
	//   - error: error if no monitor is available or the window is closed
	SetFullscreen(on bool) error

	// IsFullscreen reports whether the window is in fullscreen mode.
	//
	// Returns:
	//   - bool: true when fullscreen
	IsFullscreen() bool

	// SetTitle replaces the title bar text.
	//
	// Parameters:
	//   - title: the new title
	SetTitle(title string)
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// maxWidth and maxHeight bound the client area during resize.
	maxWidth  int
	maxHeight int

	// minWidth and minHeight bound the client area during resize.
	minWidth  int
	minHeight int

	// width is the current window client area width in pixels.
	width int

	// height is the current window client area height in pixels.
	height int

	// fullscreen is true while the window is attached to a monitor.
	fullscreen bool

	// windowedX, windowedY, windowedW and windowedH restore the windowed placement after fullscreen.
	windowedX, windowedY int
	windowedW, windowedH int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate     func()
	onResize     func(width, height int)
	onKeyDown    func(keyCode int)
	onKeyUp      func(keyCode int)
	onMouseDown  func(x, y float64)
	onMouseUp    func()
	onMouseMove  func(x, y float64)
	onMouseLeave func()
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
//   - error: error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "Ghost Engine 3D",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 200,
		width:     1024,
		height:    768,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode int)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode int)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMouseDownCallback(callback func(x, y float64)) {
	w.onMouseDown = callback
}

func (w *engineWindow) SetMouseUpCallback(callback func()) {
	w.onMouseUp = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y float64)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SetMouseLeaveCallback(callback func()) {
	w.onMouseLeave = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) SetFullscreen(on bool) error {
	if w.fullscreen == on {
		return nil
	}
	return platformSetFullscreen(w, on)
}

func (w *engineWindow) IsFullscreen() bool {
	return w.fullscreen
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	platformSetTitle(w, title)
}

// --- event dispatch, shared by every platform backend ---

func (w *engineWindow) keyDown(keyCode int) {
	if w.onKeyDown != nil {
		w.onKeyDown(keyCode)
	}
}

func (w *engineWindow) keyUp(keyCode int) {
	if w.onKeyUp != nil {
		w.onKeyUp(keyCode)
	}
}

func (w *engineWindow) mouseDown(x, y float64) {
	if w.onMouseDown != nil {
		w.onMouseDown(x, y)
	}
}

func (w *engineWindow) mouseUp() {
	if w.onMouseUp != nil {
		w.onMouseUp()
	}
}

func (w *engineWindow) mouseMove(x, y float64) {
	if w.onMouseMove != nil {
		w.onMouseMove(x, y)
	}
}

func (w *engineWindow) mouseLeave() {
	if w.onMouseLeave != nil {
		w.onMouseLeave()
	}
}

// resized records a new client size and notifies the resize callback.
// A minimized window reports 0x0; the callback still fires so the consumer can skip frames.
func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
