package graphics

import "errors"

var (
	// ErrNoBackend is returned when no driver preference could open a device.
	ErrNoBackend = errors.New("no usable graphics backend")
	// ErrDeviceExists is returned when a device is created while another is still open.
	ErrDeviceExists = errors.New("a graphics device is already open")
	// ErrDeviceClosed is returned by factories and draws after the device was closed.
	ErrDeviceClosed = errors.New("graphics device is closed")
	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("resource has been released")
	// ErrForeignResource is returned when a resource created elsewhere is bound.
	ErrForeignResource = errors.New("resource was not created by this device")

	// ErrSizeMismatch is returned when data does not match a buffer's declared size.
	ErrSizeMismatch = errors.New("data size does not match buffer size")
	// ErrLayoutMismatch is returned when buffer layout and shader inputs disagree.
	ErrLayoutMismatch = errors.New("buffer layout does not match shader input")
	// ErrWrongStage is returned when a compiled program is bound to the wrong stage.
	ErrWrongStage = errors.New("shader blob compiled for a different stage")
	// ErrTextureLoad is returned when a texture file cannot be loaded.
	ErrTextureLoad = errors.New("loading texture resources was not successful")

	// ErrNoFrame is returned when drawing or presenting without a cleared frame.
	ErrNoFrame = errors.New("no frame in flight; clear the render target first")
	// ErrFrameInFlight is returned when a frame is begun or a swap chain resized mid-frame.
	ErrFrameInFlight = errors.New("a frame is already in flight")
	// ErrMissingShader is returned when drawing without both programs bound.
	ErrMissingShader = errors.New("vertex and pixel shaders must be bound")
	// ErrUnboundResource is returned when a shader binding has no bound resource.
	ErrUnboundResource = errors.New("shader binding has no bound resource")
)
