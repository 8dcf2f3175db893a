package graphics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

// SwapChain is the presentable back buffer of a window and its depth/stencil buffer.
type SwapChain interface {
	// Resize recreates the back buffer and depth/stencil buffer at the new size.
	// Zero dimensions are clamped to 1. Must not be called between a clear and Present.
	//
	// Parameters:
	//   - width: the new client width in pixels
	//   - height: the new client height in pixels
	//
	// Returns:
	//   - error: ErrFrameInFlight, ErrReleased, or a driver error
	Resize(width, height int) error

	// Present submits the recorded frame and shows it.
	//
	// Parameters:
	//   - vsync: true to wait for vertical blank (FIFO), false to present immediately
	//
	// Returns:
	//   - error: ErrNoFrame if no frame was cleared, or a driver error
	Present(vsync bool) error

	// SetFullscreen switches the window in or out of fullscreen and resizes to the new client size.
	//
	// Parameters:
	//   - on: true for fullscreen
	//
	// Returns:
	//   - error: error if the window cannot change mode or the resize fails
	SetFullscreen(on bool) error

	// IsFullscreen reports whether the window is fullscreen.
	IsFullscreen() bool

	// Width returns the back buffer width in pixels.
	Width() int

	// Height returns the back buffer height in pixels.
	Height() int

	// Release frees the surface and depth/stencil buffer. Calling it more than once is a no-op.
	Release()
}

type swapChain struct {
	owner  *device
	target SurfaceTarget

	mu      sync.Mutex
	surface surfaceHandle
	depth   handle
	width   int
	height  int
	vsync   bool

	// depthErr is why depth is missing after a failed Resize.
	depthErr error
}

var _ SwapChain = &swapChain{}

func (d *device) CreateSwapChain(target SurfaceTarget) (SwapChain, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errors.New("swap chain target is nil")
	}

	surface, err := d.drv.createSurface(target)
	if err != nil {
		return nil, fmt.Errorf("failed to create surface: %w", err)
	}

	width, height := clampSize(target.Width(), target.Height())
	if err := surface.configure(uint32(width), uint32(height), false); err != nil {
		surface.release()
		return nil, fmt.Errorf("failed to configure surface: %w", err)
	}

	depth, err := d.drv.createDepthTarget(uint32(width), uint32(height))
	if err != nil {
		surface.release()
		return nil, err
	}

	sc := &swapChain{
		owner:   d,
		target:  target,
		surface: surface,
		depth:   depth,
		width:   width,
		height:  height,
	}
	d.track(sc)
	common.Logger().Debug("swap chain created", "width", width, "height", height, "format", surface.format())
	return sc, nil
}

func (s *swapChain) Resize(width, height int) error {
	if err := s.owner.alive(); err != nil {
		return err
	}
	if s.owner.drv.inFrame() {
		return ErrFrameInFlight
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return ErrReleased
	}
	width, height = clampSize(width, height)

	if err := s.surface.configure(uint32(width), uint32(height), s.vsync); err != nil {
		return fmt.Errorf("failed to reconfigure surface to %dx%d: %w", width, height, err)
	}
	if s.depth != nil {
		s.depth.release()
		s.depth = nil
	}
	s.width, s.height = width, height

	depth, err := s.owner.drv.createDepthTarget(uint32(width), uint32(height))
	if err != nil {
		s.depthErr = fmt.Errorf("failed to recreate depth target at %dx%d: %w", width, height, err)
		return s.depthErr
	}
	s.depth = depth
	s.depthErr = nil
	return nil
}

func (s *swapChain) Present(vsync bool) error {
	if err := s.owner.alive(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return ErrReleased
	}
	if s.owner.ctx.frameTarget() != s {
		return ErrNoFrame
	}

	err := s.owner.drv.present(s.surface)
	s.owner.ctx.endFrame()
	if err != nil {
		return err
	}

	// The back buffer is only reconfigurable once the acquired image has been presented.
	if vsync != s.vsync {
		if err := s.surface.configure(uint32(s.width), uint32(s.height), vsync); err != nil {
			return fmt.Errorf("failed to switch vsync: %w", err)
		}
		s.vsync = vsync
	}
	return nil
}

func (s *swapChain) SetFullscreen(on bool) error {
	ft, ok := s.target.(FullscreenTarget)
	if !ok {
		return errors.New("window does not support fullscreen")
	}
	if ft.IsFullscreen() == on {
		return nil
	}
	if err := ft.SetFullscreen(on); err != nil {
		return err
	}
	return s.Resize(ft.Width(), ft.Height())
}

func (s *swapChain) IsFullscreen() bool {
	ft, ok := s.target.(FullscreenTarget)
	return ok && ft.IsFullscreen()
}

func (s *swapChain) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

func (s *swapChain) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

func (s *swapChain) Release() {
	s.mu.Lock()
	surface, depth := s.surface, s.depth
	s.surface, s.depth = nil, nil
	s.mu.Unlock()

	if surface == nil {
		return
	}
	if s.owner.ctx.frameTarget() == s {
		s.owner.ctx.endFrame()
	}
	if depth != nil {
		depth.release()
	}
	surface.release()
	s.owner.untrack(s)
}

// frameHandles returns the surface and depth target for beginning a frame.
func (s *swapChain) frameHandles() (surfaceHandle, handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return nil, nil, ErrReleased
	}
	if s.depth == nil {
		if s.depthErr != nil {
			return nil, nil, s.depthErr
		}
		return nil, nil, ErrReleased
	}
	return s.surface, s.depth, nil
}

func clampSize(width, height int) (int, int) {
	return max(width, 1), max(height, 1)
}
