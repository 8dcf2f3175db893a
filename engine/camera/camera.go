// Package camera turns keyboard and mouse input into a free-fly camera pose and
// derives the view and projection matrices used by the frame payload.
package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	worldMatrix      mgl32.Mat4
	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4

	controller CameraController
}

// Camera holds perspective settings and computes the camera's world, view and
// projection matrices from its controller each frame via Update().
type Camera interface {
	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// WorldMatrix returns the camera-to-world transform captured by the last Update.
	//
	// Returns:
	//   - mgl32.Mat4: the camera's world matrix
	WorldMatrix() mgl32.Mat4

	// ViewMatrix returns the exact inverse of WorldMatrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the left-handed perspective projection with depth in [0, 1].
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// Controller returns the attached CameraController.
	//
	// Returns:
	//   - CameraController: the attached controller, never nil
	Controller() CameraController

	// Update reads the controller pose and recomputes every matrix.
	// Should be called once per frame after the controller has been updated.
	Update()

	// SetAspectFromSize sets the aspect ratio from a client size and recomputes the projection.
	// A zero height leaves the aspect unchanged.
	//
	// Parameters:
	//   - width, height: client area size in pixels
	SetAspectFromSize(width, height uint32)

	// SetFov sets the vertical field of view in radians and recomputes the projection.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with fov π/2, near 0.1, far 100 and aspect 1.
// Without WithController a default free-fly controller is attached.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		fov:    math.Pi / 2,
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewCameraController()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) WorldMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.worldMatrix
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) SetAspectFromSize(width, height uint32) {
	if height == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = float32(width) / float32(height)
	c.projectionMatrix = common.PerspectiveLH(c.fov, c.aspect, c.near, c.far)
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.projectionMatrix = common.PerspectiveLH(c.fov, c.aspect, c.near, c.far)
}

// updateMatrices recalculates the world, view and projection matrices from the controller.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.worldMatrix = c.controller.World()
	c.viewMatrix = c.worldMatrix.Inv()
	c.projectionMatrix = common.PerspectiveLH(c.fov, c.aspect, c.near, c.far)
}
