package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

// axisKeys maps each axis to the key that triggers it.
var axisKeys = [axisCount]int{
	AxisForward:   common.KeyW,
	AxisBackward:  common.KeyS,
	AxisLeft:      common.KeyA,
	AxisRight:     common.KeyD,
	AxisUp:        common.KeyQ,
	AxisDown:      common.KeyY,
	AxisYawLeft:   common.KeyO,
	AxisYawRight:  common.KeyP,
	AxisPitchUp:   common.KeyI,
	AxisPitchDown: common.KeyK,
}

// cameraControllerImpl is the single implementation of CameraController.
// Input events write key and drag state; Update is the only writer of speeds and pose.
type cameraControllerImpl struct {
	mu *sync.Mutex

	keys [common.MaxKeyCode]bool

	// Drag state. dragAxes is set by MouseMove and consumed by Update.
	dragging bool
	lastX    float64
	lastY    float64
	dragAxes [axisCount]bool

	speeds [axisCount]float32

	position mgl32.Vec3
	pitch    float32
	yaw      float32

	startPosition mgl32.Vec3
	startPitch    float32
	startYaw      float32

	acceleration float32
	deceleration float32
	maxSpeed     float32
	integration  float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new free-fly controller.
// Defaults: acceleration 0.01, deceleration 0.006, max speed 0.3, integration 3.141,
// start position (1, 0, -2) facing +Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu: &sync.Mutex{},

		startPosition: mgl32.Vec3{1, 0, -2},

		acceleration: 0.01,
		deceleration: 0.006,
		maxSpeed:     0.3,
		integration:  3.141,
	}

	for _, option := range options {
		option(cc)
	}

	cc.position = cc.startPosition
	cc.pitch = cc.startPitch
	cc.yaw = cc.startYaw
	return cc
}

func (cc *cameraControllerImpl) KeyDown(key int) {
	if key < 0 || key >= len(cc.keys) {
		return
	}
	cc.mu.Lock()
	cc.keys[key] = true
	cc.mu.Unlock()
}

func (cc *cameraControllerImpl) KeyUp(key int) {
	if key < 0 || key >= len(cc.keys) {
		return
	}
	cc.mu.Lock()
	cc.keys[key] = false
	cc.mu.Unlock()
}

func (cc *cameraControllerImpl) MouseDown(x, y float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.dragging = true
	cc.lastX, cc.lastY = x, y
}

func (cc *cameraControllerImpl) MouseUp() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.endDrag()
}

func (cc *cameraControllerImpl) MouseLeave() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.endDrag()
}

func (cc *cameraControllerImpl) MouseMove(x, y float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.dragging {
		return
	}

	// Client Y grows downward, so an upward drag has dy < 0.
	dx, dy := x-cc.lastX, y-cc.lastY
	switch {
	case dx > 0:
		cc.dragAxes[AxisRight] = true
	case dx < 0:
		cc.dragAxes[AxisLeft] = true
	}
	switch {
	case dy < 0:
		cc.dragAxes[AxisForward] = true
	case dy > 0:
		cc.dragAxes[AxisBackward] = true
	}
	cc.lastX, cc.lastY = x, y
}

func (cc *cameraControllerImpl) Update(t float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	for axis := range axisCount {
		cc.speeds[axis] = cc.step(cc.speeds[axis], cc.active(axis), t)
	}
	cc.dragAxes = [axisCount]bool{}

	k := cc.integration
	sinYaw := float32(math.Sin(float64(cc.yaw)))
	cosYaw := float32(math.Cos(float64(cc.yaw)))

	forward := k * (cc.speeds[AxisForward] - cc.speeds[AxisBackward])
	right := k * (cc.speeds[AxisRight] - cc.speeds[AxisLeft])
	up := k * (cc.speeds[AxisUp] - cc.speeds[AxisDown])

	// Translation uses the yaw from before this frame's rotation.
	cc.position[0] += sinYaw*forward + cosYaw*right
	cc.position[1] += up
	cc.position[2] += cosYaw*forward - sinYaw*right

	cc.yaw += k * (cc.speeds[AxisYawRight] - cc.speeds[AxisYawLeft])
	cc.pitch += k * (cc.speeds[AxisPitchDown] - cc.speeds[AxisPitchUp])
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(pos mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = pos
}

func (cc *cameraControllerImpl) Rotation() (pitch, yaw float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch, cc.yaw
}

func (cc *cameraControllerImpl) SetRotation(pitch, yaw float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pitch, cc.yaw = pitch, yaw
}

func (cc *cameraControllerImpl) Speed(axis Axis) float32 {
	if axis < 0 || axis >= axisCount {
		return 0
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speeds[axis]
}

func (cc *cameraControllerImpl) Reset() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.keys = [common.MaxKeyCode]bool{}
	cc.speeds = [axisCount]float32{}
	cc.endDrag()
	cc.position = cc.startPosition
	cc.pitch = cc.startPitch
	cc.yaw = cc.startYaw
}

func (cc *cameraControllerImpl) World() mgl32.Mat4 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return mgl32.Translate3D(cc.position[0], cc.position[1], cc.position[2]).
		Mul4(mgl32.HomogRotate3DY(cc.yaw)).
		Mul4(mgl32.HomogRotate3DX(cc.pitch))
}

// --- internal helpers ---

// active reports whether an axis is triggered by its key or by a pending drag.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) active(axis Axis) bool {
	return cc.keys[axisKeys[axis]] || cc.dragAxes[axis]
}

// step applies one frame of acceleration or deceleration to a speed.
func (cc *cameraControllerImpl) step(speed float32, active bool, t float32) float32 {
	if active {
		return min(speed+t*cc.acceleration, t*cc.maxSpeed)
	}
	return max(speed-t*cc.deceleration, 0)
}

// endDrag clears the drag and any directions it has not yet delivered.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) endDrag() {
	cc.dragging = false
	cc.dragAxes = [axisCount]bool{}
}
