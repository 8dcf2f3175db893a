package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithAcceleration sets how fast an active axis gains speed, per second of frame time.
//
// Parameters:
//   - accel: speed gained per second while the axis is triggered
//
// Returns:
//   - CameraControllerOption: functional option to set the acceleration
func WithAcceleration(accel float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.acceleration = accel
	}
}

// WithDeceleration sets how fast an idle axis loses speed, per second of frame time.
//
// Parameters:
//   - decel: speed lost per second while the axis is idle
//
// Returns:
//   - CameraControllerOption: functional option to set the deceleration
func WithDeceleration(decel float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.deceleration = decel
	}
}

// WithMaxSpeed sets the per-second speed cap. An axis never exceeds t*maxSpeed for frame time t.
//
// Parameters:
//   - max: the speed cap
//
// Returns:
//   - CameraControllerOption: functional option to set the speed cap
func WithMaxSpeed(max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.maxSpeed = max
	}
}

// WithIntegration sets the factor applied to axis speeds when they are integrated into the pose.
//
// Parameters:
//   - k: integration factor
//
// Returns:
//   - CameraControllerOption: functional option to set the integration factor
func WithIntegration(k float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.integration = k
	}
}

// WithStartPosition sets the position the controller starts at and returns to on Reset.
//
// Parameters:
//   - pos: world-space start position
//
// Returns:
//   - CameraControllerOption: functional option to set the start position
func WithStartPosition(pos mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.startPosition = pos
	}
}

// WithStartRotation sets the orientation the controller starts at and returns to on Reset.
//
// Parameters:
//   - pitch: rotation around the X axis in radians
//   - yaw: rotation around the Y axis in radians
//
// Returns:
//   - CameraControllerOption: functional option to set the start orientation
func WithStartRotation(pitch, yaw float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.startPitch = pitch
		cc.startYaw = yaw
	}
}
