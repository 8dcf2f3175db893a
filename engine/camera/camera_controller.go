package camera

import "github.com/go-gl/mathgl/mgl32"

// Axis identifies one of the controller's ten speed accumulators.
type Axis int

const (
	AxisForward Axis = iota
	AxisBackward
	AxisLeft
	AxisRight
	AxisUp
	AxisDown
	AxisYawLeft
	AxisYawRight
	AxisPitchUp
	AxisPitchDown

	axisCount
)

var axisNames = [axisCount]string{
	"forward", "backward", "left", "right", "up", "down",
	"yaw-left", "yaw-right", "pitch-up", "pitch-down",
}

// String returns the axis name.
func (a Axis) String() string {
	if a < 0 || a >= axisCount {
		return "axis(?)"
	}
	return axisNames[a]
}

// CameraController defines the free-fly input accumulator.
// Key and mouse events only record state; Update folds that state into per-axis
// speeds and integrates them into the camera pose. Events and Update may be called
// from different goroutines.
type CameraController interface {
	inputCameraController

	// Update advances every axis by one frame and integrates position and orientation.
	// Axes whose trigger is active ramp up by t*acceleration, clamped to t*maxSpeed.
	// Inactive axes ramp down by t*deceleration, clamped to 0.
	//
	// Parameters:
	//   - t: elapsed frame time in seconds, 0 on the first frame
	Update(t float32)

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// SetPosition sets the camera's world-space position directly. Speeds are left untouched.
	//
	// Parameters:
	//   - pos: world-space coordinates
	SetPosition(pos mgl32.Vec3)

	// Rotation returns the camera's orientation.
	//
	// Returns:
	//   - pitch: rotation around the X axis in radians
	//   - yaw: rotation around the Y axis in radians
	Rotation() (pitch, yaw float32)

	// SetRotation sets the camera's orientation directly.
	//
	// Parameters:
	//   - pitch: rotation around the X axis in radians
	//   - yaw: rotation around the Y axis in radians
	SetRotation(pitch, yaw float32)

	// Speed returns the current speed of one axis.
	//
	// Parameters:
	//   - axis: the axis to query
	//
	// Returns:
	//   - float32: the axis speed, 0 for an unknown axis
	Speed(axis Axis) float32

	// Reset restores the start pose and zeroes every speed and trigger.
	Reset()

	// World returns the camera's world transform T(position)·RotY(yaw)·RotX(pitch).
	//
	// Returns:
	//   - mgl32.Mat4: the camera-to-world matrix
	World() mgl32.Mat4
}

// inputCameraController defines the raw input sinks fed by the window layer.
type inputCameraController interface {
	// KeyDown marks a key as held. Codes outside the key table are ignored.
	//
	// Parameters:
	//   - key: the virtual key code
	KeyDown(key int)

	// KeyUp marks a key as released.
	//
	// Parameters:
	//   - key: the virtual key code
	KeyUp(key int)

	// MouseDown starts a drag at the given client position.
	//
	// Parameters:
	//   - x, y: cursor position in client pixels
	MouseDown(x, y float64)

	// MouseUp ends the current drag.
	MouseUp()

	// MouseMove records the drag direction relative to the last cursor position.
	// Moves without an active drag are ignored.
	//
	// Parameters:
	//   - x, y: cursor position in client pixels
	MouseMove(x, y float64)

	// MouseLeave ends the current drag when the cursor leaves the window.
	MouseLeave()
}
