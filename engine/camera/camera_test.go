package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
)

const eps = 1e-5

func TestControllerDefaults(t *testing.T) {
	cc := NewCameraController()
	assert.Equal(t, mgl32.Vec3{1, 0, -2}, cc.Position())
	pitch, yaw := cc.Rotation()
	assert.Zero(t, pitch)
	assert.Zero(t, yaw)
	for axis := range axisCount {
		assert.Zero(t, cc.Speed(axis), axis.String())
	}
}

func TestIdleFramesLeavePoseUnchanged(t *testing.T) {
	cc := NewCameraController()
	for range 10 {
		cc.Update(1.0 / 60)
	}
	assert.Equal(t, mgl32.Vec3{1, 0, -2}, cc.Position())
}

func TestHeldKeySpeedIsClamped(t *testing.T) {
	tests := []struct {
		name  string
		accel float32
		max   float32
		dt    float32
	}{
		{name: "acceleration below cap", accel: 0.01, max: 0.3, dt: 0.016},
		{name: "acceleration above cap", accel: 0.5, max: 0.3, dt: 0.016},
		{name: "long frame", accel: 0.01, max: 0.3, dt: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := NewCameraController(WithAcceleration(tt.accel), WithMaxSpeed(tt.max))
			cc.KeyDown(common.KeyW)
			cc.Update(tt.dt)
			assert.InDelta(t, min(tt.dt*tt.accel, tt.dt*tt.max), cc.Speed(AxisForward), eps)

			for range 200 {
				cc.Update(tt.dt)
				assert.LessOrEqual(t, cc.Speed(AxisForward), tt.dt*tt.max+eps)
			}
			assert.InDelta(t, tt.dt*tt.max, cc.Speed(AxisForward), eps)
		})
	}
}

func TestReleasedKeyDecaysToZero(t *testing.T) {
	cc := NewCameraController()
	cc.KeyDown(common.KeyD)
	for range 20 {
		cc.Update(0.5)
	}
	require.Greater(t, cc.Speed(AxisRight), float32(0))
	cc.KeyUp(common.KeyD)

	prev := cc.Speed(AxisRight)
	for range 200 {
		cc.Update(0.5)
		speed := cc.Speed(AxisRight)
		assert.GreaterOrEqual(t, speed, float32(0))
		assert.LessOrEqual(t, speed, prev)
		prev = speed
	}
	assert.Zero(t, cc.Speed(AxisRight))
}

func TestFirstFrameWithZeroDeltaDoesNotMove(t *testing.T) {
	cc := NewCameraController()
	cc.KeyDown(common.KeyW)
	cc.Update(0)
	assert.Zero(t, cc.Speed(AxisForward))
	assert.Equal(t, mgl32.Vec3{1, 0, -2}, cc.Position())
}

func TestForwardMovesAlongYaw(t *testing.T) {
	cc := NewCameraController(WithStartPosition(mgl32.Vec3{}))
	cc.SetRotation(0, math.Pi/2)
	cc.KeyDown(common.KeyW)
	cc.Update(1)

	// One second at accel 0.01 gives speed 0.01, integrated with k = 3.141.
	step := float32(3.141 * 0.01)
	pos := cc.Position()
	assert.InDelta(t, step, pos.X(), eps)
	assert.InDelta(t, 0, pos.Y(), eps)
	assert.InDelta(t, 0, pos.Z(), eps)
}

func TestStrafeAndVertical(t *testing.T) {
	cc := NewCameraController(WithStartPosition(mgl32.Vec3{}), WithIntegration(1))
	cc.KeyDown(common.KeyD)
	cc.KeyDown(common.KeyQ)
	cc.Update(1)

	pos := cc.Position()
	assert.InDelta(t, 0.01, pos.X(), eps)
	assert.InDelta(t, 0.01, pos.Y(), eps)
	assert.InDelta(t, 0, pos.Z(), eps)
}

func TestRotationAxes(t *testing.T) {
	cc := NewCameraController(WithIntegration(1))
	cc.KeyDown(common.KeyP)
	cc.KeyDown(common.KeyI)
	cc.Update(1)

	pitch, yaw := cc.Rotation()
	assert.InDelta(t, 0.01, yaw, eps)
	assert.InDelta(t, -0.01, pitch, eps)
}

func TestOpposingKeysCancel(t *testing.T) {
	cc := NewCameraController()
	cc.KeyDown(common.KeyA)
	cc.KeyDown(common.KeyD)
	for range 5 {
		cc.Update(0.1)
	}
	assert.InDelta(t, 1, cc.Position().X(), eps)
}

func TestOutOfRangeKeysAreIgnored(t *testing.T) {
	cc := NewCameraController()
	cc.KeyDown(-1)
	cc.KeyDown(common.MaxKeyCode)
	cc.KeyUp(100000)
	cc.Update(1)
	assert.Equal(t, mgl32.Vec3{1, 0, -2}, cc.Position())
}

func TestMouseDragSharesKeyAxes(t *testing.T) {
	cc := NewCameraController()

	// Moves without a drag are ignored.
	cc.MouseMove(10, 10)
	cc.Update(1)
	assert.Zero(t, cc.Speed(AxisRight))

	cc.MouseDown(100, 100)
	cc.MouseMove(120, 80)
	cc.Update(1)
	assert.InDelta(t, 0.01, cc.Speed(AxisRight), eps)
	assert.InDelta(t, 0.01, cc.Speed(AxisForward), eps)
	assert.Zero(t, cc.Speed(AxisLeft))
	assert.Zero(t, cc.Speed(AxisBackward))

	// Update consumed the drag directions.
	cc.Update(1)
	assert.InDelta(t, 0.004, cc.Speed(AxisRight), eps)

	cc.MouseMove(90, 120)
	cc.Update(1)
	assert.InDelta(t, 0.01, cc.Speed(AxisLeft), eps)
	assert.InDelta(t, 0.01, cc.Speed(AxisBackward), eps)
}

func TestMouseUpAndLeaveEndDrag(t *testing.T) {
	for name, end := range map[string]func(CameraController){
		"up":    func(cc CameraController) { cc.MouseUp() },
		"leave": func(cc CameraController) { cc.MouseLeave() },
	} {
		t.Run(name, func(t *testing.T) {
			cc := NewCameraController()
			cc.MouseDown(0, 0)
			cc.MouseMove(5, 0)
			end(cc)
			cc.MouseMove(10, 0)
			cc.Update(1)
			assert.Zero(t, cc.Speed(AxisRight))
		})
	}
}

func TestReset(t *testing.T) {
	cc := NewCameraController(WithStartRotation(0.1, 0.2))
	cc.KeyDown(common.KeyW)
	cc.Update(1)
	cc.SetPosition(mgl32.Vec3{5, 5, 5})

	cc.Reset()
	assert.Equal(t, mgl32.Vec3{1, 0, -2}, cc.Position())
	pitch, yaw := cc.Rotation()
	assert.InDelta(t, 0.1, pitch, eps)
	assert.InDelta(t, 0.2, yaw, eps)
	assert.Zero(t, cc.Speed(AxisForward))

	cc.Update(1)
	assert.Zero(t, cc.Speed(AxisForward), "key state is cleared")
}

func TestViewIsInverseOfWorld(t *testing.T) {
	cc := NewCameraController()
	cc.SetRotation(0.3, -1.2)
	cc.SetPosition(mgl32.Vec3{4, -2, 7})
	cam := NewCamera(WithController(cc))

	product := cam.ViewMatrix().Mul4(cam.WorldMatrix())
	ident := mgl32.Ident4()
	for i := range product {
		assert.InDelta(t, ident[i], product[i], eps, "view*world element %d", i)
	}

	origin := cam.ViewMatrix().Mul4x1(mgl32.Vec4{4, -2, 7, 1})
	assert.InDelta(t, 0, origin.Vec3().Len(), eps)
}

func TestCameraUpdateFollowsController(t *testing.T) {
	cam := NewCamera()
	cam.Controller().SetPosition(mgl32.Vec3{0, 3, 0})
	assert.InDelta(t, -2, cam.WorldMatrix().Col(3).Z(), eps)

	cam.Update()
	assert.Equal(t, mgl32.Vec4{0, 3, 0, 1}, cam.WorldMatrix().Col(3))
}

func TestProjectionFromSize(t *testing.T) {
	cam := NewCamera()
	assert.InDelta(t, math.Pi/2, cam.Fov(), eps)
	assert.InDelta(t, 0.1, cam.Near(), eps)
	assert.InDelta(t, 100, cam.Far(), eps)

	cam.SetAspectFromSize(1600, 800)
	assert.InDelta(t, 2, cam.Aspect(), eps)
	assert.Equal(t, common.PerspectiveLH(math.Pi/2, 2, 0.1, 100), cam.ProjectionMatrix())

	cam.SetAspectFromSize(1600, 0)
	assert.InDelta(t, 2, cam.Aspect(), eps)
}
