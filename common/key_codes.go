package common

// Virtual key codes delivered by the window layer.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW   = 87  // W key (ASCII), move forward
	KeyS   = 83  // S key (ASCII), move backward
	KeyA   = 65  // A key (ASCII), move left
	KeyD   = 68  // D key (ASCII), move right
	KeyQ   = 81  // Q key (ASCII), move up
	KeyY   = 89  // Y key (ASCII), move down
	KeyO   = 79  // O key (ASCII), yaw left
	KeyP   = 80  // P key (ASCII), yaw right
	KeyI   = 73  // I key (ASCII), pitch up
	KeyK   = 75  // K key (ASCII), pitch down
	KeyF   = 70  // F key (ASCII), toggle fullscreen
	KeyR   = 82  // R key (ASCII), reset camera
	KeyEsc = 256 // Escape key (GLFW)

	KeyF11 = 300 // F11 key (GLFW)
)

// MaxKeyCode bounds the key state table kept by input consumers.
// GLFW key codes stop at GLFW_KEY_LAST (348).
const MaxKeyCode = 349
