package graphics

// DeviceBuilderOption is a functional option for configuring a device.
// Use the With* functions to create options.
type DeviceBuilderOption func(d *device)

// WithDriverPreferences sets the ordered list of backends tried by NewDevice.
// The first one that opens wins. The default is hardware, software, reference.
//
// Parameters:
//   - kinds: backends in order of preference
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithDriverPreferences(kinds ...DriverType) DeviceBuilderOption {
	return func(d *device) {
		d.preferences = append([]DriverType(nil), kinds...)
	}
}

// WithForceSoftwareRenderer skips hardware adapters and tries only the CPU fallback.
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithForceSoftwareRenderer() DeviceBuilderOption {
	return func(d *device) {
		d.preferences = []DriverType{DriverReference}
	}
}

// WithMSAA sets the sample count of swap chain render targets. Valid values are 1 and 4.
//
// Parameters:
//   - samples: the sample count
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithMSAA(samples uint32) DeviceBuilderOption {
	return func(d *device) {
		if samples == 4 {
			d.sampleCount = 4
		} else {
			d.sampleCount = 1
		}
	}
}

// withDriver replaces the GPU driver. Tests use it to run without a GPU.
func withDriver(drv driver) DeviceBuilderOption {
	return func(d *device) {
		d.drv = drv
	}
}
