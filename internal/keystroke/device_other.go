//go:build !linux

package keystroke

// DefaultDevicePath is empty where evdev does not exist.
const DefaultDevicePath = ""

// DeviceInfo describes an input device that can produce key events.
type DeviceInfo struct {
	Path     string
	Name     string
	Keyboard bool
	Links    []string
	Readable bool
}

// OpenDevice always fails on this platform.
func OpenDevice(path string) (Source, error) {
	return nil, ErrNotAvailable
}

// CheckAccess always fails on this platform.
func CheckAccess(path string) error {
	return ErrNotAvailable
}

// ListDevices always fails on this platform.
func ListDevices() ([]DeviceInfo, error) {
	return nil, ErrNotAvailable
}

// FindKeyboard always fails on this platform.
func FindKeyboard() (string, error) {
	return "", ErrNotAvailable
}
