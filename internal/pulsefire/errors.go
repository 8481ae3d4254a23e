package pulsefire

import "errors"

var (
	// ErrDeviceNotFound means no matching vendor interface was enumerated.
	ErrDeviceNotFound = errors.New("pulsefire: device not found")

	// ErrPermissionDenied means the interface exists but could not be
	// opened; on Linux this usually means a missing udev rule.
	ErrPermissionDenied = errors.New("pulsefire: permission denied opening device")

	// ErrTimeout means the device did not answer a request in time. The
	// session layer retries these.
	ErrTimeout = errors.New("pulsefire: request timed out")

	// ErrDisconnected means the device went away mid-session. The transport
	// is unusable once this is returned; reconnect to recover.
	ErrDisconnected = errors.New("pulsefire: device disconnected")

	// ErrBusy means a request could not even start before the caller's
	// context expired while another request held the transport.
	ErrBusy = errors.New("pulsefire: transport busy")

	// ErrClosed means the session was closed locally.
	ErrClosed = errors.New("pulsefire: session closed")
)
