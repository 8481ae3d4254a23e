// Package hid abstracts HID device enumeration and report I/O behind small
// interfaces so the protocol layer can be driven by scripted devices in
// tests and by different backends in production.
package hid

// Device represents an opened HID device capable of report I/O.
type Device interface {
	Write([]byte) (int, error) // send output report, report ID at byte 0
	Read([]byte) (int, error)  // read input report, blocks until one arrives
	Close() error
}

// Info represents a HID device descriptor. UsagePage and Interface are zero
// when the backend cannot report them.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
	UsagePage    uint16
	Interface    int
}

// Manager enumerates and opens HID devices.
type Manager interface {
	List() ([]Info, error)
	Open(info Info) (Device, error)
	OpenVIDPID(vendorID, productID uint16) (Device, error)
}

// NewManager returns the HID manager selected at build time.
func NewManager() (Manager, error) {
	return newManager()
}
