// Package rawusb opens the mouse over raw USB endpoints instead of the HID
// layer. It is a fallback for systems where the vendor interface is claimed
// by the kernel HID driver in a way the HID backends cannot reach.
package rawusb

import (
	"fmt"

	"github.com/karalabe/usb"

	"github.com/dartctl/dartctl/internal/hid"
)

// Device wraps a raw USB handle behind the hid.Device interface so the
// transport layer does not care which path opened the mouse.
type Device struct {
	dev usb.Device
}

var _ hid.Device = (*Device)(nil)

// Open finds and opens the first device matching vendorID/productID.
func Open(vendorID, productID uint16) (*Device, error) {
	infos, err := usb.Enumerate(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("usb enumerate: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("no usb device %04x:%04x", vendorID, productID)
	}
	dev, err := infos[0].Open()
	if err != nil {
		return nil, fmt.Errorf("usb open: %w", err)
	}
	return &Device{dev: dev}, nil
}

// Write sends one report. HID-layer callers prefix a report ID byte; raw
// endpoints carry only the frame, so a 65-byte report with a zero ID is
// stripped back to its 64 payload bytes before transmission.
func (d *Device) Write(p []byte) (int, error) {
	frame := p
	stripped := false
	if len(p) == 65 && p[0] == 0x00 {
		frame = p[1:]
		stripped = true
	}
	n, err := d.dev.Write(frame)
	if err != nil {
		return 0, fmt.Errorf("usb write: %w", err)
	}
	if stripped {
		n++ // account for the report ID byte
	}
	return n, nil
}

func (d *Device) Read(p []byte) (int, error) {
	n, err := d.dev.Read(p)
	if err != nil {
		return 0, fmt.Errorf("usb read: %w", err)
	}
	return n, nil
}

func (d *Device) Close() error {
	return d.dev.Close()
}
