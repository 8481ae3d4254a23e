// Package pulsefire drives a HyperX Pulsefire Dart mouse over its
// vendor-defined HID interface: device discovery, the one-request-at-a-time
// exchange transport, and a session facade exposing typed operations.
package pulsefire

import (
	"github.com/dartctl/dartctl/internal/hid"
)

const (
	// VendorID is Kingston/HyperX.
	VendorID = 0x0951

	// ProductWireless is the 2.4 GHz dongle, ProductWired the USB cable.
	// The mouse enumerates as a different product depending on how it is
	// connected.
	ProductWireless = 0x16E1
	ProductWired    = 0x16E2

	usagePageWireless = 0xFF00
	usagePageWired    = 0xFF13
)

// ConnectionMode says how the mouse is currently attached.
type ConnectionMode string

const (
	ModeWireless ConnectionMode = "wireless"
	ModeWired    ConnectionMode = "wired"
)

func modeForProduct(productID uint16) (ConnectionMode, bool) {
	switch productID {
	case ProductWireless:
		return ModeWireless, true
	case ProductWired:
		return ModeWired, true
	}
	return "", false
}

// Match reports whether info describes the mouse's vendor interface. The
// configuration interface sits on a vendor usage page; backends that cannot
// report usage pages leave it zero, and identity alone has to do.
func Match(info hid.Info) bool {
	if info.VendorID != VendorID {
		return false
	}
	switch info.ProductID {
	case ProductWireless:
		return info.UsagePage == 0 || info.UsagePage == usagePageWireless
	case ProductWired:
		return info.UsagePage == 0 || info.UsagePage == usagePageWired
	}
	return false
}

// FindInterface enumerates mgr and returns the first matching vendor
// interface, or ErrDeviceNotFound.
func FindInterface(mgr hid.Manager) (hid.Info, error) {
	infos, err := mgr.List()
	if err != nil {
		return hid.Info{}, err
	}
	for _, info := range infos {
		if Match(info) {
			return info, nil
		}
	}
	return hid.Info{}, ErrDeviceNotFound
}
