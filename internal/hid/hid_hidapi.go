//go:build hidapi

package hid

import (
	hidapi "github.com/sstallion/go-hid"
)

// The hidapi backend goes through the hidraw node, which some kernels
// require for vendor-defined interfaces that usbhid cannot claim.

type hidapiManager struct{}

func newManager() (Manager, error) {
	if err := hidapi.Init(); err != nil {
		return nil, err
	}
	return &hidapiManager{}, nil
}

func (m *hidapiManager) List() ([]Info, error) {
	var out []Info
	err := hidapi.Enumerate(hidapi.VendorIDAny, hidapi.ProductIDAny, func(d *hidapi.DeviceInfo) error {
		out = append(out, Info{
			Path:         d.Path,
			VendorID:     d.VendorID,
			ProductID:    d.ProductID,
			Product:      d.ProductStr,
			Manufacturer: d.MfrStr,
			UsagePage:    d.UsagePage,
			Interface:    d.InterfaceNbr,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type hidapiDevice struct{ d *hidapi.Device }

func (m *hidapiManager) Open(info Info) (Device, error) {
	d, err := hidapi.OpenPath(info.Path)
	if err != nil {
		return nil, err
	}
	return &hidapiDevice{d}, nil
}

func (m *hidapiManager) OpenVIDPID(vendorID, productID uint16) (Device, error) {
	d, err := hidapi.Open(vendorID, productID, "")
	if err != nil {
		return nil, err
	}
	return &hidapiDevice{d}, nil
}

func (d *hidapiDevice) Write(p []byte) (int, error) { return d.d.Write(p) }
func (d *hidapiDevice) Read(p []byte) (int, error)  { return d.d.Read(p) }
func (d *hidapiDevice) Close() error                { return d.d.Close() }
