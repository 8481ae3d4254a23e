package proto

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// GetHardwareInfo builds the hardware info query frame.
func GetHardwareInfo() Frame {
	return makeFrame(CmdGetHardwareInfo)
}

// HardwareInfo is the decoded hardware info response.
type HardwareInfo struct {
	FirmwareVersion string
	DeviceName      string
	VendorID        uint16
	ProductID       uint16
}

// ParseHardwareInfo extracts the hardware info response: product id at
// bytes 4-5, vendor id at bytes 6-7, a NUL-terminated ASCII device name
// from byte 12. The device only exposes the firmware major number (byte 3).
func ParseHardwareInfo(raw []byte) (HardwareInfo, error) {
	if err := checkResponse(raw, CmdGetHardwareInfo); err != nil {
		return HardwareInfo{}, err
	}

	name := raw[12:44]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	return HardwareInfo{
		FirmwareVersion: fmt.Sprintf("%d.0.0", raw[3]),
		DeviceName:      string(name),
		ProductID:       binary.LittleEndian.Uint16(raw[4:6]),
		VendorID:        binary.LittleEndian.Uint16(raw[6:8]),
	}, nil
}
