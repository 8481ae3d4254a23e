package proto

import "encoding/binary"

// GetBattery builds the battery/status query frame.
func GetBattery() Frame {
	return makeFrame(CmdGetBattery)
}

// BatteryStatus is the decoded battery response.
type BatteryStatus struct {
	Percent    int
	Charging   bool
	VoltageMV  int
	OutOfRange bool // raw percent was above 100 and got clamped
}

// ParseBattery extracts the battery response: byte 4 percent, byte 5
// charging flag, bytes 7-8 voltage in millivolts. Percent is clamped to
// [0,100] with OutOfRange set rather than wrapped silently.
func ParseBattery(raw []byte) (BatteryStatus, error) {
	if err := checkResponse(raw, CmdGetBattery); err != nil {
		return BatteryStatus{}, err
	}

	s := BatteryStatus{
		Percent:   int(raw[4]),
		Charging:  raw[5] == 0x01,
		VoltageMV: int(binary.LittleEndian.Uint16(raw[7:9])),
	}
	if s.Percent > 100 {
		s.Percent = 100
		s.OutOfRange = true
	}
	return s, nil
}
