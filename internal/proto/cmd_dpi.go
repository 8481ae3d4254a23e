package proto

import "encoding/binary"

const (
	DpiProfileCount = 5
	DpiMin          = 50
	DpiMax          = 16000
	DpiStep         = 50
)

// SetDpi subcommand selectors at byte 1.
const (
	dpiModeSelect byte = 0x00
	dpiModeEnable byte = 0x01
	dpiModeValue  byte = 0x02
	dpiModeColor  byte = 0x03
)

// DpiProfile is one of the five on-device profiles. Index is 1-based.
// Exactly one profile is active across the full set; the device enforces
// this and the client mirrors it defensively.
type DpiProfile struct {
	Index   int
	Enabled bool
	DPI     int
	Color   Color
	Active  bool
}

// DpiSettings is the decoded full profile set.
type DpiSettings struct {
	Profiles [DpiProfileCount]DpiProfile
}

// Active returns the active profile.
func (s DpiSettings) Active() DpiProfile {
	for _, p := range s.Profiles {
		if p.Active {
			return p
		}
	}
	return DpiProfile{}
}

func validateProfileIndex(index int) error {
	if index < 1 || index > DpiProfileCount {
		return &EncodingError{Field: "dpi profile", Value: index, Reason: "outside 1-5"}
	}
	return nil
}

// SelectDpiProfile builds the frame making one profile the active one.
// Selecting a profile deactivates all others.
func SelectDpiProfile(index int) (Frame, error) {
	if err := validateProfileIndex(index); err != nil {
		return Frame{}, err
	}
	return makeFrame(CmdSetDpi, dpiModeSelect, byte(index-1), 0x00), nil
}

// EnableDpiProfiles builds the profile enable-mask frame. Bit 0 of mask is
// profile 1; the wire carries the bits in reversed order.
func EnableDpiProfiles(mask byte) (Frame, error) {
	if mask&^byte(1<<DpiProfileCount-1) != 0 {
		return Frame{}, &EncodingError{Field: "dpi enable mask", Value: int(mask), Reason: "only 5 profiles exist"}
	}
	if mask == 0 {
		return Frame{}, &EncodingError{Field: "dpi enable mask", Value: 0, Reason: "at least one profile must stay enabled"}
	}
	return makeFrame(CmdSetDpi, dpiModeEnable, 0x00, 0x01, reverseMask(mask)), nil
}

func reverseMask(mask byte) byte {
	var out byte
	for i := 0; i < DpiProfileCount; i++ {
		if mask&(1<<i) != 0 {
			out |= 1 << (DpiProfileCount - 1 - i)
		}
	}
	return out
}

// SetDpiValue builds the per-profile DPI value frame. The wire carries
// dpi/50 as a 16-bit value. Values that are not an exact multiple of 50
// are rejected, never rounded.
func SetDpiValue(index, dpi int) (Frame, error) {
	if err := validateProfileIndex(index); err != nil {
		return Frame{}, err
	}
	if dpi < DpiMin || dpi > DpiMax {
		return Frame{}, &EncodingError{Field: "dpi", Value: dpi, Reason: "outside 50-16000"}
	}
	if dpi%DpiStep != 0 {
		return Frame{}, &EncodingError{Field: "dpi", Value: dpi, Reason: "not a multiple of 50"}
	}

	var scaled [2]byte
	binary.LittleEndian.PutUint16(scaled[:], uint16(dpi/DpiStep))
	return makeFrame(CmdSetDpi, dpiModeValue, byte(index-1), 0x02, scaled[0], scaled[1]), nil
}

// SetDpiColor builds the per-profile indicator color frame.
func SetDpiColor(index int, c Color) (Frame, error) {
	if err := validateProfileIndex(index); err != nil {
		return Frame{}, err
	}
	return makeFrame(CmdSetDpi, dpiModeColor, byte(index-1), 0x03, c.R, c.G, c.B), nil
}

// GetDpi builds the DPI settings query frame.
func GetDpi() Frame {
	return makeFrame(CmdGetDpi)
}

// ParseDpi extracts the profile set: active index at byte 5, enable mask at
// byte 6 (reversed bit order like the write, provisional), dpi/50 values at
// bytes 10/12/14/16/18, RGB triples from byte 22.
func ParseDpi(raw []byte) (DpiSettings, error) {
	if err := checkResponse(raw, CmdGetDpi); err != nil {
		return DpiSettings{}, err
	}

	var s DpiSettings
	active := int(raw[5])
	mask := reverseMask(raw[6] & (1<<DpiProfileCount - 1))
	for i := 0; i < DpiProfileCount; i++ {
		off := 10 + i*2
		s.Profiles[i] = DpiProfile{
			Index:   i + 1,
			Enabled: mask&(1<<i) != 0,
			DPI:     int(binary.LittleEndian.Uint16(raw[off:off+2])) * DpiStep,
			Color:   Color{R: raw[22+i*3], G: raw[23+i*3], B: raw[24+i*3]},
			Active:  i == active,
		}
	}
	return s, nil
}
