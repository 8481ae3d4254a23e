package pulsefire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dartctl/dartctl/internal/proto"
)

// DeviceSnapshot is one point-in-time view of everything the device can
// report. Nil fields were unreadable when the snapshot was taken.
// PollingRateHz and AlertThreshold are not readable from the device; they
// hold the last value applied this session, zero if never applied.
type DeviceSnapshot struct {
	TakenAt  time.Time
	Mode     ConnectionMode
	Hardware *proto.HardwareInfo
	Battery  *proto.BatteryStatus
	Led      *proto.LedConfig
	Dpi      *proto.DpiSettings

	PollingRateHz  int
	AlertThreshold int
}

// JSON wire shapes. Unknown values serialize as null, never as a made-up
// zero the consumer could mistake for a reading.
type snapshotJSON struct {
	TakenAt  string        `json:"taken_at"`
	Mode     string        `json:"mode"`
	Hardware *hardwareJSON `json:"hardware"`
	Battery  *batteryJSON  `json:"battery"`
	Led      *ledJSON      `json:"led"`
	Dpi      *dpiJSON      `json:"dpi"`
	Polling  *int          `json:"polling_rate_hz"`
	Alert    *int          `json:"alert_threshold_percent"`
}

type hardwareJSON struct {
	Name      string `json:"name"`
	Firmware  string `json:"firmware"`
	VendorID  string `json:"vendor_id"`
	ProductID string `json:"product_id"`
}

type batteryJSON struct {
	Percent    int  `json:"percent"`
	Charging   bool `json:"charging"`
	VoltageMV  int  `json:"voltage_mv"`
	OutOfRange bool `json:"out_of_range,omitempty"`
}

type ledJSON struct {
	Brightness int    `json:"brightness"`
	Color      string `json:"color"`
}

type dpiProfileJSON struct {
	Index   int    `json:"index"`
	Enabled bool   `json:"enabled"`
	DPI     int    `json:"dpi"`
	Color   string `json:"color"`
	Active  bool   `json:"active"`
}

type dpiJSON struct {
	Active   int              `json:"active"`
	Profiles []dpiProfileJSON `json:"profiles"`
}

func colorHex(c proto.Color) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// MarshalJSON renders the snapshot in a stable schema for --json output.
func (s *DeviceSnapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		TakenAt: s.TakenAt.Format(time.RFC3339),
		Mode:    string(s.Mode),
	}
	if s.Hardware != nil {
		out.Hardware = &hardwareJSON{
			Name:      s.Hardware.DeviceName,
			Firmware:  s.Hardware.FirmwareVersion,
			VendorID:  fmt.Sprintf("0x%04X", s.Hardware.VendorID),
			ProductID: fmt.Sprintf("0x%04X", s.Hardware.ProductID),
		}
	}
	if s.Battery != nil {
		out.Battery = &batteryJSON{
			Percent:    s.Battery.Percent,
			Charging:   s.Battery.Charging,
			VoltageMV:  s.Battery.VoltageMV,
			OutOfRange: s.Battery.OutOfRange,
		}
	}
	if s.Led != nil {
		out.Led = &ledJSON{
			Brightness: s.Led.Brightness,
			Color:      colorHex(s.Led.Color),
		}
	}
	if s.Dpi != nil {
		d := &dpiJSON{Active: s.Dpi.Active().Index}
		for _, p := range s.Dpi.Profiles {
			d.Profiles = append(d.Profiles, dpiProfileJSON{
				Index:   p.Index,
				Enabled: p.Enabled,
				DPI:     p.DPI,
				Color:   colorHex(p.Color),
				Active:  p.Active,
			})
		}
		out.Dpi = d
	}
	if s.PollingRateHz != 0 {
		hz := s.PollingRateHz
		out.Polling = &hz
	}
	if s.AlertThreshold != 0 {
		pct := s.AlertThreshold
		out.Alert = &pct
	}
	return json.Marshal(out)
}
