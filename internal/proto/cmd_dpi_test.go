package proto

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestSetDpiValueBounds(t *testing.T) {
	tests := []struct {
		name string
		dpi  int
		ok   bool
	}{
		{"minimum", 50, true},
		{"maximum", 16000, true},
		{"typical", 3200, true},
		{"below minimum", 49, false},
		{"above maximum", 16050, false},
		{"not a multiple of 50", 3175, false},
		{"zero", 0, false},
		{"negative", -50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := SetDpiValue(1, tt.dpi)
			if tt.ok {
				if err != nil {
					t.Fatalf("SetDpiValue(1, %d): %v", tt.dpi, err)
				}
				got := int(binary.LittleEndian.Uint16(f[4:6])) * DpiStep
				if got != tt.dpi {
					t.Fatalf("wire value round-trip: got %d, want %d", got, tt.dpi)
				}
				return
			}
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("SetDpiValue(1, %d): expected encoding error, got %v", tt.dpi, err)
			}
		})
	}
}

func TestSetDpiValueProfileBounds(t *testing.T) {
	for _, index := range []int{0, 6, -1} {
		if _, err := SetDpiValue(index, 800); err == nil {
			t.Fatalf("profile index %d accepted", index)
		}
	}
	f, err := SetDpiValue(3, 800)
	if err != nil {
		t.Fatalf("SetDpiValue(3, 800): %v", err)
	}
	if f[2] != 2 {
		t.Fatalf("profile index on the wire is 0-based: got %d, want 2", f[2])
	}
}

func TestEnableDpiProfilesReversesMask(t *testing.T) {
	f, err := EnableDpiProfiles(0b00001) // profile 1 only
	if err != nil {
		t.Fatalf("EnableDpiProfiles: %v", err)
	}
	if f[4] != 0b10000 {
		t.Fatalf("mask not reversed on the wire: got %05b", f[4])
	}

	if _, err := EnableDpiProfiles(0); err == nil {
		t.Fatal("empty mask accepted")
	}
	if _, err := EnableDpiProfiles(0b100000); err == nil {
		t.Fatal("sixth profile bit accepted")
	}
}

// deviceDpiResponse lays out a DPI query response the way the device does.
func deviceDpiResponse(active int, mask byte, dpis [DpiProfileCount]int, colors [DpiProfileCount]Color) []byte {
	raw := make([]byte, FrameSize)
	raw[0] = byte(CmdGetDpi)
	raw[5] = byte(active)
	raw[6] = reverseMask(mask)
	for i := 0; i < DpiProfileCount; i++ {
		binary.LittleEndian.PutUint16(raw[10+i*2:], uint16(dpis[i]/DpiStep))
		raw[22+i*3] = colors[i].R
		raw[23+i*3] = colors[i].G
		raw[24+i*3] = colors[i].B
	}
	return raw
}

func TestParseDpi(t *testing.T) {
	dpis := [DpiProfileCount]int{400, 800, 1600, 3200, 6400}
	colors := [DpiProfileCount]Color{
		{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 0}, {255, 0, 255},
	}
	raw := deviceDpiResponse(2, 0b00111, dpis, colors)

	s, err := ParseDpi(raw)
	if err != nil {
		t.Fatalf("ParseDpi: %v", err)
	}

	activeCount := 0
	for i, p := range s.Profiles {
		if p.Index != i+1 {
			t.Fatalf("profile %d: index %d", i, p.Index)
		}
		if p.DPI != dpis[i] {
			t.Fatalf("profile %d: dpi %d, want %d", i, p.DPI, dpis[i])
		}
		if p.Color != colors[i] {
			t.Fatalf("profile %d: color %+v, want %+v", i, p.Color, colors[i])
		}
		wantEnabled := i < 3
		if p.Enabled != wantEnabled {
			t.Fatalf("profile %d: enabled %v, want %v", i, p.Enabled, wantEnabled)
		}
		if p.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Fatalf("active profile count %d, want exactly 1", activeCount)
	}
	if !s.Profiles[2].Active {
		t.Fatal("wire profile 2 (index 3) should be active")
	}
	if s.Active().Index != 3 {
		t.Fatalf("Active(): index %d, want 3", s.Active().Index)
	}
}

func TestParseDpiRejectsWrongCommand(t *testing.T) {
	raw := make([]byte, FrameSize)
	raw[0] = byte(CmdGetBattery)
	if _, err := ParseDpi(raw); err == nil {
		t.Fatal("mismatched command id accepted")
	}
}
