package proto

import (
	"encoding/binary"
	"testing"
)

func keyTap(code byte, delayMS int) []MacroStep {
	return []MacroStep{
		{Kind: MacroKeyDown, Code: code},
		{Kind: MacroDelay, DelayMS: delayMS},
		{Kind: MacroKeyUp, Code: code},
	}
}

func TestEncodeMacroSingleFrame(t *testing.T) {
	m := Macro{Slot: ButtonDpi, Repeat: RepeatSingle, Steps: keyTap(0x04, 50)}
	frames, err := EncodeMacro(m)
	if err != nil {
		t.Fatalf("EncodeMacro: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("frame count: got %d, want 1 data + 1 assign", len(frames))
	}

	data := frames[0]
	if data.Command() != CmdUploadMacroData {
		t.Fatalf("data frame command 0x%02X", byte(data.Command()))
	}
	if data[1] != byte(ButtonDpi) || data[2] != 0 || data[3] != 3 {
		t.Fatalf("data frame header: % X", data[1:4])
	}
	// Row 0: key down.
	if data[4] != 0x1A || data[5] != 0x04 || data[6] != 0x01 {
		t.Fatalf("key down row: % X", data[4:7])
	}
	// Row 1: delay, stored halved.
	if binary.LittleEndian.Uint16(data[14:16]) != 25 {
		t.Fatalf("delay row: % X", data[14:16])
	}
	// Row 2: key up.
	if data[24] != 0x1A || data[25] != 0x04 || data[26] != 0x02 {
		t.Fatalf("key up row: % X", data[24:27])
	}

	assign := frames[1]
	if assign.Command() != CmdAssignMacro {
		t.Fatalf("assign frame command 0x%02X", byte(assign.Command()))
	}
	if assign[1] != byte(ButtonDpi) || assign[2] != byte(RepeatSingle) || assign[4] != 3 {
		t.Fatalf("assign frame payload: % X", assign[1:5])
	}
}

func TestEncodeMacroChunking(t *testing.T) {
	// Seven steps overflow one frame's six rows.
	var steps []MacroStep
	for i := 0; i < 7; i++ {
		steps = append(steps, MacroStep{Kind: MacroMouseDown, Code: MouseLeft})
	}
	frames, err := EncodeMacro(Macro{Slot: ButtonBack, Repeat: RepeatToggle, Steps: steps})
	if err != nil {
		t.Fatalf("EncodeMacro: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("frame count: got %d, want 2 data + 1 assign", len(frames))
	}
	if frames[0][3] != 0x86 {
		t.Fatalf("first data frame missing continuation marker: 0x%02X", frames[0][3])
	}
	if frames[0][2] != 0 || frames[1][2] != 1 {
		t.Fatalf("sequence bytes: %d, %d", frames[0][2], frames[1][2])
	}
	if frames[1][3] != 1 {
		t.Fatalf("final data frame count: got %d, want 1", frames[1][3])
	}
}

func TestEncodeMacroEmptyClearsSlot(t *testing.T) {
	frames, err := EncodeMacro(Macro{Slot: ButtonForward, Repeat: RepeatSingle})
	if err != nil {
		t.Fatalf("EncodeMacro: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("frame count: got %d", len(frames))
	}
	if frames[0][1] != byte(ButtonForward) || frames[0][2] != 0 || frames[0][3] != 0 {
		t.Fatalf("clear frame payload: % X", frames[0][1:4])
	}
}

func TestEncodeMacroValidation(t *testing.T) {
	tests := []struct {
		name string
		m    Macro
	}{
		{"bad slot", Macro{Slot: ButtonSlot(9), Repeat: RepeatSingle}},
		{"bad repeat mode", Macro{Slot: ButtonLeft, Repeat: RepeatMode(7)}},
		{"delay too long", Macro{Slot: ButtonLeft, Repeat: RepeatSingle,
			Steps: []MacroStep{{Kind: MacroDelay, DelayMS: 10001}}}},
		{"negative delay", Macro{Slot: ButtonLeft, Repeat: RepeatSingle,
			Steps: []MacroStep{{Kind: MacroDelay, DelayMS: -1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeMacro(tt.m); err == nil {
				t.Fatal("invalid macro accepted")
			}
		})
	}
}

func TestSetButtonTrailer(t *testing.T) {
	f, err := SetButton(ButtonMiddle, ButtonAction{Type: ActionMedia, Code: MediaPlayPause})
	if err != nil {
		t.Fatalf("SetButton: %v", err)
	}
	if f[5] != 0x04 {
		t.Fatalf("non-macro trailer: 0x%02X", f[5])
	}

	f, err = SetButton(ButtonMiddle, ButtonAction{Type: ActionMacro})
	if err != nil {
		t.Fatalf("SetButton: %v", err)
	}
	if f[5] != 0x00 {
		t.Fatalf("macro trailer: 0x%02X", f[5])
	}

	if _, err := SetButton(ButtonSlot(6), ButtonAction{Type: ActionMouse, Code: MouseLeft}); err == nil {
		t.Fatal("slot 6 accepted")
	}
}

func TestSetPollingRate(t *testing.T) {
	for hz, code := range map[int]byte{125: 0x00, 250: 0x01, 500: 0x02, 1000: 0x03} {
		r, err := PollingRateFromHz(hz)
		if err != nil {
			t.Fatalf("PollingRateFromHz(%d): %v", hz, err)
		}
		f, err := SetPollingRate(r)
		if err != nil {
			t.Fatalf("SetPollingRate(%d): %v", hz, err)
		}
		if f[1] != code {
			t.Fatalf("%d Hz: wire code 0x%02X, want 0x%02X", hz, f[1], code)
		}
		if r.Hz() != hz {
			t.Fatalf("round-trip: %d != %d", r.Hz(), hz)
		}
	}
	if _, err := PollingRateFromHz(750); err == nil {
		t.Fatal("750 Hz accepted")
	}
}

func TestSetAlertThreshold(t *testing.T) {
	for _, pct := range []int{5, 10, 25} {
		f, err := SetAlertThreshold(pct)
		if err != nil {
			t.Fatalf("SetAlertThreshold(%d): %v", pct, err)
		}
		if f[1] != byte(pct) {
			t.Fatalf("threshold byte: %d", f[1])
		}
	}
	for _, pct := range []int{4, 26, 0, -3, 100} {
		if _, err := SetAlertThreshold(pct); err == nil {
			t.Fatalf("threshold %d accepted", pct)
		}
	}
}
