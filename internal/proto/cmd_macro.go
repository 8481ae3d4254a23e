package proto

import "encoding/binary"

// MacroStepKind is the kind of one replayed event.
type MacroStepKind byte

const (
	MacroKeyDown MacroStepKind = iota
	MacroKeyUp
	MacroMouseDown
	MacroMouseUp
	MacroDelay
)

// RepeatMode controls how the device replays an assigned macro.
type RepeatMode byte

const (
	RepeatSingle RepeatMode = 0x00
	RepeatToggle RepeatMode = 0x01
	RepeatHold   RepeatMode = 0x02
)

const (
	// MaxMacroDelayMS bounds a single delay step.
	MaxMacroDelayMS = 10000
	// MaxMacroSteps bounds one macro; the assign frame carries the step
	// count in a single byte.
	MaxMacroSteps = 255

	macroStepsPerFrame = 6
	macroRowSize       = 10
	macroRowKeyboard   = 0x1A
	macroRowMouse      = 0x25
	macroContinued     = 0x86
)

// MacroStep is one replayed event. Code is the key scancode or mouse button
// for press/release steps; DelayMS is only used by delay steps.
type MacroStep struct {
	Kind    MacroStepKind `json:"kind"`
	Code    byte          `json:"code,omitempty"`
	DelayMS int           `json:"delay_ms,omitempty"`
}

// Macro is an ordered step sequence bound to one button slot. Content is
// client-owned until an upload succeeds; after that the device copy is
// authoritative.
type Macro struct {
	Slot   ButtonSlot  `json:"slot"`
	Repeat RepeatMode  `json:"repeat"`
	Steps  []MacroStep `json:"steps"`
}

// EncodeMacro builds the ordered upload sequence: one or more data frames
// carrying up to six 10-byte step rows each, followed by one assign frame.
// The frames must be sent in order and treated as a single operation.
func EncodeMacro(m Macro) ([]Frame, error) {
	if m.Slot >= ButtonSlotCount {
		return nil, &EncodingError{Field: "button slot", Value: int(m.Slot), Reason: "outside the six physical buttons"}
	}
	switch m.Repeat {
	case RepeatSingle, RepeatToggle, RepeatHold:
	default:
		return nil, &EncodingError{Field: "macro repeat mode", Value: int(m.Repeat), Reason: "unknown mode"}
	}
	if len(m.Steps) > MaxMacroSteps {
		return nil, &EncodingError{Field: "macro steps", Value: len(m.Steps), Reason: "more than 255 steps"}
	}

	rows := make([][macroRowSize]byte, 0, len(m.Steps))
	for i, st := range m.Steps {
		var row [macroRowSize]byte
		switch st.Kind {
		case MacroDelay:
			if st.DelayMS < 0 || st.DelayMS > MaxMacroDelayMS {
				return nil, &EncodingError{Field: "macro delay", Value: st.DelayMS, Reason: "outside 0-10000 ms"}
			}
			// Delays are stored halved.
			binary.LittleEndian.PutUint16(row[0:2], uint16(st.DelayMS/2))
		case MacroKeyDown, MacroKeyUp:
			row[0] = macroRowKeyboard
			row[1] = st.Code
			row[2] = directionByte(st.Kind == MacroKeyDown)
		case MacroMouseDown, MacroMouseUp:
			row[0] = macroRowMouse
			row[1] = st.Code
			row[2] = directionByte(st.Kind == MacroMouseDown)
		default:
			return nil, &EncodingError{Field: "macro step", Value: i, Reason: "unknown step kind"}
		}
		rows = append(rows, row)
	}

	var frames []Frame
	if len(rows) == 0 {
		// An empty upload clears the slot's macro storage.
		frames = append(frames, makeFrame(CmdUploadMacroData, byte(m.Slot), 0x00, 0x00))
	}
	for start := 0; start < len(rows); start += macroStepsPerFrame {
		end := min(start+macroStepsPerFrame, len(rows))
		chunk := rows[start:end]

		// Non-final frames carry the continuation marker instead of a count.
		count := byte(macroContinued)
		if end == len(rows) {
			count = byte(len(chunk))
		}

		payload := make([]byte, 0, 3+len(chunk)*macroRowSize)
		payload = append(payload, byte(m.Slot), byte(start/macroStepsPerFrame), count)
		for _, row := range chunk {
			payload = append(payload, row[:]...)
		}
		frames = append(frames, makeFrame(CmdUploadMacroData, payload...))
	}

	frames = append(frames, makeFrame(CmdAssignMacro, byte(m.Slot), byte(m.Repeat), 0x01, byte(len(rows))))
	return frames, nil
}

func directionByte(down bool) byte {
	if down {
		return 0x01
	}
	return 0x02
}
