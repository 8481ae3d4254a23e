package proto

// ButtonSlot is one of the six physical buttons.
type ButtonSlot byte

const (
	ButtonLeft    ButtonSlot = 0x00
	ButtonRight   ButtonSlot = 0x01
	ButtonMiddle  ButtonSlot = 0x02
	ButtonForward ButtonSlot = 0x03
	ButtonBack    ButtonSlot = 0x04
	ButtonDpi     ButtonSlot = 0x05

	ButtonSlotCount = 6
)

var buttonNames = map[ButtonSlot]string{
	ButtonLeft:    "Left Click",
	ButtonRight:   "Right Click",
	ButtonMiddle:  "Middle Click",
	ButtonForward: "Forward",
	ButtonBack:    "Back",
	ButtonDpi:     "DPI Button",
}

func (b ButtonSlot) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return "Unknown Button"
}

// ActionType selects what a remapped button does.
type ActionType byte

const (
	ActionDisabled ActionType = 0x00
	ActionMouse    ActionType = 0x01
	ActionKeyboard ActionType = 0x02
	ActionMedia    ActionType = 0x03
	ActionMacro    ActionType = 0x04
	ActionDpi      ActionType = 0x07
)

// Mouse button codes.
const (
	MouseLeft    byte = 0x01
	MouseRight   byte = 0x02
	MouseMiddle  byte = 0x03
	MouseBack    byte = 0x04
	MouseForward byte = 0x05
)

// DPI button functions.
const (
	DpiCycleUp   byte = 0x01
	DpiCycleDown byte = 0x02
	DpiCycle     byte = 0x03
)

// Media key codes from the HID consumer usage table.
const (
	MediaPlayPause  byte = 0xCD
	MediaStop       byte = 0xB7
	MediaNextTrack  byte = 0xB5
	MediaPrevTrack  byte = 0xB6
	MediaVolumeUp   byte = 0xE9
	MediaVolumeDown byte = 0xEA
	MediaMute       byte = 0xE2
)

// ButtonAction is one slot assignment: the action type plus its code (mouse
// button, keyboard scancode, media usage, or DPI function; zero for
// disabled and macro assignments).
type ButtonAction struct {
	Type ActionType
	Code byte
}

// ButtonMap assigns actions to physical slots.
type ButtonMap map[ButtonSlot]ButtonAction

// SetButton builds one slot remap frame: slot(1), action type(2), data
// length 0x02(3), code(4), trailer(5). Macro assignments carry 0x00 in the
// trailer, everything else 0x04.
func SetButton(slot ButtonSlot, action ButtonAction) (Frame, error) {
	if slot >= ButtonSlotCount {
		return Frame{}, &EncodingError{Field: "button slot", Value: int(slot), Reason: "outside the six physical buttons"}
	}
	switch action.Type {
	case ActionDisabled, ActionMouse, ActionKeyboard, ActionMedia, ActionMacro, ActionDpi:
	default:
		return Frame{}, &EncodingError{Field: "button action", Value: int(action.Type), Reason: "unknown action type"}
	}

	trailer := byte(0x04)
	if action.Type == ActionMacro {
		trailer = 0x00
	}
	return makeFrame(CmdSetButtons, byte(slot), byte(action.Type), 0x02, action.Code, trailer), nil
}
