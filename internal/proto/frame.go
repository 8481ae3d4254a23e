// Package proto implements the HyperX Pulsefire Dart HID protocol: encoding
// typed commands into fixed 64-byte interrupt packets and decoding the
// device's raw responses into typed results. The package is pure data
// transformation; all I/O lives in the transport layer.
//
// Every multi-byte field in the protocol is little-endian.
package proto

// FrameSize is the fixed length of every command and response packet.
const FrameSize = 64

// CommandID occupies byte 0 of every frame. A response echoes the command
// id of the request it answers; that echo is the only correlation key the
// protocol has.
type CommandID byte

const (
	CmdGetHardwareInfo   CommandID = 0x50
	CmdGetBattery        CommandID = 0x51
	CmdGetLed            CommandID = 0x52
	CmdGetDpi            CommandID = 0x53
	CmdSetLed            CommandID = 0xD2
	CmdSetDpi            CommandID = 0xD3
	CmdSetButtons        CommandID = 0xD4
	CmdAssignMacro       CommandID = 0xD5
	CmdUploadMacroData   CommandID = 0xD6
	CmdSetPollingRate    CommandID = 0xDA
	CmdSetAlertThreshold CommandID = 0xDB
	CmdSaveToMemory      CommandID = 0xDE
)

// Frame is a single 64-byte HID interrupt packet: command id at byte 0,
// command payload at bytes 1..63, zero-padded. Frames are immutable once
// built.
type Frame [FrameSize]byte

// Command returns the frame's command id.
func (f Frame) Command() CommandID { return CommandID(f[0]) }

// Bytes returns a fresh copy of the frame contents.
func (f Frame) Bytes() []byte {
	out := make([]byte, FrameSize)
	copy(out, f[:])
	return out
}

// makeFrame lays out a command id and payload at fixed offsets;
// unspecified payload bytes stay zero.
func makeFrame(cmd CommandID, payload ...byte) Frame {
	var f Frame
	f[0] = byte(cmd)
	copy(f[1:], payload)
	return f
}

// checkResponse validates the two properties every response must satisfy
// before any field extraction: full frame length and the echoed command id.
func checkResponse(raw []byte, want CommandID) error {
	if len(raw) != FrameSize {
		return &TruncatedError{Len: len(raw)}
	}
	if CommandID(raw[0]) != want {
		return &MismatchError{Want: want, Got: CommandID(raw[0])}
	}
	return nil
}

// ParseAck checks a write command's acknowledgement. The device echoes the
// command id with no payload guarantee; the echo itself is the success
// signal.
func ParseAck(raw []byte, want CommandID) error {
	return checkResponse(raw, want)
}
