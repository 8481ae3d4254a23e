package proto

import "fmt"

// EncodingError reports a command field outside its documented range. It is
// always a caller error and must never be retried.
type EncodingError struct {
	Field  string
	Value  int
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("proto: cannot encode %s=%d: %s", e.Field, e.Value, e.Reason)
}

// TruncatedError reports a response that is not exactly one frame long.
type TruncatedError struct {
	Len int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("proto: truncated response: %d bytes, want %d", e.Len, FrameSize)
}

// MismatchError reports a response whose echoed command id does not match
// the request it should answer.
type MismatchError struct {
	Want, Got CommandID
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("proto: response command mismatch: want 0x%02X, got 0x%02X", byte(e.Want), byte(e.Got))
}
