package proto

// SaveToMemory builds the frame persisting the current settings across
// power cycles. It is always issued standalone; a failed save means the
// settings were NOT persisted and must never be reported otherwise.
func SaveToMemory() Frame {
	return makeFrame(CmdSaveToMemory, 0xFF)
}
