package proto

// LedTarget selects which LED zone a setting applies to.
type LedTarget byte

const (
	LedTargetLogo   LedTarget = 0x00
	LedTargetScroll LedTarget = 0x10
	LedTargetBoth   LedTarget = 0x20
)

// LedEffect selects the lighting effect mode.
type LedEffect byte

const (
	LedEffectStatic    LedEffect = 0x00
	LedEffectSpectrum  LedEffect = 0x12
	LedEffectBreathing LedEffect = 0x20
	LedEffectTrigger   LedEffect = 0x30
)

// Color is an RGB triple.
type Color struct {
	R, G, B byte
}

// LedConfig is one complete LED setting. Speed only matters for animated
// effects; the device ignores it for static.
type LedConfig struct {
	Target     LedTarget
	Effect     LedEffect
	Color      Color
	Secondary  *Color // breathing fade target, defaults to Color
	Brightness int    // 0-100
	Speed      int    // 0-100
}

// SetLed builds the direct-mode LED frame: target(1), effect(2), data
// length 0x08(3), primary RGB(4-6), secondary RGB(7-9), brightness(10),
// speed(11). All fields are validated before any byte is laid out.
func SetLed(c LedConfig) (Frame, error) {
	switch c.Target {
	case LedTargetLogo, LedTargetScroll, LedTargetBoth:
	default:
		return Frame{}, &EncodingError{Field: "led target", Value: int(c.Target), Reason: "unknown zone"}
	}
	switch c.Effect {
	case LedEffectStatic, LedEffectSpectrum, LedEffectBreathing, LedEffectTrigger:
	default:
		return Frame{}, &EncodingError{Field: "led effect", Value: int(c.Effect), Reason: "unknown effect"}
	}
	if c.Brightness < 0 || c.Brightness > 100 {
		return Frame{}, &EncodingError{Field: "brightness", Value: c.Brightness, Reason: "outside 0-100"}
	}
	if c.Speed < 0 || c.Speed > 100 {
		return Frame{}, &EncodingError{Field: "speed", Value: c.Speed, Reason: "outside 0-100"}
	}

	secondary := c.Color
	if c.Secondary != nil {
		secondary = *c.Secondary
	}

	return makeFrame(CmdSetLed,
		byte(c.Target),
		byte(c.Effect),
		0x08,
		c.Color.R, c.Color.G, c.Color.B,
		secondary.R, secondary.G, secondary.B,
		byte(c.Brightness),
		byte(c.Speed),
	), nil
}

// GetLed builds the stored-LED-settings query frame. The query reads what
// is saved in device memory, not necessarily the active direct-mode state.
func GetLed() Frame {
	return makeFrame(CmdGetLed)
}

// ParseLed extracts the stored LED settings: brightness at byte 17, RGB at
// bytes 18-20. The response does not echo target or effect. Offsets are
// provisional; only the battery layout is externally documented.
func ParseLed(raw []byte) (LedConfig, error) {
	if err := checkResponse(raw, CmdGetLed); err != nil {
		return LedConfig{}, err
	}

	return LedConfig{
		Target:     LedTargetBoth,
		Effect:     LedEffectStatic,
		Brightness: int(raw[17]),
		Color:      Color{R: raw[18], G: raw[19], B: raw[20]},
	}, nil
}
