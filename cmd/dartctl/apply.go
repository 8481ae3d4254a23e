package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dartctl/dartctl/internal/proto"
)

// parseColor accepts "#RRGGBB" or "RRGGBB".
func parseColor(s string) (proto.Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return proto.Color{}, fmt.Errorf("color %q: want RRGGBB hex", s)
	}
	v, err := strconv.ParseUint(s, 16, 24)
	if err != nil {
		return proto.Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return proto.Color{R: byte(v >> 16), G: byte(v >> 8), B: byte(v)}, nil
}

var ledTargets = map[string]proto.LedTarget{
	"logo":   proto.LedTargetLogo,
	"scroll": proto.LedTargetScroll,
	"both":   proto.LedTargetBoth,
}

var ledEffects = map[string]proto.LedEffect{
	"static":    proto.LedEffectStatic,
	"spectrum":  proto.LedEffectSpectrum,
	"breathing": proto.LedEffectBreathing,
	"trigger":   proto.LedEffectTrigger,
}

var (
	ledTarget     string
	ledEffect     string
	ledColor      string
	ledColor2     string
	ledBrightness int
	ledSpeed      int
)

var ledCmd = &cobra.Command{
	Use:   "led",
	Short: "Set lighting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, ok := ledTargets[ledTarget]
		if !ok {
			return fmt.Errorf("target %q: want logo, scroll or both", ledTarget)
		}
		effect, ok := ledEffects[ledEffect]
		if !ok {
			return fmt.Errorf("effect %q: want static, spectrum, breathing or trigger", ledEffect)
		}
		color, err := parseColor(ledColor)
		if err != nil {
			return err
		}
		cfg := proto.LedConfig{
			Target:     target,
			Effect:     effect,
			Color:      color,
			Brightness: ledBrightness,
			Speed:      ledSpeed,
		}
		if ledColor2 != "" {
			c2, err := parseColor(ledColor2)
			if err != nil {
				return err
			}
			cfg.Secondary = &c2
		}

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return s.ApplyLed(cmd.Context(), cfg)
	},
}

func init() {
	ledCmd.Flags().StringVar(&ledTarget, "target", "both", "led zone: logo, scroll or both")
	ledCmd.Flags().StringVar(&ledEffect, "effect", "static", "effect: static, spectrum, breathing or trigger")
	ledCmd.Flags().StringVar(&ledColor, "color", "FF0000", "primary color, RRGGBB hex")
	ledCmd.Flags().StringVar(&ledColor2, "color2", "", "secondary color for breathing, RRGGBB hex")
	ledCmd.Flags().IntVar(&ledBrightness, "brightness", 100, "brightness 0-100")
	ledCmd.Flags().IntVar(&ledSpeed, "speed", 50, "animation speed 0-100")
}

var dpiCmd = &cobra.Command{
	Use:   "dpi",
	Short: "Manage DPI profiles",
}

var (
	dpiProfile int
	dpiValue   int
	dpiColor   string
	dpiActive  bool
)

var dpiSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set one profile's DPI value and color",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := proto.DpiProfile{Index: dpiProfile, DPI: dpiValue, Active: dpiActive}
		if dpiColor != "" {
			c, err := parseColor(dpiColor)
			if err != nil {
				return err
			}
			p.Color = c
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return s.ApplyDpiProfile(cmd.Context(), p)
	},
}

var dpiSelectCmd = &cobra.Command{
	Use:   "select <profile>",
	Short: "Make a profile the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("profile %q: %w", args[0], err)
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		// Keep the profile's stored value and color; only switch which
		// one is active.
		settings, err := s.Dpi(cmd.Context())
		if err != nil {
			return err
		}
		if index < 1 || index > proto.DpiProfileCount {
			return fmt.Errorf("profile %d: want 1-%d", index, proto.DpiProfileCount)
		}
		p := settings.Profiles[index-1]
		p.Active = true
		return s.ApplyDpiProfile(cmd.Context(), p)
	},
}

var dpiEnableCmd = &cobra.Command{
	Use:   "enable <profiles>",
	Short: "Choose which profiles the DPI button cycles through",
	Long:  "Profiles is a comma-separated list, e.g. \"1,2,4\".",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var mask byte
		for _, part := range strings.Split(args[0], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 1 || n > proto.DpiProfileCount {
				return fmt.Errorf("profile %q: want 1-%d", part, proto.DpiProfileCount)
			}
			mask |= 1 << (n - 1)
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return s.ApplyDpiMask(cmd.Context(), mask)
	},
}

func init() {
	dpiSetCmd.Flags().IntVar(&dpiProfile, "profile", 1, "profile index 1-5")
	dpiSetCmd.Flags().IntVar(&dpiValue, "value", 800, "dpi, 50-16000 in steps of 50")
	dpiSetCmd.Flags().StringVar(&dpiColor, "color", "", "indicator color, RRGGBB hex")
	dpiSetCmd.Flags().BoolVar(&dpiActive, "active", false, "also make this profile active")
	dpiCmd.AddCommand(dpiSetCmd, dpiSelectCmd, dpiEnableCmd)
}

var buttonSlots = map[string]proto.ButtonSlot{
	"left":    proto.ButtonLeft,
	"right":   proto.ButtonRight,
	"middle":  proto.ButtonMiddle,
	"forward": proto.ButtonForward,
	"back":    proto.ButtonBack,
	"dpi":     proto.ButtonDpi,
}

var mouseCodes = map[string]byte{
	"left":    proto.MouseLeft,
	"right":   proto.MouseRight,
	"middle":  proto.MouseMiddle,
	"back":    proto.MouseBack,
	"forward": proto.MouseForward,
}

var mediaCodes = map[string]byte{
	"play-pause":  proto.MediaPlayPause,
	"stop":        proto.MediaStop,
	"next":        proto.MediaNextTrack,
	"prev":        proto.MediaPrevTrack,
	"volume-up":   proto.MediaVolumeUp,
	"volume-down": proto.MediaVolumeDown,
	"mute":        proto.MediaMute,
}

var dpiCodes = map[string]byte{
	"up":    proto.DpiCycleUp,
	"down":  proto.DpiCycleDown,
	"cycle": proto.DpiCycle,
}

// parseAction turns an action spec like "mouse:left", "key:0x04",
// "media:play-pause", "dpi:cycle", "macro" or "disable" into a ButtonAction.
func parseAction(spec string) (proto.ButtonAction, error) {
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "disable":
		return proto.ButtonAction{Type: proto.ActionDisabled}, nil
	case "macro":
		return proto.ButtonAction{Type: proto.ActionMacro}, nil
	case "mouse":
		code, ok := mouseCodes[arg]
		if !ok {
			return proto.ButtonAction{}, fmt.Errorf("mouse action %q: want left, right, middle, back or forward", arg)
		}
		return proto.ButtonAction{Type: proto.ActionMouse, Code: code}, nil
	case "key":
		code, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			return proto.ButtonAction{}, fmt.Errorf("key scancode %q: %w", arg, err)
		}
		return proto.ButtonAction{Type: proto.ActionKeyboard, Code: byte(code)}, nil
	case "media":
		code, ok := mediaCodes[arg]
		if !ok {
			return proto.ButtonAction{}, fmt.Errorf("media action %q", arg)
		}
		return proto.ButtonAction{Type: proto.ActionMedia, Code: code}, nil
	case "dpi":
		code, ok := dpiCodes[arg]
		if !ok {
			return proto.ButtonAction{}, fmt.Errorf("dpi action %q: want up, down or cycle", arg)
		}
		return proto.ButtonAction{Type: proto.ActionDpi, Code: code}, nil
	}
	return proto.ButtonAction{}, fmt.Errorf("action %q: want disable, macro, mouse:…, key:…, media:… or dpi:…", spec)
}

var buttonCmd = &cobra.Command{
	Use:   "button <slot> <action>",
	Short: "Remap a button",
	Long: `Slot is one of left, right, middle, forward, back, dpi.
Action is disable, macro, mouse:<button>, key:<scancode>, media:<key> or dpi:<function>.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, ok := buttonSlots[args[0]]
		if !ok {
			return fmt.Errorf("slot %q: want left, right, middle, forward, back or dpi", args[0])
		}
		action, err := parseAction(args[1])
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return s.ApplyButton(cmd.Context(), slot, action)
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate <hz>",
	Short: "Set USB polling rate (125, 250, 500 or 1000)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hz, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("rate %q: %w", args[0], err)
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return s.SetPollingRate(cmd.Context(), hz)
	},
}

var alertCmd = &cobra.Command{
	Use:   "alert <percent>",
	Short: "Set the low-battery alert threshold (5-25)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pct, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("threshold %q: %w", args[0], err)
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return s.SetAlertThreshold(cmd.Context(), pct)
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Commit current settings to onboard memory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.SaveToDeviceMemory(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("settings saved to device memory")
		return nil
	},
}
