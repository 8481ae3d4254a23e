package pulsefire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dartctl/dartctl/internal/hid"
	"github.com/dartctl/dartctl/internal/proto"
)

// DefaultRetries is how many times a timed-out request is reissued before
// the error surfaces. Every command is idempotent, so reissuing after a
// lost response is safe; the one exception is SaveToDeviceMemory.
const DefaultRetries = 2

// Options tunes a session. Zero values mean defaults.
type Options struct {
	Timeout time.Duration // per-exchange response deadline
	Retries int           // extra attempts after a timeout, -1 for none
	Logger  *slog.Logger
}

// Session is an open conversation with one mouse. All methods are safe for
// concurrent use; requests serialize on the transport.
type Session struct {
	tr      *transport
	log     *slog.Logger
	retries int
	mode    ConnectionMode
	hw      proto.HardwareInfo

	// Polling rate and alert threshold are write-only on the wire; the
	// session remembers the last applied values for snapshots.
	mu            sync.Mutex
	lastPollingHz int
	lastAlert     int
}

// Connect finds the mouse's vendor interface through mgr, opens it, and
// establishes a session. The probe exchange doubles as liveness check: a
// device that will not answer hardware info is not usable.
func Connect(ctx context.Context, mgr hid.Manager, opts Options) (*Session, error) {
	info, err := FindInterface(mgr)
	if err != nil {
		return nil, err
	}
	dev, err := mgr.Open(info)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("open %s: %w", info.Path, err)
	}
	mode, _ := modeForProduct(info.ProductID)
	return NewSession(ctx, dev, mode, opts)
}

// NewSession wraps an already-opened device. Ownership of dev transfers to
// the session; it is closed on any exit path.
func NewSession(ctx context.Context, dev hid.Device, mode ConnectionMode, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	retries := opts.Retries
	if retries == 0 {
		retries = DefaultRetries
	} else if retries < 0 {
		retries = 0
	}

	s := &Session{
		tr:      newTransport(dev, opts.Timeout, log),
		log:     log,
		retries: retries,
		mode:    mode,
	}
	if err := s.probe(ctx); err != nil {
		s.tr.close()
		return nil, fmt.Errorf("probe: %w", err)
	}
	return s, nil
}

// probe reads hardware info and battery once to confirm the device answers.
func (s *Session) probe(ctx context.Context) error {
	raw, err := s.exchange(ctx, proto.GetHardwareInfo())
	if err != nil {
		return err
	}
	hw, err := proto.ParseHardwareInfo(raw)
	if err != nil {
		return err
	}
	s.hw = hw

	if _, err := s.Battery(ctx); err != nil {
		return err
	}

	s.log.Info("device connected",
		slog.String("name", hw.DeviceName),
		slog.String("firmware", hw.FirmwareVersion),
		slog.String("mode", string(s.mode)))
	return nil
}

// exchange runs one request, reissuing it after timeouts up to the retry
// budget. Non-timeout errors surface immediately.
func (s *Session) exchange(ctx context.Context, f proto.Frame) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			s.log.Debug("retrying request",
				slog.Int("command", int(f.Command())), slog.Int("attempt", attempt+1))
		}
		raw, err := s.tr.Exchange(ctx, f)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, ErrTimeout) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// apply sends a write command and checks its echo acknowledgement.
func (s *Session) apply(ctx context.Context, f proto.Frame, err error) error {
	if err != nil {
		return err
	}
	raw, err := s.exchange(ctx, f)
	if err != nil {
		return err
	}
	return proto.ParseAck(raw, f.Command())
}

// Mode reports how the mouse is attached.
func (s *Session) Mode() ConnectionMode { return s.mode }

// HardwareInfo returns the identity read during the connect probe.
func (s *Session) HardwareInfo() proto.HardwareInfo { return s.hw }

// Battery reads the current battery status.
func (s *Session) Battery(ctx context.Context) (proto.BatteryStatus, error) {
	raw, err := s.exchange(ctx, proto.GetBattery())
	if err != nil {
		return proto.BatteryStatus{}, err
	}
	return proto.ParseBattery(raw)
}

// Led reads the LED settings stored in device memory.
func (s *Session) Led(ctx context.Context) (proto.LedConfig, error) {
	raw, err := s.exchange(ctx, proto.GetLed())
	if err != nil {
		return proto.LedConfig{}, err
	}
	return proto.ParseLed(raw)
}

// Dpi reads the full DPI profile set.
func (s *Session) Dpi(ctx context.Context) (proto.DpiSettings, error) {
	raw, err := s.exchange(ctx, proto.GetDpi())
	if err != nil {
		return proto.DpiSettings{}, err
	}
	return proto.ParseDpi(raw)
}

// ApplyLed pushes an LED configuration. The change takes effect immediately
// but only survives power-down after SaveToDeviceMemory.
func (s *Session) ApplyLed(ctx context.Context, c proto.LedConfig) error {
	f, err := proto.SetLed(c)
	return s.apply(ctx, f, err)
}

// ApplyDpiProfile pushes one profile's value and color, and activates it
// when p.Active is set.
func (s *Session) ApplyDpiProfile(ctx context.Context, p proto.DpiProfile) error {
	f, err := proto.SetDpiValue(p.Index, p.DPI)
	if err := s.apply(ctx, f, err); err != nil {
		return fmt.Errorf("dpi value: %w", err)
	}
	f, err = proto.SetDpiColor(p.Index, p.Color)
	if err := s.apply(ctx, f, err); err != nil {
		return fmt.Errorf("dpi color: %w", err)
	}
	if p.Active {
		f, err = proto.SelectDpiProfile(p.Index)
		if err := s.apply(ctx, f, err); err != nil {
			return fmt.Errorf("dpi select: %w", err)
		}
	}
	return nil
}

// ApplyDpiMask sets which profiles the DPI button cycles through. Bit 0 is
// profile 1.
func (s *Session) ApplyDpiMask(ctx context.Context, mask byte) error {
	f, err := proto.EnableDpiProfiles(mask)
	return s.apply(ctx, f, err)
}

// ApplyButton remaps a single button slot.
func (s *Session) ApplyButton(ctx context.Context, slot proto.ButtonSlot, action proto.ButtonAction) error {
	f, err := proto.SetButton(slot, action)
	return s.apply(ctx, f, err)
}

// ApplyButtonMap remaps every slot in m, in slot order.
func (s *Session) ApplyButtonMap(ctx context.Context, m proto.ButtonMap) error {
	for slot := proto.ButtonSlot(0); slot < proto.ButtonSlotCount; slot++ {
		action, ok := m[slot]
		if !ok {
			continue
		}
		if err := s.ApplyButton(ctx, slot, action); err != nil {
			return fmt.Errorf("%s: %w", slot, err)
		}
	}
	return nil
}

// UploadMacro pushes a macro to its slot as one uninterruptible frame
// sequence. A timed-out sequence is reissued whole, up to the retry budget:
// a fresh upload restarts at sequence zero and overwrites whatever the
// aborted one left in the slot, so the retry is idempotent. Other failures
// surface immediately and leave the slot's device-side storage undefined;
// re-upload or clear it before relying on it.
func (s *Session) UploadMacro(ctx context.Context, m proto.Macro) error {
	frames, err := proto.EncodeMacro(m)
	if err != nil {
		return err
	}
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			s.log.Debug("retrying macro upload",
				slog.String("slot", m.Slot.String()), slog.Int("attempt", attempt+1))
		}
		err := s.tr.ExchangeSequence(ctx, frames)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTimeout) {
			return fmt.Errorf("macro upload to %s: %w", m.Slot, err)
		}
		lastErr = err
	}
	return fmt.Errorf("macro upload to %s: %w", m.Slot, lastErr)
}

// SetPollingRate sets the USB polling rate in Hz (125, 250, 500 or 1000).
func (s *Session) SetPollingRate(ctx context.Context, hz int) error {
	r, err := proto.PollingRateFromHz(hz)
	if err != nil {
		return err
	}
	f, err := proto.SetPollingRate(r)
	if err := s.apply(ctx, f, err); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastPollingHz = hz
	s.mu.Unlock()
	return nil
}

// SetAlertThreshold sets the low-battery alert percentage (5-25).
func (s *Session) SetAlertThreshold(ctx context.Context, percent int) error {
	f, err := proto.SetAlertThreshold(percent)
	if err := s.apply(ctx, f, err); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastAlert = percent
	s.mu.Unlock()
	return nil
}

// SaveToDeviceMemory commits the current settings to onboard flash so they
// survive power-down. The command is sent exactly once: if its
// acknowledgement is lost there is no way to tell whether the commit
// happened, so a timeout here surfaces instead of being retried.
func (s *Session) SaveToDeviceMemory(ctx context.Context) error {
	raw, err := s.tr.Exchange(ctx, proto.SaveToMemory())
	if err != nil {
		return err
	}
	return proto.ParseAck(raw, proto.CmdSaveToMemory)
}

// Snapshot reads everything readable and reports it as one document.
// Individual reads may fail without sinking the snapshot; their fields stay
// nil. Only a dead transport or a snapshot where nothing answered is an
// error.
func (s *Session) Snapshot(ctx context.Context) (*DeviceSnapshot, error) {
	hw := s.hw
	snap := &DeviceSnapshot{
		TakenAt:  time.Now().UTC(),
		Mode:     s.mode,
		Hardware: &hw,
	}

	answered := 0
	var lastErr error
	record := func(name string, err error) error {
		if err == nil {
			answered++
			return nil
		}
		if fatalErr(err) {
			return err
		}
		s.log.Warn("snapshot field unavailable", slog.String("field", name), slog.Any("error", err))
		lastErr = err
		return nil
	}

	battery, err := s.Battery(ctx)
	if ferr := record("battery", err); ferr != nil {
		return nil, ferr
	}
	if err == nil {
		snap.Battery = &battery
	}

	led, err := s.Led(ctx)
	if ferr := record("led", err); ferr != nil {
		return nil, ferr
	}
	if err == nil {
		snap.Led = &led
	}

	dpi, err := s.Dpi(ctx)
	if ferr := record("dpi", err); ferr != nil {
		return nil, ferr
	}
	if err == nil {
		snap.Dpi = &dpi
	}

	if answered == 0 {
		return nil, fmt.Errorf("snapshot: no field readable: %w", lastErr)
	}

	s.mu.Lock()
	snap.PollingRateHz = s.lastPollingHz
	snap.AlertThreshold = s.lastAlert
	s.mu.Unlock()
	return snap, nil
}

// fatalErr reports whether an error means the session is beyond per-field
// degradation.
func fatalErr(err error) bool {
	return errors.Is(err, ErrDisconnected) ||
		errors.Is(err, ErrClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Close shuts the session down and releases the device.
func (s *Session) Close() error {
	s.tr.close()
	return nil
}

// HandleDetach marks the session disconnected, typically driven by a
// hotplug watcher seeing the device leave. In-flight and future requests
// fail with ErrDisconnected.
func (s *Session) HandleDetach() {
	s.tr.fail(errors.New("device detached"))
}
