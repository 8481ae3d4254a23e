package pulsefire

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dartctl/dartctl/internal/hid"
	"github.com/dartctl/dartctl/internal/proto"
)

// simMouse scripts a mock HID device to behave like the real mouse: echo
// the command id, fill in query responses, and optionally swallow requests
// to simulate lost reports.
type simMouse struct {
	dev *hid.MockDevice

	mu         sync.Mutex
	swallow    map[proto.CommandID]int
	percent    byte
	charging   bool
	voltage    uint16
	activeDpi  byte
	noisy      bool // emit an unsolicited report before every answer
	macroDelay time.Duration
	onMacro    func(count int) // called per macro data frame, after handling
	macroCount int
}

func newSimMouse() *simMouse {
	s := &simMouse{
		swallow: map[proto.CommandID]int{},
		percent: 80,
		voltage: 3900,
	}
	s.dev = hid.NewMockDevice()
	s.dev.Responder = s.respond
	return s
}

// swallowNext makes the next n requests for cmd go unanswered.
func (s *simMouse) swallowNext(cmd proto.CommandID, n int) {
	s.mu.Lock()
	s.swallow[cmd] = n
	s.mu.Unlock()
}

func (s *simMouse) respond(report []byte) [][]byte {
	frame := report
	if len(frame) == proto.FrameSize+1 {
		frame = frame[1:]
	}
	cmd := proto.CommandID(frame[0])

	s.mu.Lock()
	if n := s.swallow[cmd]; n > 0 {
		s.swallow[cmd] = n - 1
		s.mu.Unlock()
		return nil
	}
	if cmd == proto.CmdSetDpi && frame[1] == 0x00 {
		s.activeDpi = frame[2]
	}
	var after func()
	if cmd == proto.CmdUploadMacroData {
		s.macroCount++
		if s.onMacro != nil {
			count := s.macroCount
			hook := s.onMacro
			after = func() { hook(count) }
		}
	}
	percent, charging, voltage := s.percent, s.charging, s.voltage
	active := s.activeDpi
	noisy := s.noisy
	delay := s.macroDelay
	s.mu.Unlock()

	if delay > 0 && (cmd == proto.CmdUploadMacroData || cmd == proto.CmdAssignMacro) {
		time.Sleep(delay)
	}

	resp := make([]byte, proto.FrameSize)
	resp[0] = byte(cmd)
	switch cmd {
	case proto.CmdGetHardwareInfo:
		resp[3] = 1
		binary.LittleEndian.PutUint16(resp[4:6], ProductWireless)
		binary.LittleEndian.PutUint16(resp[6:8], VendorID)
		copy(resp[12:], "Pulsefire Dart\x00")
	case proto.CmdGetBattery:
		resp[4] = percent
		if charging {
			resp[5] = 0x01
		}
		binary.LittleEndian.PutUint16(resp[7:9], voltage)
	case proto.CmdGetLed:
		resp[17] = 70
		resp[18], resp[19], resp[20] = 255, 0, 0
	case proto.CmdGetDpi:
		resp[5] = active
		resp[6] = 0x1F // all five profiles enabled
		for i := 0; i < proto.DpiProfileCount; i++ {
			binary.LittleEndian.PutUint16(resp[10+i*2:], uint16(800/proto.DpiStep))
		}
	}

	if after != nil {
		defer after()
	}
	if noisy {
		noise := make([]byte, proto.FrameSize)
		noise[0] = 0xFF
		return [][]byte{noise, resp}
	}
	return [][]byte{resp}
}

// countWrites returns how many written reports carry cmd.
func countWrites(dev *hid.MockDevice, cmd proto.CommandID) int {
	n := 0
	for _, w := range dev.Writes() {
		frame := w
		if len(frame) == proto.FrameSize+1 {
			frame = frame[1:]
		}
		if len(frame) > 0 && proto.CommandID(frame[0]) == cmd {
			n++
		}
	}
	return n
}

func newTestSession(t *testing.T, sim *simMouse) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), sim.dev, ModeWireless, Options{Timeout: 30 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConnectProbesDevice(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	require.Equal(t, ModeWireless, s.Mode())
	require.Equal(t, "Pulsefire Dart", s.HardwareInfo().DeviceName)
	require.Equal(t, "1.0.0", s.HardwareInfo().FirmwareVersion)
	require.Equal(t, 1, countWrites(sim.dev, proto.CmdGetHardwareInfo))
	require.Equal(t, 1, countWrites(sim.dev, proto.CmdGetBattery))
}

func TestExchangeRetriesAfterTimeout(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	before := countWrites(sim.dev, proto.CmdGetBattery)
	sim.swallowNext(proto.CmdGetBattery, 2)

	status, err := s.Battery(context.Background())
	require.NoError(t, err)
	require.Equal(t, 80, status.Percent)
	require.Equal(t, 3, countWrites(sim.dev, proto.CmdGetBattery)-before,
		"two swallowed requests plus the answered one")
}

func TestExchangeFailsAfterRetryBudget(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	before := countWrites(sim.dev, proto.CmdGetBattery)
	sim.swallowNext(proto.CmdGetBattery, 10)

	_, err := s.Battery(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, 3, countWrites(sim.dev, proto.CmdGetBattery)-before,
		"initial attempt plus two retries, then give up")
}

func TestSaveToDeviceMemoryNeverRetried(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	sim.swallowNext(proto.CmdSaveToMemory, 1)
	err := s.SaveToDeviceMemory(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, 1, countWrites(sim.dev, proto.CmdSaveToMemory))
}

func TestApplyDpiProfileActivatesExactlyOne(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)
	ctx := context.Background()

	err := s.ApplyDpiProfile(ctx, proto.DpiProfile{Index: 3, DPI: 1600, Active: true})
	require.NoError(t, err)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Dpi)

	activeCount := 0
	for _, p := range snap.Dpi.Profiles {
		if p.Active {
			activeCount++
		}
	}
	require.Equal(t, 1, activeCount)
	require.Equal(t, 3, snap.Dpi.Active().Index)
}

func TestSnapshotDegradesPerField(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	sim.swallowNext(proto.CmdGetLed, 10)
	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)

	require.Nil(t, snap.Led, "unreadable field stays nil")
	require.NotNil(t, snap.Battery)
	require.NotNil(t, snap.Dpi)
	require.NotNil(t, snap.Hardware)
}

func TestUploadMacroRetriesAfterTimeout(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	// One lost data frame must not fail the upload; the whole sequence is
	// reissued from scratch.
	sim.swallowNext(proto.CmdUploadMacroData, 1)
	err := s.UploadMacro(context.Background(), proto.Macro{
		Slot:   proto.ButtonBack,
		Repeat: proto.RepeatSingle,
		Steps:  keyTapSteps(0x04, 50),
	})
	require.NoError(t, err)
	require.Equal(t, 2, countWrites(sim.dev, proto.CmdUploadMacroData),
		"the swallowed data frame plus the answered re-upload")
	require.Equal(t, 1, countWrites(sim.dev, proto.CmdAssignMacro))
}

func TestUploadMacroFailsAfterRetryBudget(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	sim.swallowNext(proto.CmdUploadMacroData, 10)
	err := s.UploadMacro(context.Background(), proto.Macro{
		Slot:   proto.ButtonBack,
		Repeat: proto.RepeatSingle,
		Steps:  keyTapSteps(0x04, 50),
	})
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, 3, countWrites(sim.dev, proto.CmdUploadMacroData),
		"initial attempt plus two retries, then give up")
}

func keyTapSteps(code byte, delayMS int) []proto.MacroStep {
	return []proto.MacroStep{
		{Kind: proto.MacroKeyDown, Code: code},
		{Kind: proto.MacroDelay, DelayMS: delayMS},
		{Kind: proto.MacroKeyUp, Code: code},
	}
}

func TestMacroUploadDisconnectMidSequence(t *testing.T) {
	sim := newSimMouse()
	// Unplug after the first data frame is handled.
	sim.onMacro = func(count int) {
		if count == 1 {
			sim.dev.SetWriteError(errors.New("write: no such device"))
		}
	}
	s := newTestSession(t, sim)
	ctx := context.Background()

	var steps []proto.MacroStep
	for i := 0; i < 7; i++ {
		steps = append(steps, proto.MacroStep{Kind: proto.MacroMouseDown, Code: proto.MouseLeft})
	}
	err := s.UploadMacro(ctx, proto.Macro{Slot: proto.ButtonBack, Repeat: proto.RepeatSingle, Steps: steps})
	require.ErrorIs(t, err, ErrDisconnected)

	_, err = s.Snapshot(ctx)
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestMacroUploadNotInterleaved(t *testing.T) {
	sim := newSimMouse()
	sim.macroDelay = 5 * time.Millisecond
	s := newTestSession(t, sim)
	ctx := context.Background()

	var steps []proto.MacroStep
	for i := 0; i < 13; i++ {
		steps = append(steps, proto.MacroStep{Kind: proto.MacroKeyDown, Code: 0x04})
	}

	var wg sync.WaitGroup
	var macroErr, ledErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		macroErr = s.UploadMacro(ctx, proto.Macro{Slot: proto.ButtonDpi, Repeat: proto.RepeatSingle, Steps: steps})
	}()
	go func() {
		defer wg.Done()
		ledErr = s.ApplyLed(ctx, proto.LedConfig{Target: proto.LedTargetBoth, Color: proto.Color{R: 255}})
	}()
	wg.Wait()
	require.NoError(t, macroErr)
	require.NoError(t, ledErr)

	// The LED frame must not land between the first macro frame and the
	// assign frame.
	writes := sim.dev.Writes()
	first, last := -1, -1
	for i, w := range writes {
		frame := w
		if len(frame) == proto.FrameSize+1 {
			frame = frame[1:]
		}
		switch proto.CommandID(frame[0]) {
		case proto.CmdUploadMacroData:
			if first == -1 {
				first = i
			}
		case proto.CmdAssignMacro:
			last = i
		}
	}
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, last, first)
	for i := first; i <= last; i++ {
		frame := writes[i]
		if len(frame) == proto.FrameSize+1 {
			frame = frame[1:]
		}
		cmd := proto.CommandID(frame[0])
		require.Contains(t, []proto.CommandID{proto.CmdUploadMacroData, proto.CmdAssignMacro}, cmd,
			"write %d interleaved into the macro sequence", i)
	}
}

func TestDetachFailsPendingAndFuture(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	s.HandleDetach()
	_, err := s.Battery(context.Background())
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestSnapshotJSONNullsUnknownFields(t *testing.T) {
	snap := &DeviceSnapshot{
		TakenAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Mode:    ModeWired,
		Battery: &proto.BatteryStatus{Percent: 55, VoltageMV: 3810},
	}
	data, err := snap.MarshalJSON()
	require.NoError(t, err)

	got := string(data)
	require.Contains(t, got, `"battery":{"percent":55`)
	require.Contains(t, got, `"led":null`)
	require.Contains(t, got, `"dpi":null`)
	require.Contains(t, got, `"polling_rate_hz":null`)
}
