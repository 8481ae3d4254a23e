package pulsefire

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dartctl/dartctl/internal/hid"
	"github.com/dartctl/dartctl/internal/proto"
)

// DefaultTimeout is how long one exchange waits for the device's answer.
const DefaultTimeout = 1000 * time.Millisecond

// transport runs the request/response cycle over one HID device. The device
// answers strictly in order and has no request queue, so at most one
// exchange is in flight at a time; concurrent callers queue on a
// capacity-one slot and run FIFO.
type transport struct {
	dev     hid.Device
	timeout time.Duration
	log     *slog.Logger

	slot  chan struct{} // capacity 1, held for the duration of an exchange
	inbox chan []byte   // reports from readLoop
	done  chan struct{}

	mu       sync.Mutex
	err      error // sticky fatal error, nil while healthy
	shutOnce sync.Once
}

func newTransport(dev hid.Device, timeout time.Duration, log *slog.Logger) *transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	t := &transport{
		dev:     dev,
		timeout: timeout,
		log:     log,
		slot:    make(chan struct{}, 1),
		inbox:   make(chan []byte, 8),
		done:    make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// readLoop moves input reports from the device into the inbox until the
// device read fails or the transport shuts down.
func (t *transport) readLoop() {
	buf := make([]byte, proto.FrameSize+1)
	for {
		n, err := t.dev.Read(buf)
		if err != nil {
			t.fail(err)
			return
		}
		report := append([]byte(nil), buf[:n]...)
		select {
		case t.inbox <- report:
		case <-t.done:
			return
		}
	}
}

// fail records a fatal device error and shuts the transport down. The first
// failure wins; later ones are dropped.
func (t *transport) fail(cause error) {
	t.mu.Lock()
	if t.err == nil {
		t.err = fmt.Errorf("%w: %v", ErrDisconnected, cause)
		t.log.Warn("device transport failed", slog.Any("error", cause))
	}
	t.mu.Unlock()
	t.shutdown()
}

// close shuts the transport down without marking the device as lost.
func (t *transport) close() {
	t.mu.Lock()
	if t.err == nil {
		t.err = ErrClosed
	}
	t.mu.Unlock()
	t.shutdown()
}

func (t *transport) shutdown() {
	t.shutOnce.Do(func() {
		close(t.done)
		if err := t.dev.Close(); err != nil {
			t.log.Debug("device close", slog.Any("error", err))
		}
	})
}

// failure returns the sticky fatal error, if any.
func (t *transport) failure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// acquire takes the exchange slot, waiting behind earlier requests. A free
// slot is taken even when ctx is already done, so ErrBusy only ever reports
// genuine contention; the context is honored inside the exchange itself.
func (t *transport) acquire(ctx context.Context) error {
	select {
	case t.slot <- struct{}{}:
		return nil
	default:
	}
	select {
	case t.slot <- struct{}{}:
		return nil
	case <-t.done:
		return t.failure()
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
	}
}

func (t *transport) release() { <-t.slot }

// Exchange runs one request/response cycle: write the frame, wait for the
// response echoing its command id. Unrelated reports arriving in between
// are skipped, not misdelivered.
func (t *transport) Exchange(ctx context.Context, f proto.Frame) ([]byte, error) {
	if err := t.acquire(ctx); err != nil {
		return nil, err
	}
	defer t.release()
	return t.exchangeLocked(ctx, f)
}

// ExchangeSequence sends frames back to back under a single slot hold so no
// other request can interleave, checking each acknowledgement. Used for
// macro uploads, whose data frames only make sense as an unbroken run.
func (t *transport) ExchangeSequence(ctx context.Context, frames []proto.Frame) error {
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release()

	for i, f := range frames {
		raw, err := t.exchangeLocked(ctx, f)
		if err != nil {
			return fmt.Errorf("frame %d/%d (0x%02X): %w", i+1, len(frames), byte(f.Command()), err)
		}
		if err := proto.ParseAck(raw, f.Command()); err != nil {
			return fmt.Errorf("frame %d/%d (0x%02X): %w", i+1, len(frames), byte(f.Command()), err)
		}
	}
	return nil
}

// exchangeLocked does the cycle; the caller must hold the slot.
func (t *transport) exchangeLocked(ctx context.Context, f proto.Frame) ([]byte, error) {
	if err := t.failure(); err != nil {
		return nil, err
	}
	// Nothing is in flight yet, so an already-expired context stops the
	// request before the frame hits the wire. Once written, the frame is
	// not "unsent": cancellation below only abandons the wait.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.drain()

	// The HID layer wants the report ID in front; this interface uses
	// unnumbered reports, so the ID byte is zero.
	report := make([]byte, proto.FrameSize+1)
	copy(report[1:], f.Bytes())
	if _, err := t.dev.Write(report); err != nil {
		t.fail(err)
		return nil, t.failure()
	}

	want := f.Command()
	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.done:
			return nil, t.failure()
		case <-timer.C:
			return nil, fmt.Errorf("%w: no response to 0x%02X within %s", ErrTimeout, byte(want), t.timeout)
		case raw := <-t.inbox:
			frame := stripReportID(raw)
			if len(frame) == 0 {
				continue
			}
			if proto.CommandID(frame[0]) != want {
				t.log.Debug("skipping unrelated report",
					slog.Int("got", int(frame[0])), slog.Int("want", int(want)))
				continue
			}
			return frame, nil
		}
	}
}

// drain discards reports left over from an earlier timed-out request. A
// stale response echoes the same command id a fresh one would, so it must
// be gone before the next write.
func (t *transport) drain() {
	for {
		select {
		case raw := <-t.inbox:
			t.log.Debug("discarding stale report", slog.Int("len", len(raw)))
		default:
			return
		}
	}
}

func stripReportID(raw []byte) []byte {
	if len(raw) == proto.FrameSize+1 && raw[0] == 0x00 {
		return raw[1:]
	}
	return raw
}
