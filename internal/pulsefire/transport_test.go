package pulsefire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dartctl/dartctl/internal/proto"
)

func TestExchangeBusyWhenContextAlreadyDone(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	// Occupy the exchange slot as an in-flight request would.
	s.tr.slot <- struct{}{}
	defer func() { <-s.tr.slot }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.tr.Exchange(ctx, proto.GetBattery())
	require.ErrorIs(t, err, ErrBusy)
}

func TestExchangeUncontendedNeverBusy(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// With the slot free, an expired context is a cancellation, not
	// contention. Repeat to shake out select nondeterminism.
	for i := 0; i < 50; i++ {
		_, err := s.tr.Exchange(ctx, proto.GetBattery())
		require.NotErrorIs(t, err, ErrBusy)
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestExchangeDrainsStaleReports(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	// A late answer to a timed-out battery request is still in the inbox.
	sim.swallowNext(proto.CmdGetBattery, 3)
	_, err := s.Battery(context.Background())
	require.ErrorIs(t, err, ErrTimeout)

	stale := make([]byte, proto.FrameSize)
	stale[0] = byte(proto.CmdGetBattery)
	stale[4] = 11
	sim.dev.Emit(stale)
	time.Sleep(10 * time.Millisecond) // let the read loop move it to the inbox

	status, err := s.Battery(context.Background())
	require.NoError(t, err)
	require.Equal(t, 80, status.Percent, "fresh response, not the stale one")
}

func TestExchangeSkipsUnrelatedReports(t *testing.T) {
	sim := newSimMouse()
	// The device pushes an unsolicited report ahead of each real answer.
	sim.noisy = true
	s := newTestSession(t, sim)

	status, err := s.Battery(context.Background())
	require.NoError(t, err)
	require.Equal(t, 80, status.Percent)
}

func TestCloseFailsFutureRequests(t *testing.T) {
	sim := newSimMouse()
	s := newTestSession(t, sim)

	require.NoError(t, s.Close())
	_, err := s.Battery(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}
