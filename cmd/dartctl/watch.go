package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/dartctl/dartctl/internal/config"
	"github.com/dartctl/dartctl/internal/hid"
	"github.com/dartctl/dartctl/internal/hotplug"
	"github.com/dartctl/dartctl/internal/notify"
	"github.com/dartctl/dartctl/internal/pulsefire"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor battery and raise desktop alerts",
	Long: `Polls battery status on an interval, notifies on configured thresholds
and charge state changes, and follows the mouse across unplug/replug.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if secs := int(watchInterval.Seconds()); secs > 0 {
			cfg.Polling.IntervalSeconds = secs
		}
		mgr, err := hid.NewManager()
		if err != nil {
			return err
		}
		w := &watcher{
			cfg:      cfg,
			mgr:      mgr,
			notifier: notify.New("dartctl"),
			log:      slog.Default(),
		}
		return w.run(cmd.Context())
	},
}

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "battery poll interval (overrides config)")
}

// watcher is the state of one watch run.
type watcher struct {
	cfg      config.Config
	mgr      hid.Manager
	notifier notify.Notifier
	log      *slog.Logger

	lastPercent  int // -1 until the first reading
	lastCharging bool
	haveReading  bool
}

func (w *watcher) run(ctx context.Context) error {
	events := (&hotplug.Watcher{
		Manager: w.mgr,
		Match:   pulsefire.Match,
		Logger:  w.log,
	}).Run(ctx)

	interval := time.Duration(w.cfg.Polling.IntervalSeconds) * time.Second
	retryDelay := time.Duration(w.cfg.Polling.RetryDelaySeconds) * time.Second

	for {
		session, err := w.connect(ctx, retryDelay)
		if err != nil {
			return err
		}

		err = w.poll(ctx, session, events, interval)
		session.Close()
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case errors.Is(err, pulsefire.ErrDisconnected):
			w.log.Info("device lost, waiting for it to return")
			w.haveReading = false
			if w.cfg.Notifications.Enabled {
				w.notifyQuiet("Mouse disconnected", "Waiting for it to return.")
			}
		case err != nil:
			return err
		}
	}
}

// connect keeps trying until a session opens, the retry budget runs out, or
// ctx ends.
func (w *watcher) connect(ctx context.Context, retryDelay time.Duration) (*pulsefire.Session, error) {
	attempts := 0
	for {
		session, err := pulsefire.Connect(ctx, w.mgr, pulsefire.Options{Timeout: flagTimeout, Logger: w.log})
		if err == nil {
			w.onConnect(ctx, session)
			return session, nil
		}
		if !errors.Is(err, pulsefire.ErrDeviceNotFound) && !errors.Is(err, pulsefire.ErrTimeout) {
			return nil, err
		}

		attempts++
		if max := w.cfg.Polling.MaxRetries; max > 0 && attempts >= max {
			return nil, fmt.Errorf("device did not appear after %d attempts: %w", attempts, err)
		}
		w.log.Debug("connect failed, retrying", slog.Any("error", err), slog.Int("attempt", attempts))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}

// onConnect pushes configured defaults to a freshly connected mouse.
func (w *watcher) onConnect(ctx context.Context, s *pulsefire.Session) {
	if !w.cfg.Device.ApplyOnConnect {
		return
	}
	if hz := w.cfg.Device.PollingRateHz; hz != 0 {
		if err := s.SetPollingRate(ctx, hz); err != nil {
			w.log.Warn("applying default polling rate", slog.Any("error", err))
		}
	}
	if pct := w.cfg.Device.BatteryAlertPercent; pct != 0 {
		if err := s.SetAlertThreshold(ctx, pct); err != nil {
			w.log.Warn("applying default alert threshold", slog.Any("error", err))
		}
	}
}

// poll reads battery on the interval until the device goes away or ctx
// ends. Detach events cut the wait short so the session fails fast instead
// of timing out request by request.
func (w *watcher) poll(ctx context.Context, s *pulsefire.Session, events <-chan hotplug.Event, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := w.sample(ctx, s); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if ev.Kind == hotplug.Detached {
				s.HandleDetach()
				return pulsefire.ErrDisconnected
			}
		case <-ticker.C:
			if err := w.sample(ctx, s); err != nil {
				return err
			}
		}
	}
}

// sample takes one battery reading and raises whatever alerts it crosses.
func (w *watcher) sample(ctx context.Context, s *pulsefire.Session) error {
	status, err := s.Battery(ctx)
	if err != nil {
		if errors.Is(err, pulsefire.ErrTimeout) {
			w.log.Warn("battery read timed out, keeping session")
			return nil
		}
		return err
	}

	w.log.Info("battery",
		slog.Int("percent", status.Percent),
		slog.Bool("charging", status.Charging))

	if w.cfg.Notifications.Enabled {
		w.alert(status.Percent, status.Charging)
	}
	w.lastPercent = status.Percent
	w.lastCharging = status.Charging
	w.haveReading = true
	return nil
}

// alert compares a reading with the previous one and fires notifications
// for every configured threshold crossed downward, plus charge state edges.
func (w *watcher) alert(percent int, charging bool) {
	if !w.haveReading {
		return
	}

	if charging != w.lastCharging && w.cfg.Notifications.NotifyCharging {
		if charging {
			w.notifyQuiet("Mouse charging", fmt.Sprintf("Battery at %d%%.", percent))
		} else {
			w.notifyQuiet("Mouse unplugged", fmt.Sprintf("Battery at %d%%.", percent))
		}
	}

	if charging {
		if percent == 100 && w.lastPercent < 100 && w.cfg.Notifications.NotifyFull {
			w.notifyQuiet("Mouse fully charged", "You can unplug it.")
		}
		return
	}

	thresholds := append([]int(nil), w.cfg.Notifications.Thresholds...)
	sort.Sort(sort.Reverse(sort.IntSlice(thresholds)))
	for _, th := range thresholds {
		if w.lastPercent > th && percent <= th {
			w.notifyQuiet("Mouse battery low", fmt.Sprintf("Battery at %d%%.", percent))
			break
		}
	}
}

func (w *watcher) notifyQuiet(title, message string) {
	if err := w.notifier.Notify(title, message); err != nil {
		w.log.Warn("notification failed", slog.Any("error", err))
	}
}
