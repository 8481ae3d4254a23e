// Package hotplug watches HID enumeration for devices coming and going.
// The HID backends expose no event feed, so the watcher polls and diffs.
package hotplug

import (
	"context"
	"log/slog"
	"time"

	"github.com/dartctl/dartctl/internal/hid"
)

// EventKind says which way a device went.
type EventKind int

const (
	Attached EventKind = iota
	Detached
)

func (k EventKind) String() string {
	if k == Attached {
		return "attached"
	}
	return "detached"
}

// Event is one observed arrival or departure.
type Event struct {
	Kind EventKind
	Info hid.Info
}

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = 2 * time.Second

// Watcher polls a HID manager and reports devices matching a filter as they
// attach and detach.
type Watcher struct {
	Manager  hid.Manager
	Match    func(hid.Info) bool // nil matches everything
	Interval time.Duration
	Logger   *slog.Logger
}

// Run starts watching and returns the event channel. The channel closes
// when ctx is done. Devices already present at start are recorded silently;
// only changes after the first scan produce events.
func (w *Watcher) Run(ctx context.Context) <-chan Event {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := w.Logger
	if log == nil {
		log = slog.Default()
	}

	out := make(chan Event)
	go func() {
		defer close(out)

		known, err := w.scan(log)
		primed := err == nil

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			current, err := w.scan(log)
			if err != nil {
				// A failed enumeration says nothing about the devices;
				// keep the previous view rather than report mass detach.
				continue
			}
			if !primed {
				// The priming scan failed, so this is the first real view.
				// Record it silently: these devices were present all along,
				// not newly attached.
				known = current
				primed = true
				continue
			}
			for path, info := range current {
				if _, ok := known[path]; !ok {
					if !send(ctx, out, Event{Kind: Attached, Info: info}) {
						return
					}
				}
			}
			for path, info := range known {
				if _, ok := current[path]; !ok {
					if !send(ctx, out, Event{Kind: Detached, Info: info}) {
						return
					}
				}
			}
			known = current
		}
	}()
	return out
}

// scan enumerates and filters, keyed by device path.
func (w *Watcher) scan(log *slog.Logger) (map[string]hid.Info, error) {
	infos, err := w.Manager.List()
	if err != nil {
		log.Warn("hid enumeration failed", slog.Any("error", err))
		return nil, err
	}
	seen := make(map[string]hid.Info)
	for _, info := range infos {
		if w.Match != nil && !w.Match(info) {
			continue
		}
		seen[info.Path] = info
	}
	return seen, nil
}

func send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
