// Command dartctl configures a HyperX Pulsefire Dart gaming mouse: battery
// status, lighting, DPI profiles, button remapping, macros, and a watch
// mode with desktop battery alerts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dartctl/dartctl/internal/config"
	"github.com/dartctl/dartctl/internal/hid"
	"github.com/dartctl/dartctl/internal/pulsefire"
	"github.com/dartctl/dartctl/internal/rawusb"
)

var (
	flagVerbose bool
	flagTimeout time.Duration
	flagRawUSB  bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:           "dartctl",
	Short:         "Configure a HyperX Pulsefire Dart mouse",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", pulsefire.DefaultTimeout, "per-request response timeout")
	rootCmd.PersistentFlags().BoolVar(&flagRawUSB, "raw-usb", false, "bypass the HID layer and use raw USB endpoints")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: user config dir)")

	rootCmd.AddCommand(statusCmd, listCmd, watchCmd)
	rootCmd.AddCommand(ledCmd, dpiCmd, buttonCmd, rateCmd, alertCmd, saveCmd)
	rootCmd.AddCommand(macroCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dartctl:", err)
		if errors.Is(err, pulsefire.ErrDeviceNotFound) {
			fmt.Fprintln(os.Stderr, "is the mouse plugged in or its dongle attached?")
		}
		if errors.Is(err, pulsefire.ErrPermissionDenied) {
			fmt.Fprintln(os.Stderr, "on Linux, add a udev rule granting access to 0951:16e1 and 0951:16e2")
		}
		os.Exit(1)
	}
}

// openSession connects to the mouse using the selected transport path.
func openSession(ctx context.Context) (*pulsefire.Session, error) {
	opts := pulsefire.Options{Timeout: flagTimeout}
	if flagRawUSB {
		dev, mode, err := openRaw()
		if err != nil {
			return nil, err
		}
		return pulsefire.NewSession(ctx, dev, mode, opts)
	}
	mgr, err := hid.NewManager()
	if err != nil {
		return nil, err
	}
	return pulsefire.Connect(ctx, mgr, opts)
}

func openRaw() (hid.Device, pulsefire.ConnectionMode, error) {
	if dev, err := rawusb.Open(pulsefire.VendorID, pulsefire.ProductWireless); err == nil {
		return dev, pulsefire.ModeWireless, nil
	}
	dev, err := rawusb.Open(pulsefire.VendorID, pulsefire.ProductWired)
	if err != nil {
		return nil, "", pulsefire.ErrDeviceNotFound
	}
	return dev, pulsefire.ModeWired, nil
}

func loadConfig() (config.Config, error) {
	path := flagConfig
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Default(), err
		}
	}
	return config.Load(path)
}

func storePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "macros.db"), nil
}

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show battery, lighting and DPI state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		snap, err := s.Snapshot(cmd.Context())
		if err != nil {
			return err
		}

		if statusJSON {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		printSnapshot(snap)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "machine-readable output")
}

func printSnapshot(snap *pulsefire.DeviceSnapshot) {
	if snap.Hardware != nil {
		fmt.Printf("%s (firmware %s, %s)\n", snap.Hardware.DeviceName, snap.Hardware.FirmwareVersion, snap.Mode)
	}
	if snap.Battery != nil {
		state := "discharging"
		if snap.Battery.Charging {
			state = "charging"
		}
		fmt.Printf("battery: %d%% (%s, %d mV)\n", snap.Battery.Percent, state, snap.Battery.VoltageMV)
	} else {
		fmt.Println("battery: unavailable")
	}
	if snap.Led != nil {
		fmt.Printf("led: brightness %d%%, color #%02X%02X%02X\n",
			snap.Led.Brightness, snap.Led.Color.R, snap.Led.Color.G, snap.Led.Color.B)
	}
	if snap.Dpi != nil {
		for _, p := range snap.Dpi.Profiles {
			marker := " "
			if p.Active {
				marker = "*"
			}
			enabled := "off"
			if p.Enabled {
				enabled = "on"
			}
			fmt.Printf("dpi %s%d: %5d (%s, #%02X%02X%02X)\n",
				marker, p.Index, p.DPI, enabled, p.Color.R, p.Color.G, p.Color.B)
		}
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List matching devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := hid.NewManager()
		if err != nil {
			return err
		}
		infos, err := mgr.List()
		if err != nil {
			return err
		}
		found := 0
		for _, info := range infos {
			if !pulsefire.Match(info) {
				continue
			}
			found++
			fmt.Printf("%04x:%04x  %-24s  %s\n", info.VendorID, info.ProductID, info.Product, info.Path)
		}
		if found == 0 {
			return pulsefire.ErrDeviceNotFound
		}
		return nil
	},
}
