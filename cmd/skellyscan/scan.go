package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/RoninATX/MKUltraSkelly/internal/collector"
	"github.com/RoninATX/MKUltraSkelly/internal/profile"
	"github.com/RoninATX/MKUltraSkelly/internal/selector"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Collect BLE advertisements and write a discovery summary",
	Long: `Passively collects BLE advertisements for the scan window and writes
one record per distinct device to the discovery summary file. Repeated
advertisements from the same device overwrite its record, so the summary
holds the latest observation of each.

With --device-name or --mac-address, the matching device is connected
after the window closes and its full GATT attribute tree is written to
the profile output. Ctrl+C ends the window early and keeps the devices
collected so far.`,
	RunE: runScan,
}

var (
	scanDuration   time.Duration
	scanOutput     string
	scanAdapter    string
	scanDeviceName string
	scanMACAddress string
	scanProfileOut string
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "scan-duration", "d", 30*time.Second, "Scan window (0 to scan until interrupted)")
	scanCmd.Flags().StringVarP(&scanOutput, "scan-output", "o", "", "Discovery summary destination (default config/discovered_devices.json)")
	scanCmd.Flags().StringVarP(&scanAdapter, "adapter", "a", "", "Bluetooth adapter (hci0, hci1, ...)")
	scanCmd.Flags().StringVarP(&scanDeviceName, "device-name", "n", "", "Profile the device advertising this name after the scan")
	scanCmd.Flags().StringVarP(&scanMACAddress, "mac-address", "m", "", "Profile the device with this address after the scan")
	scanCmd.Flags().StringVarP(&scanProfileOut, "profile-output", "p", "", "Device profile destination (default config/device_profile.json)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("scan-duration") {
		cfg.ScanDuration = scanDuration
	}
	if scanOutput != "" {
		cfg.ScanOutput = scanOutput
	}
	if scanAdapter != "" {
		cfg.Adapter = scanAdapter
	}
	if scanProfileOut != "" {
		cfg.ProfileOutput = scanProfileOut
	}

	logger := cfg.NewLogger()

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd)
	defer cancel()

	var progress *ProgressPrinter
	if term.IsTerminal(int(os.Stdout.Fd())) {
		progress = NewCountdownProgressPrinter("Scanning for BLE devices", cfg.ScanDuration)
		progress.Start()
	}

	summary, err := collector.New(logger).Collect(ctx, &collector.Options{
		Duration: cfg.ScanDuration,
		Adapter:  cfg.Adapter,
	})
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	if err := profile.WriteDiscovery(summary, cfg.ScanOutput); err != nil {
		return err
	}
	printDiscoverySummary(cmd.OutOrStdout(), summary, cfg.ScanOutput)

	if scanDeviceName == "" && scanMACAddress == "" {
		return nil
	}
	// Interrupted runs keep the discovery results but skip profiling.
	if ctx.Err() != nil {
		return nil
	}

	address, err := selector.Resolve(summary, scanDeviceName, scanMACAddress)
	if err != nil {
		return err
	}
	record, _ := summary.Get(address)

	return profileDevice(ctx, cmd, logger, address, record, cfg)
}

// signalContext derives a context that is cancelled on Ctrl+C or
// SIGTERM, after announcing that partial results will be kept.
func signalContext(cmd *cobra.Command) (ctx context.Context, cancel context.CancelFunc) {
	ctx, cancel = context.WithCancel(cmd.Context())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.OutOrStdout(), "\nInterrupted, finalizing partial results...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func printDiscoverySummary(out io.Writer, summary *profile.DiscoverySummary, path string) {
	records := summary.Records()
	if len(records) == 0 {
		fmt.Fprintf(out, "No devices discovered; wrote empty summary to %s\n", path)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	color.New(color.Bold).Fprintln(w, "NAME\tADDRESS\tRSSI")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for _, rec := range records {
		name := rec.Name
		if name == "" {
			name = "(unknown)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d dBm\n", name, rec.Address, rec.RSSI)
	}
	w.Flush()

	fmt.Fprintf(out, "%d device(s) written to %s\n", len(records), path)
}
