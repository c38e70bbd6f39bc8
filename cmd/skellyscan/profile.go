package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/RoninATX/MKUltraSkelly/internal/profile"
	"github.com/RoninATX/MKUltraSkelly/internal/walker"
	"github.com/RoninATX/MKUltraSkelly/pkg/config"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile <device-address>",
	Short: "Connect to a BLE device and capture its GATT attribute tree",
	Long: `Connects to a BLE device by address, enumerates its services,
characteristics, and descriptors, and writes the tree to the profile
output. Handles are listed in ascending order; known SIG UUIDs carry a
human-readable description.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

var (
	profileConnectTimeout time.Duration
	profileAdapter        string
	profileOutput         string
)

func init() {
	profileCmd.Flags().DurationVar(&profileConnectTimeout, "connect-timeout", 30*time.Second, "Connection timeout")
	profileCmd.Flags().StringVarP(&profileAdapter, "adapter", "a", "", "Bluetooth adapter (hci0, hci1, ...)")
	profileCmd.Flags().StringVarP(&profileOutput, "profile-output", "o", "", "Device profile destination (default config/device_profile.json)")
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("connect-timeout") {
		cfg.ConnectTimeout = profileConnectTimeout
	}
	if profileAdapter != "" {
		cfg.Adapter = profileAdapter
	}
	if profileOutput != "" {
		cfg.ProfileOutput = profileOutput
	}

	logger := cfg.NewLogger()

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd)
	defer cancel()

	return profileDevice(ctx, cmd, logger, args[0], nil, cfg)
}

// profileDevice walks the attribute tree of one device and writes the
// profile file. known carries the advertisement record when the run is
// chained from a scan.
func profileDevice(ctx context.Context, cmd *cobra.Command, logger *logrus.Logger, address string, known *profile.AdvertisementRecord, cfg *config.Config) error {
	var progress *ProgressPrinter
	if term.IsTerminal(int(os.Stdout.Fd())) {
		progress = NewProgressPrinter(fmt.Sprintf("Profiling device %s", address))
		progress.Start()
	}

	dp, err := walker.New(logger).Walk(ctx, address, known, &walker.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		Adapter:        cfg.Adapter,
	})
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	if err := profile.WriteProfile(dp, cfg.ProfileOutput); err != nil {
		return err
	}
	printProfileSummary(cmd.OutOrStdout(), dp, cfg.ProfileOutput)
	return nil
}

func printProfileSummary(out io.Writer, dp *profile.DeviceProfile, path string) {
	name := dp.Device.Name
	if name == "" {
		name = "(unknown)"
	}
	characteristics := 0
	for _, svc := range dp.Services {
		characteristics += len(svc.Characteristics)
	}

	color.New(color.Bold).Fprintf(out, "%s %s\n", name, dp.Device.Address)
	fmt.Fprintf(out, "%d service(s), %d characteristic(s) written to %s\n",
		len(dp.Services), characteristics, path)
}
