package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/RoninATX/MKUltraSkelly/pkg/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skellyscan",
	Short: "BLE device discovery and profiling tool",
	Long: `Discovers Bluetooth Low Energy devices and captures their GATT layout:

- Passively collect advertisements for a scan window and write a
  discovery summary, one record per device
- Connect to a chosen device and walk its full attribute tree
  (services, characteristics, descriptors) into a profile file

The profile is the reference for which handles to read, write, or
subscribe to when integrating a device.`,
	Version: formatVersion(version),
}

var (
	configPath string
	verbosity  int
)

// loadConfig builds the effective configuration: defaults, then the
// optional YAML overlay, then the counted -v flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbosity > cfg.Verbosity {
		cfg.Verbosity = verbosity
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		// Print user-friendly error message
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(profileCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")

	// -v is taken by --verbose; register --version ourselves so cobra
	// does not claim the shorthand for it
	rootCmd.Flags().Bool("version", false, "Show version information")
}
