package main

import (
	"fmt"

	"github.com/RoninATX/MKUltraSkelly/internal/bleerr"
)

// FormatUserError renders a failure as a one-line diagnosis plus a
// suggested next step, keyed on the error kind.
func FormatUserError(err error) string {
	kind, ok := bleerr.KindOf(err)
	if !ok {
		return err.Error()
	}
	switch kind {
	case bleerr.PermissionDenied:
		return fmt.Sprintf("%s\nGrant the binary Bluetooth capabilities (setcap 'cap_net_raw,cap_net_admin+eip' <binary>) or run as root.", err)
	case bleerr.AdapterUnavailable:
		return fmt.Sprintf("%s\nCheck that a Bluetooth adapter is present and powered on (bluetoothctl power on).", err)
	case bleerr.ScanFailure:
		return fmt.Sprintf("%s\nAnother process may hold the adapter; stop it or try a different --adapter.", err)
	case bleerr.DeviceNotFound:
		return fmt.Sprintf("%s\nRe-run the scan with a longer --scan-duration or check that the device is advertising.", err)
	case bleerr.ConnectionTimeout, bleerr.DeviceUnreachable:
		return fmt.Sprintf("%s\nMove closer to the device and retry; many peripherals accept only one connection at a time.", err)
	case bleerr.EnumerationError:
		return fmt.Sprintf("%s\nThe device dropped or garbled the attribute read; retry the profile run.", err)
	default:
		return err.Error()
	}
}
