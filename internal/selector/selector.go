// Package selector resolves exactly one target device address from a
// discovery summary. It performs no I/O, which keeps target selection
// testable without a radio.
package selector

import (
	"strings"

	"github.com/RoninATX/MKUltraSkelly/internal/bleerr"
	"github.com/RoninATX/MKUltraSkelly/internal/profile"
)

// Resolve picks the address to profile. An explicit address is returned
// verbatim and always wins over a name; this is a documented override,
// not a tie-break. Otherwise the summary is searched for an exact
// advertised-name match; among multiple matches the most recently
// updated record wins, ties broken by ascending address.
func Resolve(summary *profile.DiscoverySummary, name, address string) (string, error) {
	if address != "" {
		return address, nil
	}
	if name == "" {
		return "", bleerr.New(bleerr.DeviceNotFound, "no device name or address given")
	}

	var match *profile.AdvertisementRecord
	if summary != nil {
		for _, rec := range summary.Records() {
			if !strings.EqualFold(rec.Name, name) {
				continue
			}
			if match == nil || better(rec, match) {
				match = rec
			}
		}
	}
	if match == nil {
		return "", bleerr.Newf(bleerr.DeviceNotFound, "no device named %q in discovery results", name)
	}
	return match.Address, nil
}

// better reports whether a should be preferred over b: more recently
// updated first, then lower address for determinism.
func better(a, b *profile.AdvertisementRecord) bool {
	if !a.LastSeen.Equal(b.LastSeen) {
		return a.LastSeen.After(b.LastSeen)
	}
	return a.Address < b.Address
}
