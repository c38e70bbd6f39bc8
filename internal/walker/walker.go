// Package walker implements the profiling phase: connect to one
// address and enumerate its GATT attribute tree into a DeviceProfile.
package walker

import (
	"context"
	"sort"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/RoninATX/MKUltraSkelly/internal/bledb"
	"github.com/RoninATX/MKUltraSkelly/internal/bleerr"
	"github.com/RoninATX/MKUltraSkelly/internal/profile"
	"github.com/RoninATX/MKUltraSkelly/internal/radio"
)

// Options configures a profiling run.
type Options struct {
	// ConnectTimeout bounds connection establishment. Expiry is a hard
	// failure; the operator re-runs the tool.
	ConnectTimeout time.Duration
	// Adapter names the Bluetooth adapter; empty uses the default.
	Adapter string
}

// DefaultOptions returns the default profiling options.
func DefaultOptions() *Options {
	return &Options{
		ConnectTimeout: 30 * time.Second,
	}
}

// Walker connects to devices and walks their attribute tables.
type Walker struct {
	logger *logrus.Logger
}

// New creates a Walker.
func New(logger *logrus.Logger) *Walker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Walker{logger: logger}
}

// Walk connects to address, waits up to the connect timeout, and
// enumerates services, characteristics, and descriptors in ascending
// handle order. known, when non-nil, supplies the advertisement-derived
// identity fields for the profile's device block. The connection and
// the adapter are released on every exit path; a tree that cannot be
// fully read is discarded, never returned partially.
func (w *Walker) Walk(ctx context.Context, address string, known *profile.AdvertisementRecord, opts *Options) (*profile.DeviceProfile, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	transport, err := radio.Open(opts.Adapter)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := transport.Stop(); err != nil {
			w.logger.WithError(err).Warn("Failed to release adapter after profiling")
		}
	}()

	w.logger.WithFields(logrus.Fields{
		"address": address,
		"timeout": opts.ConnectTimeout,
	}).Info("Connecting to device")

	dialCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	client, err := transport.Dial(dialCtx, ble.NewAddr(address))
	if err != nil {
		return nil, bleerr.ClassifyDial(address, err)
	}
	defer func() {
		if err := client.CancelConnection(); err != nil {
			w.logger.WithError(err).Error("Failed to disconnect device")
		}
	}()

	w.logger.Info("Connected, enumerating attribute table")

	tree, err := client.DiscoverProfile(true)
	if err != nil {
		return nil, bleerr.WrapAddr(bleerr.EnumerationError, address, "discover attribute table", err)
	}
	if tree == nil {
		return nil, bleerr.WrapAddr(bleerr.EnumerationError, address, "empty attribute table", nil)
	}

	services, err := buildServices(address, tree)
	if err != nil {
		return nil, err
	}

	dp := &profile.DeviceProfile{
		Device:   deviceInfo(address, client.Name(), known),
		Services: services,
	}

	w.logger.WithField("service_count", len(dp.Services)).Info("Attribute table enumerated")
	return dp, nil
}

// deviceInfo assembles the identity block, preferring advertisement
// data over what the connection reports.
func deviceInfo(address, connectedName string, known *profile.AdvertisementRecord) profile.DeviceInfo {
	info := profile.DeviceInfo{
		Name:             connectedName,
		Address:          address,
		ManufacturerData: map[string]string{},
		Metadata:         map[string]any{},
		BLEVersion:       profile.LibraryVersion(),
	}
	if known != nil {
		if known.Name != "" {
			info.Name = known.Name
		}
		info.RSSI = known.RSSI
		if known.ManufacturerData != nil {
			info.ManufacturerData = known.ManufacturerData
		}
		if known.Metadata != nil {
			info.Metadata = known.Metadata
		}
	}
	return info
}

// buildServices converts the discovered tree, sorting every level by
// ascending handle. The attribute server assigns unique handles; a
// duplicate means the table was read inconsistently, so the whole tree
// is rejected.
func buildServices(address string, tree *ble.Profile) ([]profile.ServiceInfo, error) {
	seen := make(map[uint16]struct{})
	claim := func(handle uint16) error {
		if _, dup := seen[handle]; dup {
			return bleerr.Newf(bleerr.EnumerationError, "duplicate attribute handle %d on %s", handle, address)
		}
		seen[handle] = struct{}{}
		return nil
	}

	services := make([]profile.ServiceInfo, 0, len(tree.Services))
	for _, svc := range sortedByHandle(tree.Services, func(s *ble.Service) uint16 { return s.Handle }) {
		if err := claim(svc.Handle); err != nil {
			return nil, err
		}
		svcInfo := profile.ServiceInfo{
			UUID:            bledb.CanonicalUUID(svc.UUID.String()),
			Handle:          svc.Handle,
			Description:     describe(bledb.LookupService(svc.UUID.String())),
			Characteristics: make([]profile.CharacteristicInfo, 0, len(svc.Characteristics)),
		}

		for _, char := range sortedByHandle(svc.Characteristics, func(c *ble.Characteristic) uint16 { return c.Handle }) {
			if err := claim(char.Handle); err != nil {
				return nil, err
			}
			charInfo := profile.CharacteristicInfo{
				UUID:        bledb.CanonicalUUID(char.UUID.String()),
				Handle:      char.Handle,
				Description: describe(bledb.LookupCharacteristic(char.UUID.String())),
				Properties:  propertyNames(char.Property),
				Descriptors: make([]profile.DescriptorInfo, 0, len(char.Descriptors)),
			}

			for _, desc := range sortedByHandle(char.Descriptors, func(d *ble.Descriptor) uint16 { return d.Handle }) {
				if err := claim(desc.Handle); err != nil {
					return nil, err
				}
				charInfo.Descriptors = append(charInfo.Descriptors, profile.DescriptorInfo{
					UUID:        bledb.CanonicalUUID(desc.UUID.String()),
					Handle:      desc.Handle,
					Description: describe(bledb.LookupDescriptor(desc.UUID.String())),
				})
			}
			svcInfo.Characteristics = append(svcInfo.Characteristics, charInfo)
		}
		services = append(services, svcInfo)
	}
	return services, nil
}

// sortedByHandle returns a copy sorted in ascending handle order. The
// protocol promises ascending order, but the binding's container order
// is not trusted.
func sortedByHandle[T any](items []*T, handle func(*T) uint16) []*T {
	result := make([]*T, len(items))
	copy(result, items)
	sort.SliceStable(result, func(i, j int) bool {
		return handle(result[i]) < handle(result[j])
	})
	return result
}

// describe wraps a known-UUID lookup into the nullable description
// field; unknown UUIDs yield nil rather than an empty string.
func describe(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}

// propertyNames renders the property bit flags in ATT bit order, which
// keeps serialization deterministic.
func propertyNames(p ble.Property) []string {
	names := make([]string, 0, 8)
	for _, entry := range []struct {
		flag ble.Property
		name string
	}{
		{ble.CharBroadcast, "broadcast"},
		{ble.CharRead, "read"},
		{ble.CharWriteNR, "write-without-response"},
		{ble.CharWrite, "write"},
		{ble.CharNotify, "notify"},
		{ble.CharIndicate, "indicate"},
		{ble.CharSignedWrite, "authenticated-signed-write"},
		{ble.CharExtended, "extended-properties"},
	} {
		if p&entry.flag != 0 {
			names = append(names, entry.name)
		}
	}
	return names
}
