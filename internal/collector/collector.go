// Package collector implements the advertisement collection phase:
// listen for BLE advertisements for a bounded window and keep the
// latest observation per device address.
package collector

import (
	"context"
	"encoding/hex"
	"errors"
	"sort"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/RoninATX/MKUltraSkelly/internal/bledb"
	"github.com/RoninATX/MKUltraSkelly/internal/bleerr"
	"github.com/RoninATX/MKUltraSkelly/internal/profile"
	"github.com/RoninATX/MKUltraSkelly/internal/radio"
)

// txPowerUnavailable is the advertisement value meaning no TX power
// level was included.
const txPowerUnavailable = 127

// Options configures a collection window.
type Options struct {
	// Duration is the length of the scan window. Zero scans until the
	// context is cancelled.
	Duration time.Duration
	// Adapter names the Bluetooth adapter ("hci0"); empty uses the
	// default adapter.
	Adapter string
}

// DefaultOptions returns the default collection window.
func DefaultOptions() *Options {
	return &Options{
		Duration: 30 * time.Second,
	}
}

// Collector accumulates advertisement observations per device address.
type Collector struct {
	records *hashmap.Map[string, *profile.AdvertisementRecord]
	logger  *logrus.Logger
}

// New creates a Collector.
func New(logger *logrus.Logger) *Collector {
	if logger == nil {
		logger = logrus.New()
	}
	return &Collector{logger: logger}
}

// Collect opens a scan on the configured adapter and accumulates the
// latest observation per address for the full window. The adapter is
// released on every path, including cancellation and scan failure;
// cancellation keeps the records accumulated so far.
func (c *Collector) Collect(ctx context.Context, opts *Options) (*profile.DiscoverySummary, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	c.records = hashmap.New[string, *profile.AdvertisementRecord]()

	transport, err := radio.Open(opts.Adapter)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"duration": opts.Duration,
		"adapter":  opts.Adapter,
	}).Info("Starting BLE scan")

	started := time.Now()
	scanCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	scanErr := transport.Scan(scanCtx, true, c.handleAdvertisement)
	if stopErr := transport.Stop(); stopErr != nil {
		c.logger.WithError(stopErr).Warn("Failed to release adapter after scan")
	}

	if scanErr != nil && !errors.Is(scanErr, context.Canceled) && !errors.Is(scanErr, context.DeadlineExceeded) {
		return nil, bleerr.ClassifyScan(scanErr)
	}

	summary := profile.NewDiscoverySummary(opts.Duration, started)
	for _, rec := range c.sortedRecords() {
		summary.Add(rec)
	}

	c.logger.WithField("device_count", summary.Len()).Info("BLE scan completed")
	return summary, nil
}

// handleAdvertisement inserts or updates the record for the emitting
// address. Field updates happen only from the scan callback context;
// the map itself tolerates parallel callbacks.
func (c *Collector) handleAdvertisement(adv ble.Advertisement) {
	address := adv.Addr().String()
	now := time.Now()

	rec, existing := c.records.Get(address)
	if !existing {
		rec, existing = c.records.GetOrInsert(address, &profile.AdvertisementRecord{
			Address:   address,
			FirstSeen: now,
		})
	}

	rec.Name = adv.LocalName()
	rec.RSSI = adv.RSSI()
	rec.ManufacturerData = profile.ParseManufacturerData(adv.ManufacturerData())
	rec.Metadata = buildMetadata(adv)
	rec.LastSeen = now

	if !existing {
		c.logger.WithFields(logrus.Fields{
			"device":  rec.Name,
			"address": rec.Address,
			"rssi":    rec.RSSI,
		}).Info("Discovered new device")
	}
}

// sortedRecords snapshots the accumulation map in first-seen order,
// ties broken by address for determinism.
func (c *Collector) sortedRecords() []*profile.AdvertisementRecord {
	records := make([]*profile.AdvertisementRecord, 0, c.records.Len())
	c.records.Range(func(_ string, rec *profile.AdvertisementRecord) bool {
		records = append(records, rec)
		return true
	})
	sort.Slice(records, func(i, j int) bool {
		if !records[i].FirstSeen.Equal(records[j].FirstSeen) {
			return records[i].FirstSeen.Before(records[j].FirstSeen)
		}
		return records[i].Address < records[j].Address
	})
	return records
}

// buildMetadata extracts the platform metadata block from an
// advertisement.
func buildMetadata(adv ble.Advertisement) map[string]any {
	md := map[string]any{
		"connectable": adv.Connectable(),
	}
	if tx := adv.TxPowerLevel(); tx != txPowerUnavailable {
		md["tx_power"] = tx
	}
	if services := adv.Services(); len(services) > 0 {
		uuids := make([]string, 0, len(services))
		for _, u := range services {
			uuids = append(uuids, bledb.CanonicalUUID(u.String()))
		}
		sort.Strings(uuids)
		md["service_uuids"] = uuids
	}
	if serviceData := adv.ServiceData(); len(serviceData) > 0 {
		data := make(map[string]string, len(serviceData))
		for _, sd := range serviceData {
			data[bledb.CanonicalUUID(sd.UUID.String())] = hex.EncodeToString(sd.Data)
		}
		md["service_data"] = data
	}
	return md
}
