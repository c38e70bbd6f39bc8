// Package profile holds the data model produced by the discovery and
// profiling pipeline and the serializer that renders it to disk.
//
// The model is transport-free: nothing in here touches the radio, which
// keeps selection and serialization testable without BLE hardware.
package profile

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// AdvertisementRecord is the latest observation of one advertising
// device. Identity is the address; every later advertisement for the
// same address overwrites the remaining fields.
type AdvertisementRecord struct {
	Address          string            `json:"address"`
	Name             string            `json:"name"`
	RSSI             int               `json:"rssi"`
	ManufacturerData map[string]string `json:"manufacturer_data"`
	Metadata         map[string]any    `json:"metadata"`

	// Observation timestamps, used for summary ordering and selector
	// tie-breaks. Not part of the file format.
	FirstSeen time.Time `json:"-"`
	LastSeen  time.Time `json:"-"`
}

// DiscoverySummary is the result of one collection window: one record
// per distinct address, in first-seen order. Immutable once the window
// closes.
type DiscoverySummary struct {
	Duration  time.Duration
	StartedAt time.Time

	records *orderedmap.OrderedMap[string, *AdvertisementRecord]
}

// NewDiscoverySummary creates an empty summary for a collection window.
func NewDiscoverySummary(duration time.Duration, startedAt time.Time) *DiscoverySummary {
	return &DiscoverySummary{
		Duration:  duration,
		StartedAt: startedAt,
		records:   orderedmap.New[string, *AdvertisementRecord](),
	}
}

// Add appends a record, keeping insertion order. Re-adding an address
// replaces the stored record without changing its position.
func (s *DiscoverySummary) Add(rec *AdvertisementRecord) {
	s.records.Set(rec.Address, rec)
}

// Get returns the record for an address.
func (s *DiscoverySummary) Get(address string) (*AdvertisementRecord, bool) {
	return s.records.Get(address)
}

// Len returns the number of distinct addresses observed.
func (s *DiscoverySummary) Len() int {
	return s.records.Len()
}

// Records returns the records in first-seen order.
func (s *DiscoverySummary) Records() []*AdvertisementRecord {
	result := make([]*AdvertisementRecord, 0, s.records.Len())
	for pair := s.records.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// DescriptorInfo is one GATT descriptor in the attribute tree.
type DescriptorInfo struct {
	UUID        string  `json:"uuid"`
	Handle      uint16  `json:"handle"`
	Description *string `json:"description"`
}

// CharacteristicInfo is one GATT characteristic with its descriptors
// in ascending handle order.
type CharacteristicInfo struct {
	UUID        string           `json:"uuid"`
	Handle      uint16           `json:"handle"`
	Description *string          `json:"description"`
	Properties  []string         `json:"properties"`
	Descriptors []DescriptorInfo `json:"descriptors"`
}

// ServiceInfo is one GATT service with its characteristics in
// ascending handle order.
type ServiceInfo struct {
	UUID            string               `json:"uuid"`
	Handle          uint16               `json:"handle"`
	Description     *string              `json:"description"`
	Characteristics []CharacteristicInfo `json:"characteristics"`
}

// DeviceInfo is the identity block of a profiled device.
type DeviceInfo struct {
	Name             string            `json:"name"`
	Address          string            `json:"address"`
	RSSI             int               `json:"rssi"`
	ManufacturerData map[string]string `json:"manufacturer_data"`
	Metadata         map[string]any    `json:"metadata"`
	BLEVersion       string            `json:"ble_version"`
}

// DeviceProfile is the full attribute-tree snapshot of one device,
// the canonical reference for which handles to read, write, or
// subscribe to.
type DeviceProfile struct {
	Device   DeviceInfo    `json:"device"`
	Services []ServiceInfo `json:"services"`
}

// ParseManufacturerData splits a raw manufacturer-specific AD structure
// into a company-id keyed map. The first two bytes are the little-endian
// company identifier, rendered as a 0x-prefixed uppercase hex key; the
// remainder is the payload as a hex string. Malformed data (shorter
// than the company id) yields an empty map.
func ParseManufacturerData(raw []byte) map[string]string {
	result := make(map[string]string)
	if len(raw) < 2 {
		return result
	}
	companyID := binary.LittleEndian.Uint16(raw[:2])
	result[fmt.Sprintf("0x%04X", companyID)] = hex.EncodeToString(raw[2:])
	return result
}
