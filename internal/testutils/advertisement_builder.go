// Package testutils provides fakes and assertion helpers for testing
// the discovery/profiling pipeline without BLE hardware.
package testutils

import (
	"github.com/go-ble/ble"
)

// fakeAdvertisement is a plain-struct ble.Advertisement.
type fakeAdvertisement struct {
	name        string
	addr        string
	rssi        int
	services    []ble.UUID
	manufData   []byte
	serviceData []ble.ServiceData
	txPower     int
	connectable bool
}

func (a *fakeAdvertisement) LocalName() string              { return a.name }
func (a *fakeAdvertisement) ManufacturerData() []byte       { return a.manufData }
func (a *fakeAdvertisement) ServiceData() []ble.ServiceData { return a.serviceData }
func (a *fakeAdvertisement) Services() []ble.UUID           { return a.services }
func (a *fakeAdvertisement) OverflowService() []ble.UUID    { return nil }
func (a *fakeAdvertisement) TxPowerLevel() int              { return a.txPower }
func (a *fakeAdvertisement) Connectable() bool              { return a.connectable }
func (a *fakeAdvertisement) SolicitedService() []ble.UUID   { return nil }
func (a *fakeAdvertisement) RSSI() int                      { return a.rssi }
func (a *fakeAdvertisement) Addr() ble.Addr                 { return ble.NewAddr(a.addr) }

// AdvertisementBuilder builds fake BLE advertisements for testing with
// a fluent API.
type AdvertisementBuilder struct {
	adv fakeAdvertisement
}

// NewAdvertisementBuilder creates a builder with a connectable
// advertisement and TX power marked unavailable (127).
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{
		adv: fakeAdvertisement{
			connectable: true,
			txPower:     127,
		},
	}
}

// WithName sets the local name for the advertisement.
func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.adv.name = name
	return b
}

// WithAddress sets the device address for the advertisement.
func (b *AdvertisementBuilder) WithAddress(addr string) *AdvertisementBuilder {
	b.adv.addr = addr
	return b
}

// WithRSSI sets the signal strength for the advertisement.
func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.adv.rssi = rssi
	return b
}

// WithServices adds advertised service UUIDs. UUIDs can be in short
// form (e.g. "180D") or full form.
func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	for _, u := range uuids {
		parsed, err := ble.Parse(u)
		if err != nil {
			panic("testutils: invalid service UUID " + u + ": " + err.Error())
		}
		b.adv.services = append(b.adv.services, parsed)
	}
	return b
}

// WithManufacturerData sets the raw manufacturer-specific data.
func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.adv.manufData = data
	return b
}

// WithServiceData adds service-specific data for the given service UUID.
func (b *AdvertisementBuilder) WithServiceData(uuid string, data []byte) *AdvertisementBuilder {
	parsed, err := ble.Parse(uuid)
	if err != nil {
		panic("testutils: invalid service data UUID " + uuid + ": " + err.Error())
	}
	b.adv.serviceData = append(b.adv.serviceData, ble.ServiceData{UUID: parsed, Data: data})
	return b
}

// WithTxPower sets the transmission power level.
func (b *AdvertisementBuilder) WithTxPower(power int) *AdvertisementBuilder {
	b.adv.txPower = power
	return b
}

// WithConnectable sets whether the device accepts connections.
func (b *AdvertisementBuilder) WithConnectable(c bool) *AdvertisementBuilder {
	b.adv.connectable = c
	return b
}

// Build returns the advertisement.
func (b *AdvertisementBuilder) Build() ble.Advertisement {
	adv := b.adv
	return &adv
}
