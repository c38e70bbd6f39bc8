package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManufacturerData(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		expected map[string]string
	}{
		{
			name:     "apple company id with payload",
			raw:      []byte{0x4c, 0x00, 0x02, 0x15, 0xaa},
			expected: map[string]string{"0x004C": "0215aa"},
		},
		{
			name:     "company id only",
			raw:      []byte{0x06, 0x00},
			expected: map[string]string{"0x0006": ""},
		},
		{
			name:     "too short yields empty map",
			raw:      []byte{0x4c},
			expected: map[string]string{},
		},
		{
			name:     "nil yields empty map",
			raw:      nil,
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseManufacturerData(tt.raw)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDiscoverySummary_Ordering(t *testing.T) {
	now := time.Now()
	s := NewDiscoverySummary(5*time.Second, now)

	s.Add(&AdvertisementRecord{Address: "AA:BB:CC:DD:EE:02", RSSI: -55})
	s.Add(&AdvertisementRecord{Address: "AA:BB:CC:DD:EE:01", RSSI: -70})

	// Updating an existing address keeps its position
	s.Add(&AdvertisementRecord{Address: "AA:BB:CC:DD:EE:02", RSSI: -40})

	require.Equal(t, 2, s.Len())

	records := s.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "AA:BB:CC:DD:EE:02", records[0].Address)
	assert.Equal(t, -40, records[0].RSSI)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", records[1].Address)
}

func TestDiscoverySummary_Get(t *testing.T) {
	s := NewDiscoverySummary(time.Second, time.Now())
	s.Add(&AdvertisementRecord{Address: "AA:BB:CC:DD:EE:01", Name: "Skelly"})

	rec, ok := s.Get("AA:BB:CC:DD:EE:01")
	require.True(t, ok)
	assert.Equal(t, "Skelly", rec.Name)

	_, ok = s.Get("11:22:33:44:55:66")
	assert.False(t, ok)
}

func TestLibraryVersion(t *testing.T) {
	// Build info is unavailable under `go test` for this assertion to
	// pin an exact value; the contract is only that it never panics
	// and never returns empty.
	assert.NotEmpty(t, LibraryVersion())
}
