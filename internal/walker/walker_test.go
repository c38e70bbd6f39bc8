package walker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoninATX/MKUltraSkelly/internal/bleerr"
	"github.com/RoninATX/MKUltraSkelly/internal/profile"
	"github.com/RoninATX/MKUltraSkelly/internal/testutils"
)

const testAddress = "aa:bb:cc:dd:ee:ff"

func shortOptions() *Options {
	return &Options{ConnectTimeout: 50 * time.Millisecond}
}

func genericAccessProfile() *ble.Profile {
	return &ble.Profile{
		Services: []*ble.Service{
			{
				UUID:   ble.MustParse("1800"),
				Handle: 1,
				Characteristics: []*ble.Characteristic{
					{
						UUID:     ble.MustParse("2a00"),
						Handle:   3,
						Property: ble.CharRead,
						Descriptors: []*ble.Descriptor{
							{UUID: ble.MustParse("2901"), Handle: 4},
						},
					},
				},
			},
		},
	}
}

func TestWalk_GenericAccessTree(t *testing.T) {
	ft := &testutils.FakeTransport{
		DialClient: &testutils.FakeClient{
			DeviceName: "Thermo-X",
			Profile:    genericAccessProfile(),
		},
	}
	testutils.InstallTransport(t, ft)

	w := New(testutils.NewTestLogger(t))
	dp, err := w.Walk(context.Background(), testAddress, nil, shortOptions())
	require.NoError(t, err)

	actual, err := json.Marshal(dp)
	require.NoError(t, err)

	expected := fmt.Sprintf(`{
		"device": {
			"name": "Thermo-X",
			"address": "aa:bb:cc:dd:ee:ff",
			"rssi": 0,
			"manufacturer_data": {},
			"metadata": {},
			"ble_version": %q
		},
		"services": [
			{
				"uuid": "00001800-0000-1000-8000-00805f9b34fb",
				"description": "Generic Access",
				"handle": 1,
				"characteristics": [
					{
						"uuid": "00002a00-0000-1000-8000-00805f9b34fb",
						"description": "Device Name",
						"handle": 3,
						"properties": ["read"],
						"descriptors": [
							{
								"uuid": "00002901-0000-1000-8000-00805f9b34fb",
								"description": "Characteristic User Description",
								"handle": 4
							}
						]
					}
				]
			}
		]
	}`, profile.LibraryVersion())

	testutils.NewJSONAsserter(t).Assert(string(actual), expected)
}

func TestWalk_PrefersAdvertisementIdentity(t *testing.T) {
	ft := &testutils.FakeTransport{
		DialClient: &testutils.FakeClient{DeviceName: "gatt-name", Profile: &ble.Profile{}},
	}
	testutils.InstallTransport(t, ft)

	known := &profile.AdvertisementRecord{
		Address:          testAddress,
		Name:             "Thermo-X",
		RSSI:             -60,
		ManufacturerData: map[string]string{"0x004C": "0215aabb"},
		Metadata:         map[string]any{"connectable": true},
	}

	w := New(testutils.NewTestLogger(t))
	dp, err := w.Walk(context.Background(), testAddress, known, shortOptions())
	require.NoError(t, err)

	assert.Equal(t, "Thermo-X", dp.Device.Name)
	assert.Equal(t, -60, dp.Device.RSSI)
	assert.Equal(t, map[string]string{"0x004C": "0215aabb"}, dp.Device.ManufacturerData)
	assert.Equal(t, map[string]any{"connectable": true}, dp.Device.Metadata)
	assert.Empty(t, dp.Services)
}

func TestWalk_SortsAllLevelsByHandle(t *testing.T) {
	tree := &ble.Profile{
		Services: []*ble.Service{
			{
				UUID:   ble.MustParse("180f"),
				Handle: 10,
				Characteristics: []*ble.Characteristic{
					{UUID: ble.MustParse("2a19"), Handle: 12, Property: ble.CharRead | ble.CharNotify,
						Descriptors: []*ble.Descriptor{
							{UUID: ble.MustParse("2902"), Handle: 14},
							{UUID: ble.MustParse("2901"), Handle: 13},
						}},
					{UUID: ble.MustParse("2a00"), Handle: 11, Property: ble.CharRead},
				},
			},
			{UUID: ble.MustParse("1800"), Handle: 1},
		},
	}
	ft := &testutils.FakeTransport{
		DialClient: &testutils.FakeClient{Profile: tree},
	}
	testutils.InstallTransport(t, ft)

	w := New(testutils.NewTestLogger(t))
	dp, err := w.Walk(context.Background(), testAddress, nil, shortOptions())
	require.NoError(t, err)

	require.Len(t, dp.Services, 2)
	assert.Equal(t, uint16(1), dp.Services[0].Handle)
	assert.Equal(t, uint16(10), dp.Services[1].Handle)

	chars := dp.Services[1].Characteristics
	require.Len(t, chars, 2)
	assert.Equal(t, uint16(11), chars[0].Handle)
	assert.Equal(t, uint16(12), chars[1].Handle)

	descs := chars[1].Descriptors
	require.Len(t, descs, 2)
	assert.Equal(t, uint16(13), descs[0].Handle)
	assert.Equal(t, uint16(14), descs[1].Handle)
}

func TestWalk_PropertyNamesInBitOrder(t *testing.T) {
	tree := &ble.Profile{
		Services: []*ble.Service{
			{
				UUID:   ble.MustParse("180f"),
				Handle: 1,
				Characteristics: []*ble.Characteristic{
					{
						UUID:   ble.MustParse("2a19"),
						Handle: 3,
						Property: ble.CharExtended | ble.CharIndicate | ble.CharNotify |
							ble.CharWrite | ble.CharWriteNR | ble.CharRead,
					},
				},
			},
		},
	}
	ft := &testutils.FakeTransport{
		DialClient: &testutils.FakeClient{Profile: tree},
	}
	testutils.InstallTransport(t, ft)

	w := New(testutils.NewTestLogger(t))
	dp, err := w.Walk(context.Background(), testAddress, nil, shortOptions())
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"read", "write-without-response", "write", "notify", "indicate", "extended-properties"},
		dp.Services[0].Characteristics[0].Properties)
}

func TestWalk_UnknownUUIDHasNullDescription(t *testing.T) {
	tree := &ble.Profile{
		Services: []*ble.Service{
			{UUID: ble.MustParse("6e400001b5a3f393e0a9e50e24dcca9e"), Handle: 1},
		},
	}
	ft := &testutils.FakeTransport{
		DialClient: &testutils.FakeClient{Profile: tree},
	}
	testutils.InstallTransport(t, ft)

	w := New(testutils.NewTestLogger(t))
	dp, err := w.Walk(context.Background(), testAddress, nil, shortOptions())
	require.NoError(t, err)

	require.Len(t, dp.Services, 1)
	assert.Equal(t, "6e400001-b5a3-f393-e0a9-e50e24dcca9e", dp.Services[0].UUID)
	assert.Nil(t, dp.Services[0].Description)
}

func TestWalk_DuplicateHandleRejectsTree(t *testing.T) {
	tree := &ble.Profile{
		Services: []*ble.Service{
			{
				UUID:   ble.MustParse("1800"),
				Handle: 1,
				Characteristics: []*ble.Characteristic{
					{UUID: ble.MustParse("2a00"), Handle: 1, Property: ble.CharRead},
				},
			},
		},
	}
	client := &testutils.FakeClient{Profile: tree}
	ft := &testutils.FakeTransport{DialClient: client}
	testutils.InstallTransport(t, ft)

	w := New(testutils.NewTestLogger(t))
	dp, err := w.Walk(context.Background(), testAddress, nil, shortOptions())
	assert.Nil(t, dp)
	assert.ErrorIs(t, err, bleerr.ErrEnumerationError)
	assert.True(t, client.Cancelled())
	assert.Equal(t, 1, ft.StopCount())
}

func TestWalk_ConnectTimeout(t *testing.T) {
	ft := &testutils.FakeTransport{DialBlocks: true}
	testutils.InstallTransport(t, ft)

	w := New(testutils.NewTestLogger(t))
	dp, err := w.Walk(context.Background(), testAddress, nil, shortOptions())
	assert.Nil(t, dp)
	assert.ErrorIs(t, err, bleerr.ErrConnectionTimeout)
	assert.Equal(t, 1, ft.StopCount())
}

func TestWalk_DialRefusedIsUnreachable(t *testing.T) {
	ft := &testutils.FakeTransport{DialErr: errors.New("connection refused")}
	testutils.InstallTransport(t, ft)

	w := New(testutils.NewTestLogger(t))
	dp, err := w.Walk(context.Background(), testAddress, nil, shortOptions())
	assert.Nil(t, dp)
	assert.ErrorIs(t, err, bleerr.ErrDeviceUnreachable)
	assert.Equal(t, 1, ft.StopCount())
}

func TestWalk_DiscoverFailureDisconnects(t *testing.T) {
	client := &testutils.FakeClient{DiscoverErr: errors.New("att timeout")}
	ft := &testutils.FakeTransport{DialClient: client}
	testutils.InstallTransport(t, ft)

	w := New(testutils.NewTestLogger(t))
	dp, err := w.Walk(context.Background(), testAddress, nil, shortOptions())
	assert.Nil(t, dp)
	assert.ErrorIs(t, err, bleerr.ErrEnumerationError)
	assert.True(t, client.Cancelled())
	assert.Equal(t, 1, ft.StopCount())
}

func TestWalk_AdapterUnavailable(t *testing.T) {
	testutils.InstallTransportError(t, bleerr.New(bleerr.AdapterUnavailable, "no adapter"))

	w := New(testutils.NewTestLogger(t))
	dp, err := w.Walk(context.Background(), testAddress, nil, nil)
	assert.Nil(t, dp)
	assert.ErrorIs(t, err, bleerr.ErrAdapterUnavailable)
}
