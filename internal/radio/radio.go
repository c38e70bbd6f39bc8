// Package radio owns the Bluetooth adapter handle. Exactly one scan or
// one connection holds the handle at a time; callers release it with
// Stop before returning, including on error paths.
package radio

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"

	"github.com/RoninATX/MKUltraSkelly/internal/bleerr"
)

// Client is the subset of ble.Client the profiling phase needs.
type Client interface {
	Name() string
	DiscoverProfile(force bool) (*ble.Profile, error)
	CancelConnection() error
}

// Transport is an exclusive handle on one adapter, good for a single
// scan or a single connection.
type Transport interface {
	Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error
	Dial(ctx context.Context, addr ble.Addr) (Client, error)
	Stop() error
}

type transport struct {
	dev ble.Device
}

func (t *transport) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error {
	return t.dev.Scan(ctx, allowDup, h)
}

func (t *transport) Dial(ctx context.Context, addr ble.Addr) (Client, error) {
	return t.dev.Dial(ctx, addr)
}

func (t *transport) Stop() error {
	return t.dev.Stop()
}

// Open acquires the named adapter (e.g. "hci0") or the default one when
// adapter is empty. Failures are classified as AdapterUnavailable or
// PermissionDenied. This is a variable so that tests can substitute a
// fake transport.
var Open = func(adapter string) (Transport, error) {
	var opts []ble.Option
	if adapter != "" {
		id, err := AdapterID(adapter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ble.OptDeviceID(id))
	}

	dev, err := linux.NewDevice(opts...)
	if err != nil {
		return nil, bleerr.ClassifyOpen(adapter, err)
	}
	return &transport{dev: dev}, nil
}

// AdapterID parses an adapter name into an HCI device id. Accepts the
// conventional "hciN" form and a bare numeric id.
func AdapterID(adapter string) (int, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(adapter)), "hci")
	id, err := strconv.Atoi(name)
	if err != nil || id < 0 {
		return 0, bleerr.Newf(bleerr.AdapterUnavailable, "invalid adapter name %q (expected hciN)", adapter)
	}
	return id, nil
}
