package testutils

import (
	"context"
	"sync/atomic"

	"github.com/go-ble/ble"

	"github.com/RoninATX/MKUltraSkelly/internal/radio"
)

// FakeTransport implements radio.Transport against canned data. Scan
// replays the configured advertisements in order and then blocks until
// the context ends, mirroring how a real scan runs for its full window.
type FakeTransport struct {
	// Advertisements are delivered to the scan handler in order.
	// Repeat an address to simulate multiple events from one device.
	Advertisements []ble.Advertisement
	// ScanErr, when set, is returned immediately instead of scanning.
	ScanErr error

	// DialClient and DialErr control Dial results.
	DialClient radio.Client
	DialErr    error
	// DialBlocks simulates a peripheral that never accepts the
	// connection: Dial waits for the context and returns its error.
	DialBlocks bool

	stopped atomic.Int32
}

func (t *FakeTransport) Scan(ctx context.Context, _ bool, h ble.AdvHandler) error {
	if t.ScanErr != nil {
		return t.ScanErr
	}
	for _, adv := range t.Advertisements {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		h(adv)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (t *FakeTransport) Dial(ctx context.Context, _ ble.Addr) (radio.Client, error) {
	if t.DialBlocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if t.DialErr != nil {
		return nil, t.DialErr
	}
	return t.DialClient, nil
}

func (t *FakeTransport) Stop() error {
	t.stopped.Add(1)
	return nil
}

// StopCount reports how many times the adapter handle was released.
func (t *FakeTransport) StopCount() int {
	return int(t.stopped.Load())
}

// FakeClient implements radio.Client against a canned ble.Profile.
type FakeClient struct {
	DeviceName  string
	Profile     *ble.Profile
	DiscoverErr error

	cancelled atomic.Int32
}

func (c *FakeClient) Name() string {
	return c.DeviceName
}

func (c *FakeClient) DiscoverProfile(_ bool) (*ble.Profile, error) {
	if c.DiscoverErr != nil {
		return nil, c.DiscoverErr
	}
	return c.Profile, nil
}

func (c *FakeClient) CancelConnection() error {
	c.cancelled.Add(1)
	return nil
}

// Cancelled reports whether the connection was released.
func (c *FakeClient) Cancelled() bool {
	return c.cancelled.Load() > 0
}

// InstallTransport replaces radio.Open with one that hands out the
// given transport, restoring the original factory when the test ends.
func InstallTransport(t interface{ Cleanup(func()) }, ft *FakeTransport) {
	original := radio.Open
	radio.Open = func(string) (radio.Transport, error) {
		return ft, nil
	}
	t.Cleanup(func() { radio.Open = original })
}

// InstallTransportError replaces radio.Open with one that fails,
// restoring the original factory when the test ends.
func InstallTransportError(t interface{ Cleanup(func()) }, err error) {
	original := radio.Open
	radio.Open = func(string) (radio.Transport, error) {
		return nil, err
	}
	t.Cleanup(func() { radio.Open = original })
}
