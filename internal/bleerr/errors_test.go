package bleerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "kind only",
			err:      &Error{Kind: ScanFailure},
			expected: "scan_failed",
		},
		{
			name:     "kind with message",
			err:      &Error{Kind: AdapterUnavailable, Msg: "can't open hci0"},
			expected: "adapter_unavailable: can't open hci0",
		},
		{
			name:     "kind with address and cause",
			err:      &Error{Kind: ConnectionTimeout, Address: "AA:BB:CC:DD:EE:FF", Err: errors.New("dial timed out")},
			expected: "connection_timeout (AA:BB:CC:DD:EE:FF): dial timed out",
		},
		{
			name:     "nil receiver",
			err:      nil,
			expected: "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("walk device: %w", WrapAddr(ConnectionTimeout, "AA:BB:CC:DD:EE:FF", "", context.DeadlineExceeded))

	assert.True(t, errors.Is(err, ErrConnectionTimeout))
	assert.False(t, errors.Is(err, ErrDeviceUnreachable))
	// The wrapped cause stays reachable through the chain
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("outer: %w", New(WriteError, "rename failed")))
	require.True(t, ok)
	assert.Equal(t, WriteError, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestClassifyOpen(t *testing.T) {
	tests := []struct {
		name     string
		adapter  string
		cause    error
		expected Kind
	}{
		{
			name:     "permission denied maps to PermissionDenied",
			adapter:  "hci0",
			cause:    errors.New("can't init hci: operation not permitted"),
			expected: PermissionDenied,
		},
		{
			name:     "missing device maps to AdapterUnavailable",
			adapter:  "hci1",
			cause:    errors.New("can't init hci: no such device"),
			expected: AdapterUnavailable,
		},
		{
			name:     "unknown open failure maps to AdapterUnavailable",
			adapter:  "",
			cause:    errors.New("can't create hci socket"),
			expected: AdapterUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyOpen(tt.adapter, tt.cause)
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, kind)
			assert.True(t, errors.Is(err, tt.cause))
		})
	}

	assert.NoError(t, ClassifyOpen("hci0", nil))
}

func TestClassifyDial(t *testing.T) {
	const addr = "AA:BB:CC:DD:EE:FF"

	err := ClassifyDial(addr, context.DeadlineExceeded)
	assert.True(t, errors.Is(err, ErrConnectionTimeout))

	err = ClassifyDial(addr, errors.New("connection timed out"))
	assert.True(t, errors.Is(err, ErrConnectionTimeout))

	err = ClassifyDial(addr, errors.New("can't dial: connection refused"))
	assert.True(t, errors.Is(err, ErrDeviceUnreachable))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, addr, e.Address)
}

func TestClassifyScan(t *testing.T) {
	err := ClassifyScan(errors.New("hci device: permission denied"))
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	err = ClassifyScan(errors.New("command disallowed"))
	assert.True(t, errors.Is(err, ErrScanFailure))
}
