// Package bleerr defines the failure taxonomy shared by the discovery
// and profiling pipeline. Every phase surfaces its failures as *Error
// values carrying a Kind, so callers can branch with errors.Is without
// parsing transport messages.
package bleerr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the category of a pipeline failure.
type Kind string

const (
	// AdapterUnavailable means no usable Bluetooth adapter was found
	// or the named adapter could not be opened.
	AdapterUnavailable Kind = "adapter_unavailable"
	// PermissionDenied means the process lacks the capability to
	// access the radio (e.g. missing CAP_NET_ADMIN on Linux).
	PermissionDenied Kind = "permission_denied"
	// ScanFailure covers any other transport failure during the
	// advertisement collection window.
	ScanFailure Kind = "scan_failed"
	// DeviceNotFound means target selection produced no candidate.
	DeviceNotFound Kind = "device_not_found"
	// ConnectionTimeout means the connection did not establish within
	// the configured timeout.
	ConnectionTimeout Kind = "connection_timeout"
	// DeviceUnreachable means the address is not currently
	// advertising or not connectable.
	DeviceUnreachable Kind = "device_unreachable"
	// EnumerationError means the attribute table could not be fully
	// read; partial trees are discarded.
	EnumerationError Kind = "enumeration_failed"
	// WriteError means the output document could not be written.
	WriteError Kind = "write_failed"
)

// Error is a pipeline failure with enough context to diagnose without
// re-running at higher verbosity.
type Error struct {
	Kind    Kind
	Address string // target device address, when known
	Msg     string
	Err     error // underlying transport error, when any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Address != "" {
		fmt.Fprintf(&b, " (%s)", e.Address)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to compare Error values by Kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is comparisons.
var (
	ErrAdapterUnavailable = &Error{Kind: AdapterUnavailable}
	ErrPermissionDenied   = &Error{Kind: PermissionDenied}
	ErrScanFailure        = &Error{Kind: ScanFailure}
	ErrDeviceNotFound     = &Error{Kind: DeviceNotFound}
	ErrConnectionTimeout  = &Error{Kind: ConnectionTimeout}
	ErrDeviceUnreachable  = &Error{Kind: DeviceUnreachable}
	ErrEnumerationError   = &Error{Kind: EnumerationError}
	ErrWriteError         = &Error{Kind: WriteError}
)

// New creates an Error with a message and no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WrapAddr creates an Error around an underlying cause with the target
// device address attached.
func WrapAddr(kind Kind, address string, msg string, err error) *Error {
	return &Error{Kind: kind, Address: address, Msg: msg, Err: err}
}

// KindOf extracts the failure Kind from an error chain.
// The second return value is false when err carries no *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ClassifyOpen maps an adapter open failure to AdapterUnavailable or
// PermissionDenied based on known HCI error strings. It keeps working
// even if the upstream library rewords its messages slightly.
func ClassifyOpen(adapter string, err error) error {
	if err == nil {
		return nil
	}
	msg := adapter
	if msg == "" {
		msg = "default adapter"
	}
	if isPermissionError(err) {
		return &Error{Kind: PermissionDenied, Msg: "can't open " + msg, Err: err}
	}
	return &Error{Kind: AdapterUnavailable, Msg: "can't open " + msg, Err: err}
}

// ClassifyScan maps a scan failure to the taxonomy. Context
// cancellation and deadline expiry are normal window termination, not
// failures, so the caller must filter those before classifying.
func ClassifyScan(err error) error {
	if err == nil {
		return nil
	}
	if isPermissionError(err) {
		return &Error{Kind: PermissionDenied, Msg: "scan rejected", Err: err}
	}
	return &Error{Kind: ScanFailure, Err: err}
}

// ClassifyDial maps a connect failure for the given address.
// Deadline expiry means the peripheral never accepted the connection in
// time; everything else means it is not reachable.
func ClassifyDial(address string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || containsIgnoreCase(err.Error(), "timed out") {
		return &Error{Kind: ConnectionTimeout, Address: address, Err: err}
	}
	return &Error{Kind: DeviceUnreachable, Address: address, Err: err}
}

func isPermissionError(err error) bool {
	msg := err.Error()
	return containsIgnoreCase(msg, "permission denied") ||
		containsIgnoreCase(msg, "operation not permitted") ||
		containsIgnoreCase(msg, "access denied")
}

// containsIgnoreCase checks substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
