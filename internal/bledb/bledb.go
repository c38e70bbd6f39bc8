// Package bledb provides a read-only lookup from well-known Bluetooth
// SIG UUIDs to human-readable descriptions, plus UUID normalization
// helpers. The tables are process-wide immutable data; unknown UUIDs
// simply yield no description.
package bledb

import "strings"

// sigBaseSuffix is the tail of the Bluetooth SIG base UUID
// (0000xxxx-0000-1000-8000-00805f9b34fb) in normalized form.
const sigBaseSuffix = "00001000800000805f9b34fb"

// NormalizeUUID converts a UUID string to internal lookup form:
// lowercase, no dashes, no braces, no 0x prefix. Full 128-bit UUIDs on
// the Bluetooth SIG base are reduced to their 16-bit short form.
func NormalizeUUID(uuid string) string {
	u := strings.ToLower(strings.TrimSpace(uuid))
	u = strings.TrimPrefix(u, "{")
	u = strings.TrimSuffix(u, "}")
	u = strings.TrimPrefix(u, "0x")
	u = strings.ReplaceAll(u, "-", "")

	if len(u) == 32 && strings.HasPrefix(u, "0000") && strings.HasSuffix(u, sigBaseSuffix) {
		return u[4:8]
	}
	return u
}

// NormalizeUUIDs normalizes a slice of UUID strings to internal form.
func NormalizeUUIDs(uuids []string) []string {
	result := make([]string, len(uuids))
	for i, u := range uuids {
		result[i] = NormalizeUUID(u)
	}
	return result
}

// CanonicalUUID expands a UUID to its canonical lowercase hyphenated
// 128-bit string form. Short SIG UUIDs are placed on the SIG base;
// strings that are not valid 128-bit hex after normalization are
// returned lowercased as-is.
func CanonicalUUID(uuid string) string {
	u := strings.ToLower(strings.TrimSpace(uuid))
	u = strings.TrimPrefix(u, "{")
	u = strings.TrimSuffix(u, "}")
	u = strings.TrimPrefix(u, "0x")
	u = strings.ReplaceAll(u, "-", "")

	switch len(u) {
	case 4:
		u = "0000" + u + sigBaseSuffix
	case 8:
		u = u + sigBaseSuffix
	}
	if len(u) != 32 {
		return strings.ToLower(strings.TrimSpace(uuid))
	}
	return u[0:8] + "-" + u[8:12] + "-" + u[12:16] + "-" + u[16:20] + "-" + u[20:32]
}

// LookupService returns the known name of a GATT service UUID, or ""
func LookupService(uuid string) string {
	return services[NormalizeUUID(uuid)]
}

// LookupCharacteristic returns the known name of a characteristic UUID, or ""
func LookupCharacteristic(uuid string) string {
	return characteristics[NormalizeUUID(uuid)]
}

// LookupDescriptor returns the known name of a descriptor UUID, or ""
func LookupDescriptor(uuid string) string {
	return descriptors[NormalizeUUID(uuid)]
}

// Lookup searches all tables in service, characteristic, descriptor order.
func Lookup(uuid string) string {
	n := NormalizeUUID(uuid)
	if name, ok := services[n]; ok {
		return name
	}
	if name, ok := characteristics[n]; ok {
		return name
	}
	return descriptors[n]
}
