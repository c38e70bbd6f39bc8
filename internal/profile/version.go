package profile

import "runtime/debug"

const bleModulePath = "github.com/go-ble/ble"

// LibraryVersion reports the version of the BLE library this binary was
// built against, for the profile's ble_version field. Falls back to
// "unknown" when built without module information.
func LibraryVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path == bleModulePath {
			if dep.Replace != nil {
				return dep.Replace.Version
			}
			return dep.Version
		}
	}
	return "unknown"
}
