package telemetry

import "runtime/debug"

// version 可通过 -ldflags "-X github.com/BaSui01/promptflow/internal/telemetry.version=v1.2.3" 注入
var version string

// Version returns the build version reported by `promptflow version` and
// attached to telemetry resources: the ldflags value, else the module
// version from build info, else "dev".
func Version() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
