// Package version reports the service version from the package, build and
// deploy perspectives.
package version

import (
	"runtime/debug"
)

// Set with -ldflags "-X github.com/couchcryptid/gear-smarts-service/internal/version.Package=1.2.0".
var (
	Package = "0.1.0"
	GitTag  = ""
)

// Info is the body of GET /version. Nil fields render as null.
type Info struct {
	PackageVersion string  `json:"PackageVersion"`
	BuildVersion   *string `json:"BuildVersion"`
	DeployVersion  *string `json:"DeployVersion"`
}

// Get assembles the version info. deployVersion is usually DEPLOY_VERSION.
func Get(deployVersion string) Info {
	info, _ := debug.ReadBuildInfo()
	return Info{
		PackageVersion: Package,
		BuildVersion:   buildVersion(info, GitTag),
		DeployVersion:  optional(deployVersion),
	}
}

// buildVersion renders "<tag>-<short commit>", or nil when either is unknown.
func buildVersion(info *debug.BuildInfo, tag string) *string {
	if info == nil {
		return nil
	}
	if tag == "" && info.Main.Version != "(devel)" {
		tag = info.Main.Version
	}

	var revision string
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			revision = s.Value
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}

	if tag == "" || revision == "" {
		return nil
	}
	v := tag + "-" + revision
	return &v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
