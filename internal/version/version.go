// Package version carries the build version of dp.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/sparse/dp/internal/version.Version=v1.2.3 \
//	                   -X github.com/sparse/dp/internal/version.Commit=abc123"
//
// Unset values are filled from the binary's build info.
var (
	Version = ""
	Commit  = ""
)

func init() {
	info, _ := debug.ReadBuildInfo()
	Version, Commit = resolve(Version, Commit, info)
}

// resolve fills version and commit from build info where they are empty.
// Module versions win over VCS data; a build with neither is "dev".
func resolve(version, commit string, info *debug.BuildInfo) (string, string) {
	var revision, vcsTime string
	var dirty bool
	if info != nil {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				revision = s.Value
			case "vcs.time":
				vcsTime = s.Value
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
	}

	if commit == "" {
		commit = "unknown"
		if revision != "" {
			commit = revision[:min(len(revision), 7)]
			if dirty {
				commit += "-dirty"
			}
		}
	}

	if version == "" {
		switch {
		case info != nil && info.Main.Version != "" && info.Main.Version != "(devel)":
			version = info.Main.Version
		case vcsTime != "":
			if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
				version = "dev-" + t.UTC().Format("20060102")
			}
		}
	}
	if version == "" {
		version = "dev"
	}
	return version, commit
}

// Full returns the version with its commit, e.g. "v1.2.3 (commit: abc123)".
func Full() string {
	return Version + " (commit: " + Commit + ")"
}

// Product returns the product token used in SSDP SERVER headers,
// e.g. "dp/v1.2.3". Whitespace never appears in the token.
func Product() string {
	return "dp/" + strings.Join(strings.Fields(Version), "-")
}
