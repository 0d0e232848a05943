package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestProduct(t *testing.T) {
	if Version == "" {
		t.Fatal("Version should be populated at init")
	}
	if got, want := Product(), "dp/"+Version; got != want {
		t.Errorf("Product() = %q, want %q", got, want)
	}
	if strings.ContainsAny(Product(), " \r\n") {
		t.Errorf("Product() = %q, should be a single token", Product())
	}
}

func TestResolve(t *testing.T) {
	vcs := &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2024-03-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	tests := []struct {
		name        string
		version     string
		commit      string
		info        *debug.BuildInfo
		wantVersion string
		wantCommit  string
	}{
		{"ldflags win", "v1.2.3", "abc", vcs, "v1.2.3", "abc"},
		{"vcs fallback", "", "", vcs, "dev-20240301", "0123456-dirty"},
		{"module version", "", "", &debug.BuildInfo{Main: debug.Module{Version: "v0.4.0"}}, "v0.4.0", "unknown"},
		{"no build info", "", "", nil, "dev", "unknown"},
		{"short revision", "", "", &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}}, "dev", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, c := resolve(tt.version, tt.commit, tt.info)
			if v != tt.wantVersion {
				t.Errorf("resolve() version = %q, want %q", v, tt.wantVersion)
			}
			if c != tt.wantCommit {
				t.Errorf("resolve() commit = %q, want %q", c, tt.wantCommit)
			}
		})
	}
}
