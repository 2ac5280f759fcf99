package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	for _, key := range []string{"version", "commit", "build_date", "go_version"} {
		if info[key] == "" {
			t.Errorf("Info()[%q] is empty", key)
		}
	}
	if info["go_version"] != runtime.Version() {
		t.Errorf("go_version = %q, want %q", info["go_version"], runtime.Version())
	}
}

func TestString(t *testing.T) {
	old := BuildVersion
	BuildVersion = "1.2.3"
	defer func() { BuildVersion = old }()

	if s := String(); !strings.HasPrefix(s, "1.2.3 (") {
		t.Errorf("String() = %q", s)
	}
}
