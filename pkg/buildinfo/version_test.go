package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	Version = "v0.3.1"
	t.Cleanup(func() { Version = old })

	if got := String(); !strings.HasPrefix(got, "version: v0.3.1\n") {
		t.Errorf("String() = %q", got)
	}
	if got := Template(); !strings.Contains(got, "{{.Name}} version v0.3.1") {
		t.Errorf("Template() = %q", got)
	}
}
