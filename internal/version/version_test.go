package version

import "testing"

func TestString(t *testing.T) {
	defer func(v, c string) { Version, Commit = v, c }(Version, Commit)

	Version, Commit = "dev", "abc123"
	if got := String(); got != "dev (commit: abc123)" {
		t.Fatalf("unexpected dev version %q", got)
	}

	Version = "1.4.0"
	if got := String(); got != "1.4.0 (commit: abc123)" {
		t.Fatalf("unexpected release version %q", got)
	}
}
