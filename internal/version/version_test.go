package version

import "testing"

func TestString(t *testing.T) {
	origVersion, origCommit, origBuild := Version, Commit, BuildTime
	defer func() { Version, Commit, BuildTime = origVersion, origCommit, origBuild }()

	Version, Commit, BuildTime = "1.2.0", "abc123", "2026-01-02T03:04:05Z"

	if got, want := String(), "1.2.0 (abc123) built 2026-01-02T03:04:05Z"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := UserAgent(), "market-pulse/1.2.0"; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}
