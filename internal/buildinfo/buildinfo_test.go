package buildinfo

import "testing"

func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })
	Version, Commit, Date = version, commit, date
}

func TestShort(t *testing.T) {
	cases := []struct {
		version, commit, want string
	}{
		{"dev", "unknown", "dev"},
		{"v1.2.0", "abc1234def", "v1.2.0"},
		{"dev", "abc1234def", "abc1234"},
		{"", "abc", "abc"},
	}
	for _, tc := range cases {
		stamp(t, tc.version, tc.commit, "unknown")
		if got := Short(); got != tc.want {
			t.Fatalf("Short() with %q/%q = %q, want %q", tc.version, tc.commit, got, tc.want)
		}
	}
}

func TestLine(t *testing.T) {
	stamp(t, "v1.2.0", "abc1234def", "2026-01-02")
	if got, want := Line(), "v1.2.0 abc1234 2026-01-02"; got != want {
		t.Fatalf("Line() = %q, want %q", got, want)
	}
	stamp(t, "dev", "unknown", "unknown")
	if got := Line(); got != "dev" {
		t.Fatalf("Line() = %q, want dev", got)
	}
}
