package security

import (
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	base := t.TempDir()

	ok := []string{
		filepath.Join(base, "reports"),
		filepath.Join(base, "reports", "run1", "out.csv"),
		base,
	}
	for _, p := range ok {
		if err := ValidatePathWithinDirectory(p, base); err != nil {
			t.Errorf("ValidatePathWithinDirectory(%q) = %v, want nil", p, err)
		}
	}

	bad := []string{
		filepath.Join(base, ".."),
		filepath.Join(base, "..", "other"),
		"/etc/passwd",
	}
	for _, p := range bad {
		if err := ValidatePathWithinDirectory(p, base); err == nil {
			t.Errorf("ValidatePathWithinDirectory(%q) = nil, want error", p)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"run-123_v2.csv", "run-123_v2.csv"},
		{"a/b\\c", "a_b_c"},
		{"", "unknown"},
		{"name with spaces", "name_with_spaces"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
