package helper

import (
	"strings"
	"testing"
)

func TestSanitizeTenantID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"user-123", "user-123"},
		{"User.Name_1", "user.name_1"},
		{"../../etc/passwd", "-..-etc-passwd"},
		{"a b c", "a-b-c"},
		{"über", "-ber"},
		{"...hidden", "hidden"},
		{"", "default"},
		{"...", "default"},
		{strings.Repeat("x", 100), strings.Repeat("x", 64)},
	}
	for _, tc := range cases {
		if got := SanitizeTenantID(tc.in); got != tc.want {
			t.Errorf("SanitizeTenantID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeTenantID_Idempotent(t *testing.T) {
	for _, in := range []string{"User Name", "../x", "normal-id", "ü"} {
		once := SanitizeTenantID(in)
		if twice := SanitizeTenantID(once); twice != once {
			t.Errorf("SanitizeTenantID not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestGenerateUUID(t *testing.T) {
	a, err := GenerateUUID()
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateUUID()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("consecutive UUIDs collided")
	}
	if len(a) != 36 {
		t.Errorf("UUID length = %d, want 36", len(a))
	}
}
