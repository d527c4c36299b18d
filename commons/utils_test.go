package commons

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("SOME_TEST_KEY", "value")

	if got := GetEnv("SOME_TEST_KEY"); got != "value" {
		t.Errorf("Expected value, got %q", got)
	}
	if got := GetEnv("SOME_MISSING_KEY"); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
	if got := GetEnv("SOME_MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
	if got := GetEnv("SOME_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("Expected value over fallback, got %q", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"Alice@Example.COM":   "alice@example.com",
		"  bob@example.com  ": "bob@example.com",
		"carol@example.com":   "carol@example.com",
		"":                    "",
	}
	for input, want := range cases {
		if got := NormalizeEmail(input); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", input, got, want)
		}
	}
}
