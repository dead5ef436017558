package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestParseLanguageList(t *testing.T) {
	got := ParseLanguageList(" ja, en ,,en-US, not a code!, zh-Hant")
	want := []string{"ja", "en", "en-US", "zh-Hant"}

	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %q at %d, got %q", want[i], i, got[i])
		}
	}
}

func TestLoadSearch_Defaults(t *testing.T) {
	for _, key := range []string{"CAPTION_LANGUAGES", "CAPTION_FALLBACK_LANGUAGES", "YOUTUBE_COOKIE_FILE", "YOUTUBE_REQUEST_TIMEOUT_SECONDS"} {
		os.Unsetenv(key)
	}

	cfg := loadSearch()

	attempts := cfg.LanguageAttempts()
	if len(attempts) != 2 {
		t.Fatalf("Expected 2 language attempts, got %d", len(attempts))
	}
	if strings.Join(attempts[0], ",") != "ja,en,en-US" {
		t.Errorf("Unexpected primary languages %v", attempts[0])
	}
	if strings.Join(attempts[1], ",") != "ja,en" {
		t.Errorf("Unexpected fallback languages %v", attempts[1])
	}
	if cfg.CookieFile != "" {
		t.Errorf("Expected no cookie file, got %q", cfg.CookieFile)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", cfg.RequestTimeout)
	}
}

func TestLoadSearch_InvalidLanguagesFallBackToDefault(t *testing.T) {
	os.Setenv("CAPTION_LANGUAGES", "!!, ??")
	defer os.Unsetenv("CAPTION_LANGUAGES")

	cfg := loadSearch()
	if strings.Join(cfg.PrimaryLanguages, ",") != "ja,en,en-US" {
		t.Errorf("Expected default languages, got %v", cfg.PrimaryLanguages)
	}
}
