package config

import (
	"os"
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{"returns default when not set", "TEST_KEY_UNSET", "default", "", "default"},
		{"returns env value when set", "TEST_KEY_SET", "default", "custom", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{"returns default when not set", "TEST_INT_UNSET", 100, "", 100},
		{"parses valid int", "TEST_INT_VALID", 100, "42", 42},
		{"returns default on invalid int", "TEST_INT_INVALID", 100, "not-a-number", 100},
		{"parses zero", "TEST_INT_ZERO", 100, "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt(%q, %d) = %d, want %d", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{"returns default when not set", "TEST_BOOL_UNSET", true, "", true},
		{"parses true", "TEST_BOOL_TRUE", false, "true", true},
		{"parses 0 as false", "TEST_BOOL_ZERO", true, "0", false},
		{"returns default on invalid bool", "TEST_BOOL_INVALID", true, "yes", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LevelsPath != "./levels" {
		t.Errorf("LevelsPath = %q, want ./levels", cfg.LevelsPath)
	}
	if cfg.AppName != "stagekit" {
		t.Errorf("AppName = %q, want stagekit", cfg.AppName)
	}
	if cfg.DatabaseURL != "" || cfg.RabbitMQURL != "" {
		t.Error("optional backends should default to disabled")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envVars := map[string]string{
		"PORT":        "9000",
		"LEVELS_PATH": "/srv/levels",
		"DB_PATH":     "/var/lib/stagekit/progress.db",
		"APP_NAME":    "maze",
	}
	for k, v := range envVars {
		os.Setenv(k, v)
		defer os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.LevelsPath != "/srv/levels" {
		t.Errorf("LevelsPath = %q", cfg.LevelsPath)
	}
	if cfg.DBPath != "/var/lib/stagekit/progress.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.AppName != "maze" {
		t.Errorf("AppName = %q", cfg.AppName)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	os.Setenv("PORT", "not-a-port")
	defer os.Unsetenv("PORT")

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want default 8080 for malformed value", cfg.Port)
	}
}
