package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestXDGPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name     string
		env      string
		fn       func() (string, error)
		custom   string
		fallback string
	}{
		{"cache", "XDG_CACHE_HOME", cacheDir,
			filepath.Join("/tmp/xdg", appName), filepath.Join(home, ".cache", appName)},
		{"config", "XDG_CONFIG_HOME", configPath,
			filepath.Join("/tmp/xdg", appName, "config.toml"), filepath.Join(home, ".config", appName, "config.toml")},
		{"data", "XDG_DATA_HOME", dataDir,
			filepath.Join("/tmp/xdg", appName, "reports"), filepath.Join(home, ".local", "share", appName, "reports")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, "")
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.fallback {
				t.Errorf("without $%s = %q, want %q", tt.env, got, tt.fallback)
			}

			t.Setenv(tt.env, "/tmp/xdg")
			got, err = tt.fn()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.custom {
				t.Errorf("with $%s = %q, want %q", tt.env, got, tt.custom)
			}
		})
	}
}
