package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DataDir returns the directory holding the local database. The "data_dir"
// config key wins; otherwise files live under ~/.local/share/s2s.
func DataDir() string {
	if v := viper.GetString("data_dir"); v != "" {
		return ExpandPath(v)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".s2s"
	}
	return filepath.Join(home, ".local", "share", "s2s")
}

// DatabasePath returns the path of the SQLite database file.
func DatabasePath() string {
	if v := viper.GetString("database"); v != "" {
		return ExpandPath(v)
	}
	return filepath.Join(DataDir(), "s2s.db")
}

// APIBaseURL returns the backend REST endpoint.
func APIBaseURL() string {
	if v := viper.GetString("api.base_url"); v != "" {
		return v
	}
	return "https://api.statement2sheet.com"
}

// RealtimeURL returns the websocket endpoint for job tracking.
func RealtimeURL() string {
	if v := viper.GetString("api.realtime_url"); v != "" {
		return v
	}
	return "wss://api.statement2sheet.com/socket"
}
