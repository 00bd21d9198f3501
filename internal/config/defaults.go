package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "kave"

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - Linux:   $XDG_CONFIG_HOME/kave/ or ~/.config/kave/
//   - macOS:   ~/Library/Application Support/kave/
//   - Windows: %APPDATA%\kave\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", appName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(homeDir(), "AppData", "Roaming", appName)
	default:
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
}

// PlatformStateDir returns the directory for logs and other state.
//
// Platform paths:
//   - Linux:   $XDG_STATE_HOME/kave/ or ~/.local/state/kave/
//   - macOS:   ~/Library/Logs/kave/
//   - Windows: %LOCALAPPDATA%\kave\logs\
func PlatformStateDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", appName)
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appName, "logs")
		}
		return filepath.Join(homeDir(), "AppData", "Local", appName, "logs")
	default:
		return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
	}
}

func xdgDir(envVar, fallback string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), fallback, appName)
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{
		"toml",
		"json",
		"yaml",
		"yml",
	}
}

// FindConfigFile searches for a config file in standard locations.
// Returns the path to the first found config file, or empty string if none found.
func FindConfigFile() string {
	for _, dir := range []string{".", PlatformConfigDir()} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
