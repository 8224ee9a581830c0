package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDir resolves where tempo keeps its store when no --data-dir is
// given. TEMPO_DATA_DIR wins outright; otherwise the platform's conventional
// per-user data location is used, with ~/.tempo as the last resort.
func DefaultDataDir() string {
	if dir := os.Getenv("TEMPO_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "tempo")
		}
		return filepath.Join(home, ".local", "share", "tempo")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Tempo")
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "Tempo")
		}
		return filepath.Join(home, "AppData", "Local", "Tempo")
	}
	return filepath.Join(home, ".tempo")
}
