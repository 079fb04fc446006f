package sysjava

import (
	"os"
	"path/filepath"
	"runtime"
)

// GamePaths reports where the Hytale launcher keeps the game files that a
// new instance can be seeded from.
type GamePaths struct {
	LauncherPath string `json:"launcher_path,omitempty"`
	ServerPath   string `json:"server_path,omitempty"`
	AssetsPath   string `json:"assets_path,omitempty"`
	Exists       bool   `json:"exists"`
}

// DetectGamePaths checks the launcher's install location for the Server
// directory and Assets.zip.
func DetectGamePaths() GamePaths {
	base := launcherPath()
	if base == "" {
		return GamePaths{}
	}

	paths := GamePaths{LauncherPath: base}

	serverPath := filepath.Join(base, "Server")
	assetsPath := filepath.Join(base, "Assets.zip")

	serverExists := dirExists(serverPath)
	assetsExists := fileExists(assetsPath)

	if serverExists {
		paths.ServerPath = serverPath
	}
	if assetsExists {
		paths.AssetsPath = assetsPath
	}
	paths.Exists = serverExists && assetsExists

	return paths
}

// launcherPath resolves the platform-specific launcher game directory,
// returning "" when it doesn't exist.
func launcherPath() string {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return ""
			}
			base = filepath.Join(home, ".local", "share")
		}
	}

	if base == "" {
		return ""
	}

	path := filepath.Join(base, "Hytale", "install", "release", "package", "game", "latest")
	if !dirExists(path) {
		return ""
	}
	return path
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
