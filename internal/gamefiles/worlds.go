package gamefiles

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// WorldInfo summarizes one world directory under Server/universe/worlds.
// The optional fields come from the world's config.json when it parses;
// a world with a missing or broken config still lists by name.
type WorldInfo struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	UUID         string `json:"uuid,omitempty"`
	Seed         *int64 `json:"seed,omitempty"`
	WorldGenType string `json:"world_gen_type,omitempty"`
	WorldGenName string `json:"world_gen_name,omitempty"`
	IsTicking    *bool  `json:"is_ticking,omitempty"`
	IsPvpEnabled *bool  `json:"is_pvp_enabled,omitempty"`
}

// worldConfig picks the summary fields out of a world's config.json.
type worldConfig struct {
	UUID struct {
		Binary string `json:"$binary"`
	} `json:"UUID"`
	Seed     int64 `json:"Seed"`
	WorldGen struct {
		Type string `json:"Type"`
		Name string `json:"Name"`
	} `json:"WorldGen"`
	IsTicking    bool `json:"IsTicking"`
	IsPvpEnabled bool `json:"IsPvpEnabled"`
}

// ListWorlds enumerates the worlds of an instance, sorted by name. A
// universe that has no worlds directory yet lists as empty.
func ListWorlds(instancePath string) ([]WorldInfo, error) {
	worldsDir := filepath.Join(instancePath, serverDirName, "universe", "worlds")

	entries, err := os.ReadDir(worldsDir)
	if os.IsNotExist(err) {
		return []WorldInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read worlds directory: %w", err)
	}

	worlds := make([]WorldInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		worldPath := filepath.Join(worldsDir, entry.Name())
		info := WorldInfo{
			Name: entry.Name(),
			Path: worldPath,
		}

		var cfg worldConfig
		if found, err := readJSONFile(filepath.Join(worldPath, "config.json"), &cfg); found && err == nil {
			seed := cfg.Seed
			ticking := cfg.IsTicking
			pvp := cfg.IsPvpEnabled
			info.UUID = cfg.UUID.Binary
			info.Seed = &seed
			info.WorldGenType = cfg.WorldGen.Type
			info.WorldGenName = cfg.WorldGen.Name
			info.IsTicking = &ticking
			info.IsPvpEnabled = &pvp
		}

		worlds = append(worlds, info)
	}

	sort.Slice(worlds, func(i, j int) bool { return worlds[i].Name < worlds[j].Name })
	return worlds, nil
}

// ReadWorldConfig loads a world's config.json as a generic document plus
// the raw text.
func ReadWorldConfig(worldPath string) (map[string]any, string, error) {
	path := filepath.Join(worldPath, "config.json")

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, "", fmt.Errorf("world config.json not found")
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read world config.json: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, string(raw), fmt.Errorf("failed to parse world config.json: %w", err)
	}
	return doc, string(raw), nil
}

// WriteWorldConfig saves a world's config.json.
func WriteWorldConfig(worldPath string, doc map[string]any) error {
	return writeJSONFile(filepath.Join(worldPath, "config.json"), doc)
}

// DeleteWorld removes a world directory and everything beneath it.
func DeleteWorld(worldPath string) error {
	if _, err := os.Stat(worldPath); err != nil {
		return fmt.Errorf("world directory not found")
	}
	if err := os.RemoveAll(worldPath); err != nil {
		return fmt.Errorf("failed to delete world: %w", err)
	}
	return nil
}

// DuplicateWorld copies a world directory to a sibling directory named
// newName and returns the new path. A partial copy is cleaned up on failure.
func DuplicateWorld(worldPath, newName string) (string, error) {
	if _, err := os.Stat(worldPath); err != nil {
		return "", fmt.Errorf("source world not found")
	}

	destPath := filepath.Join(filepath.Dir(worldPath), newName)
	if _, err := os.Stat(destPath); err == nil {
		return "", fmt.Errorf("world %q already exists", newName)
	}

	if err := copyDir(worldPath, destPath); err != nil {
		_ = os.RemoveAll(destPath)
		return "", fmt.Errorf("failed to duplicate world: %w", err)
	}
	return destPath, nil
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}

		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
