// Package gamefiles reads and writes the JSON files a Hytale server keeps
// inside its instance directory: whitelist, bans, permissions and the
// server config. Files the server has not created yet read back as
// sensible defaults.
package gamefiles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	serverDirName     = "Server"
	whitelistFileName = "whitelist.json"
	bansFileName      = "bans.json"
	permissionsFile   = "permissions.json"
	serverConfigFile  = "config.json"
)

// Whitelist mirrors Server/whitelist.json.
type Whitelist struct {
	Enabled bool     `json:"enabled"`
	List    []string `json:"list"`
}

// Ban is one entry of Server/bans.json.
type Ban struct {
	UUID     string `json:"uuid"`
	Name     string `json:"name,omitempty"`
	Reason   string `json:"reason,omitempty"`
	BannedAt string `json:"bannedAt,omitempty"`
	BannedBy string `json:"bannedBy,omitempty"`
}

// UserPermissions is the per-user entry of permissions.json.
type UserPermissions struct {
	Groups []string `json:"groups"`
}

// Permissions mirrors Server/permissions.json.
type Permissions struct {
	Users  map[string]UserPermissions `json:"users"`
	Groups map[string][]string        `json:"groups"`
}

// ReadWhitelist loads the instance whitelist. A missing file means the
// whitelist was never enabled and reads back as the empty default.
func ReadWhitelist(instancePath string) (*Whitelist, error) {
	path := serverFile(instancePath, whitelistFileName)

	var w Whitelist
	found, err := readJSONFile(path, &w)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Whitelist{Enabled: false, List: []string{}}, nil
	}
	if w.List == nil {
		w.List = []string{}
	}
	return &w, nil
}

// WriteWhitelist saves the instance whitelist.
func WriteWhitelist(instancePath string, w *Whitelist) error {
	return writeJSONFile(serverFile(instancePath, whitelistFileName), w)
}

// ReadBans loads the instance ban list. A missing file reads back empty.
func ReadBans(instancePath string) ([]Ban, error) {
	path := serverFile(instancePath, bansFileName)

	var bans []Ban
	found, err := readJSONFile(path, &bans)
	if err != nil {
		return nil, err
	}
	if !found || bans == nil {
		return []Ban{}, nil
	}
	return bans, nil
}

// WriteBans saves the instance ban list.
func WriteBans(instancePath string, bans []Ban) error {
	return writeJSONFile(serverFile(instancePath, bansFileName), bans)
}

// ReadPermissions loads the instance permissions. A missing file reads back
// as the server's own defaults: an empty Default group and a wildcard OP
// group.
func ReadPermissions(instancePath string) (*Permissions, error) {
	path := serverFile(instancePath, permissionsFile)

	var p Permissions
	found, err := readJSONFile(path, &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Permissions{
			Users: map[string]UserPermissions{},
			Groups: map[string][]string{
				"Default": {},
				"OP":      {"*"},
			},
		}, nil
	}
	if p.Users == nil {
		p.Users = map[string]UserPermissions{}
	}
	if p.Groups == nil {
		p.Groups = map[string][]string{}
	}
	return &p, nil
}

// WritePermissions saves the instance permissions.
func WritePermissions(instancePath string, p *Permissions) error {
	return writeJSONFile(serverFile(instancePath, permissionsFile), p)
}

// ReadServerConfig loads Server/config.json as a generic document plus the
// raw text for raw-editor use. Unlike the optional files, a missing config
// is an error: the server creates it on first run.
func ReadServerConfig(instancePath string) (map[string]any, string, error) {
	path := serverFile(instancePath, serverConfigFile)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, "", fmt.Errorf("config.json not found, start the server once to generate it")
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config.json: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, string(raw), fmt.Errorf("failed to parse config.json: %w", err)
	}
	return doc, string(raw), nil
}

// WriteServerConfig saves the full server config document.
func WriteServerConfig(instancePath string, doc map[string]any) error {
	return writeJSONFile(serverFile(instancePath, serverConfigFile), doc)
}

// WriteServerConfigRaw saves raw editor content after validating it parses.
func WriteServerConfigRaw(instancePath, content string) error {
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	path := serverFile(instancePath, serverConfigFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func serverFile(instancePath, name string) string {
	return filepath.Join(instancePath, serverDirName, name)
}

// readJSONFile decodes path into v, reporting whether the file existed.
func readJSONFile(path string, v any) (bool, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// writeJSONFile writes v to path pretty-printed, creating parent
// directories as needed.
func writeJSONFile(path string, v any) error {
	formatted, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, formatted, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
