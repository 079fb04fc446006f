package gamefiles

import (
	"os"
	"path/filepath"
	"testing"
)

func makeWorld(t *testing.T, instancePath, name, config string) string {
	t.Helper()
	worldPath := filepath.Join(instancePath, "Server", "universe", "worlds", name)
	if err := os.MkdirAll(worldPath, 0o755); err != nil {
		t.Fatal(err)
	}
	if config != "" {
		if err := os.WriteFile(filepath.Join(worldPath, "config.json"), []byte(config), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return worldPath
}

const worldConfigJSON = `{
	"Version": 1,
	"UUID": {"$binary": "abc123", "$type": "04"},
	"Seed": 42,
	"WorldGen": {"Type": "Procedural", "Name": "default"},
	"IsTicking": true,
	"IsPvpEnabled": false
}`

func TestListWorldsEmpty(t *testing.T) {
	worlds, err := ListWorlds(t.TempDir())
	if err != nil {
		t.Fatalf("ListWorlds: %v", err)
	}
	if len(worlds) != 0 {
		t.Errorf("worlds = %v, want empty", worlds)
	}
}

func TestListWorldsSorted(t *testing.T) {
	root := t.TempDir()
	makeWorld(t, root, "zone-b", worldConfigJSON)
	makeWorld(t, root, "zone-a", "")

	worlds, err := ListWorlds(root)
	if err != nil {
		t.Fatalf("ListWorlds: %v", err)
	}
	if len(worlds) != 2 {
		t.Fatalf("worlds = %d, want 2", len(worlds))
	}
	if worlds[0].Name != "zone-a" || worlds[1].Name != "zone-b" {
		t.Errorf("order = %s, %s", worlds[0].Name, worlds[1].Name)
	}

	// zone-a has no config; only name and path are known.
	if worlds[0].UUID != "" || worlds[0].Seed != nil {
		t.Errorf("configless world carries config data: %+v", worlds[0])
	}

	b := worlds[1]
	if b.UUID != "abc123" || b.Seed == nil || *b.Seed != 42 {
		t.Errorf("world summary = %+v", b)
	}
	if b.WorldGenType != "Procedural" || b.IsTicking == nil || !*b.IsTicking {
		t.Errorf("world summary = %+v", b)
	}
}

func TestWorldConfigRoundTrip(t *testing.T) {
	root := t.TempDir()
	worldPath := makeWorld(t, root, "zone-a", worldConfigJSON)

	doc, raw, err := ReadWorldConfig(worldPath)
	if err != nil {
		t.Fatalf("ReadWorldConfig: %v", err)
	}
	if raw == "" || doc["Seed"].(float64) != 42 {
		t.Errorf("doc = %v", doc)
	}

	doc["IsPvpEnabled"] = true
	if err := WriteWorldConfig(worldPath, doc); err != nil {
		t.Fatalf("WriteWorldConfig: %v", err)
	}

	doc, _, err = ReadWorldConfig(worldPath)
	if err != nil {
		t.Fatalf("ReadWorldConfig after write: %v", err)
	}
	if doc["IsPvpEnabled"] != true {
		t.Errorf("IsPvpEnabled = %v", doc["IsPvpEnabled"])
	}
}

func TestDeleteWorld(t *testing.T) {
	root := t.TempDir()
	worldPath := makeWorld(t, root, "zone-a", worldConfigJSON)

	if err := DeleteWorld(worldPath); err != nil {
		t.Fatalf("DeleteWorld: %v", err)
	}
	if _, err := os.Stat(worldPath); !os.IsNotExist(err) {
		t.Error("world directory still exists")
	}

	if err := DeleteWorld(worldPath); err == nil {
		t.Error("deleting absent world succeeded")
	}
}

func TestDuplicateWorld(t *testing.T) {
	root := t.TempDir()
	worldPath := makeWorld(t, root, "zone-a", worldConfigJSON)

	// Nested content must survive the copy.
	chunkDir := filepath.Join(worldPath, "chunks")
	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(chunkDir, "0.dat"), []byte("chunk"), 0o644); err != nil {
		t.Fatal(err)
	}

	destPath, err := DuplicateWorld(worldPath, "zone-a-copy")
	if err != nil {
		t.Fatalf("DuplicateWorld: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(destPath, "chunks", "0.dat"))
	if err != nil || string(data) != "chunk" {
		t.Errorf("copied chunk = %q, %v", data, err)
	}

	if _, err := DuplicateWorld(worldPath, "zone-a-copy"); err == nil {
		t.Error("duplicate into existing name succeeded")
	}
}
