package gamefiles

import (
	"os"
	"path/filepath"
	"testing"
)

func writeServerFile(t *testing.T, instancePath, name, content string) {
	t.Helper()
	dir := filepath.Join(instancePath, "Server")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadWhitelistDefault(t *testing.T) {
	w, err := ReadWhitelist(t.TempDir())
	if err != nil {
		t.Fatalf("ReadWhitelist: %v", err)
	}
	if w.Enabled {
		t.Error("default whitelist enabled")
	}
	if w.List == nil || len(w.List) != 0 {
		t.Errorf("default list = %v, want empty slice", w.List)
	}
}

func TestWhitelistRoundTrip(t *testing.T) {
	root := t.TempDir()

	in := &Whitelist{Enabled: true, List: []string{"player-1", "player-2"}}
	if err := WriteWhitelist(root, in); err != nil {
		t.Fatalf("WriteWhitelist: %v", err)
	}

	out, err := ReadWhitelist(root)
	if err != nil {
		t.Fatalf("ReadWhitelist: %v", err)
	}
	if !out.Enabled || len(out.List) != 2 || out.List[0] != "player-1" {
		t.Errorf("whitelist = %+v", out)
	}
}

func TestReadWhitelistInvalidJSON(t *testing.T) {
	root := t.TempDir()
	writeServerFile(t, root, "whitelist.json", "{not json")

	if _, err := ReadWhitelist(root); err == nil {
		t.Error("expected parse error")
	}
}

func TestReadBansDefault(t *testing.T) {
	bans, err := ReadBans(t.TempDir())
	if err != nil {
		t.Fatalf("ReadBans: %v", err)
	}
	if bans == nil || len(bans) != 0 {
		t.Errorf("bans = %v, want empty slice", bans)
	}
}

func TestBansRoundTrip(t *testing.T) {
	root := t.TempDir()

	in := []Ban{{UUID: "u-1", Name: "Griefer", Reason: "griefing", BannedBy: "admin"}}
	if err := WriteBans(root, in); err != nil {
		t.Fatalf("WriteBans: %v", err)
	}

	out, err := ReadBans(root)
	if err != nil {
		t.Fatalf("ReadBans: %v", err)
	}
	if len(out) != 1 || out[0].UUID != "u-1" || out[0].Reason != "griefing" {
		t.Errorf("bans = %+v", out)
	}
}

func TestReadPermissionsDefault(t *testing.T) {
	p, err := ReadPermissions(t.TempDir())
	if err != nil {
		t.Fatalf("ReadPermissions: %v", err)
	}
	if len(p.Groups["OP"]) != 1 || p.Groups["OP"][0] != "*" {
		t.Errorf("OP group = %v, want wildcard", p.Groups["OP"])
	}
	if got, ok := p.Groups["Default"]; !ok || len(got) != 0 {
		t.Errorf("Default group = %v, want empty", got)
	}
}

func TestPermissionsRoundTrip(t *testing.T) {
	root := t.TempDir()

	in := &Permissions{
		Users:  map[string]UserPermissions{"u-1": {Groups: []string{"OP"}}},
		Groups: map[string][]string{"OP": {"*"}},
	}
	if err := WritePermissions(root, in); err != nil {
		t.Fatalf("WritePermissions: %v", err)
	}

	out, err := ReadPermissions(root)
	if err != nil {
		t.Fatalf("ReadPermissions: %v", err)
	}
	if out.Users["u-1"].Groups[0] != "OP" {
		t.Errorf("permissions = %+v", out)
	}
}

func TestReadServerConfigMissing(t *testing.T) {
	if _, _, err := ReadServerConfig(t.TempDir()); err == nil {
		t.Error("expected error for missing config.json")
	}
}

func TestServerConfigRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeServerFile(t, root, "config.json", `{"ServerName":"My Server","MaxPlayers":20}`)

	doc, raw, err := ReadServerConfig(root)
	if err != nil {
		t.Fatalf("ReadServerConfig: %v", err)
	}
	if doc["ServerName"] != "My Server" {
		t.Errorf("ServerName = %v", doc["ServerName"])
	}
	if raw == "" {
		t.Error("raw content empty")
	}

	doc["MaxPlayers"] = 50
	if err := WriteServerConfig(root, doc); err != nil {
		t.Fatalf("WriteServerConfig: %v", err)
	}

	doc, _, err = ReadServerConfig(root)
	if err != nil {
		t.Fatalf("ReadServerConfig after write: %v", err)
	}
	if doc["MaxPlayers"].(float64) != 50 {
		t.Errorf("MaxPlayers = %v", doc["MaxPlayers"])
	}
}

func TestWriteServerConfigRawRejectsInvalid(t *testing.T) {
	root := t.TempDir()

	if err := WriteServerConfigRaw(root, "{broken"); err == nil {
		t.Error("expected validation error")
	}
	if err := WriteServerConfigRaw(root, `{"ServerName":"ok"}`); err != nil {
		t.Errorf("valid content rejected: %v", err)
	}
}
