package supervisor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// instanceDir builds a minimal instance layout with the launch artifacts.
func instanceDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	serverDir := filepath.Join(root, "Server")
	if err := os.MkdirAll(serverDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{
		filepath.Join(serverDir, "HytaleServer.jar"),
		filepath.Join(root, "Assets.zip"),
	} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestBuildCommandArgs(t *testing.T) {
	root := instanceDir(t)

	cmd, err := buildCommand(LaunchSpec{
		InstanceID:   "inst-1",
		InstancePath: root,
		JVMArgs:      "-Xmx4G -Xms1G",
		ServerArgs:   "--port 25565",
	})
	if err != nil {
		t.Fatalf("buildCommand: %v", err)
	}

	serverDir := filepath.Join(root, "Server")
	if cmd.Dir != serverDir {
		t.Errorf("dir = %q, want %q", cmd.Dir, serverDir)
	}

	want := []string{
		"-Xmx4G", "-Xms1G",
		"-jar", filepath.Join(serverDir, "HytaleServer.jar"),
		"--assets", filepath.Join(root, "Assets.zip"),
		"--port", "25565",
	}
	got := cmd.Args[1:]
	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildCommandDefaultJava(t *testing.T) {
	root := instanceDir(t)

	cmd, err := buildCommand(LaunchSpec{InstanceID: "inst-1", InstancePath: root})
	if err != nil {
		t.Fatalf("buildCommand: %v", err)
	}
	if !strings.Contains(cmd.Args[0], "java") {
		t.Errorf("argv[0] = %q, want java", cmd.Args[0])
	}
}

func TestBuildCommandCustomJava(t *testing.T) {
	root := instanceDir(t)

	cmd, err := buildCommand(LaunchSpec{
		InstanceID:   "inst-1",
		InstancePath: root,
		JavaPath:     "/opt/jdk-25/bin/java",
	})
	if err != nil {
		t.Fatalf("buildCommand: %v", err)
	}
	if cmd.Args[0] != "/opt/jdk-25/bin/java" {
		t.Errorf("argv[0] = %q", cmd.Args[0])
	}
}

func TestBuildCommandAOTCache(t *testing.T) {
	root := instanceDir(t)
	aot := filepath.Join(root, "Server", "HytaleServer.aot")
	if err := os.WriteFile(aot, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd, err := buildCommand(LaunchSpec{InstanceID: "inst-1", InstancePath: root})
	if err != nil {
		t.Fatalf("buildCommand: %v", err)
	}

	found := false
	for _, arg := range cmd.Args {
		if arg == "-XX:AOTCache="+aot {
			found = true
		}
	}
	if !found {
		t.Errorf("AOT cache flag missing from %v", cmd.Args)
	}
}

func TestBuildCommandMissingJar(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "Assets.zip"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := buildCommand(LaunchSpec{InstanceID: "inst-1", InstancePath: root})
	var missing *ArtifactMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *ArtifactMissingError", err)
	}
	if !strings.HasSuffix(missing.Path, "HytaleServer.jar") {
		t.Errorf("missing path = %q", missing.Path)
	}
}

func TestBuildCommandMissingAssets(t *testing.T) {
	root := t.TempDir()
	serverDir := filepath.Join(root, "Server")
	if err := os.MkdirAll(serverDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(serverDir, "HytaleServer.jar"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := buildCommand(LaunchSpec{InstanceID: "inst-1", InstancePath: root})
	var missing *ArtifactMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *ArtifactMissingError", err)
	}
	if !strings.HasSuffix(missing.Path, "Assets.zip") {
		t.Errorf("missing path = %q", missing.Path)
	}
}
