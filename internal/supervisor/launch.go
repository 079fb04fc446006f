package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Launch artifact layout inside an instance directory.
const (
	serverDirName  = "Server"
	serverJarName  = "HytaleServer.jar"
	aotCacheName   = "HytaleServer.aot"
	assetsFileName = "Assets.zip"
)

// LaunchSpec describes how to start one instance's server process.
type LaunchSpec struct {
	InstanceID   string
	InstancePath string
	JavaPath     string // "" resolves to java on PATH
	JVMArgs      string // whitespace-split, no shell quoting
	ServerArgs   string // whitespace-split, no shell quoting
}

// buildCommand validates the launch artifacts and assembles the java command.
// The returned command has its working directory set to the instance's
// Server folder; stdio is wired by the caller.
func buildCommand(spec LaunchSpec) (*exec.Cmd, error) {
	javaExe := spec.JavaPath
	if strings.TrimSpace(javaExe) == "" {
		javaExe = "java"
	}

	serverDir := filepath.Join(spec.InstancePath, serverDirName)
	serverJar := filepath.Join(serverDir, serverJarName)
	assetsPath := filepath.Join(spec.InstancePath, assetsFileName)

	if _, err := os.Stat(serverJar); err != nil {
		return nil, &ArtifactMissingError{Path: serverJar}
	}
	if _, err := os.Stat(assetsPath); err != nil {
		return nil, &ArtifactMissingError{Path: assetsPath}
	}

	var args []string
	args = append(args, strings.Fields(spec.JVMArgs)...)

	// Opt into the AOT cache when a previous run produced one.
	aotCache := filepath.Join(serverDir, aotCacheName)
	if _, err := os.Stat(aotCache); err == nil {
		args = append(args, fmt.Sprintf("-XX:AOTCache=%s", aotCache))
	}

	args = append(args, "-jar", serverJar)
	args = append(args, "--assets", assetsPath)
	args = append(args, strings.Fields(spec.ServerArgs)...)

	cmd := exec.Command(javaExe, args...)
	cmd.Dir = serverDir

	return cmd, nil
}
