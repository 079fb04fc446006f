// Package sysjava detects a usable Java runtime for the Hytale server,
// which requires Java 25 or newer. Detection tries PATH first, then the
// well-known JDK installation roots for the platform.
package sysjava

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// MinMajorVersion is the lowest Java major version the server accepts.
const MinMajorVersion = 25

// JavaInfo describes a detected Java runtime.
type JavaInfo struct {
	Installed    bool   `json:"installed"`
	Version      string `json:"version,omitempty"`
	MajorVersion int    `json:"major_version,omitempty"`
	Vendor       string `json:"vendor,omitempty"`
	IsValid      bool   `json:"is_valid"`
	JavaPath     string `json:"java_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Check locates a Java runtime. PATH wins when its java is new enough;
// otherwise the platform's installation roots are scanned for a valid JDK,
// and failing that the PATH java is reported anyway so the caller can show
// what was found.
func Check() JavaInfo {
	log.Printf("[Java] checking default java on PATH")
	if info, ok := checkExecutable("java"); ok {
		if info.IsValid {
			return info
		}

		log.Printf("[Java] PATH java is %s, scanning installation roots", info.Version)
		if scanned, found := scanInstallRoots(); found {
			return scanned
		}
		return info
	}

	if scanned, found := scanInstallRoots(); found {
		return scanned
	}

	return JavaInfo{
		Installed: false,
		IsValid:   false,
		Error:     fmt.Sprintf("Java not found. Please install Java %d or higher.", MinMajorVersion),
	}
}

// checkExecutable probes one java binary with --version.
func checkExecutable(javaPath string) (JavaInfo, bool) {
	out, err := exec.Command(javaPath, "--version").CombinedOutput()
	if err != nil || len(out) == 0 {
		return JavaInfo{}, false
	}

	info := ParseVersionOutput(string(out))
	if !info.Installed {
		return JavaInfo{}, false
	}

	info.JavaPath = javaPath
	return info, true
}

// ParseVersionOutput builds a JavaInfo from `java --version` output.
func ParseVersionOutput(output string) JavaInfo {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return JavaInfo{}
	}

	version := extractVersion(lines[0])
	if version == "" {
		return JavaInfo{}
	}

	major := 0
	if head, _, _ := strings.Cut(version, "."); head != "" {
		major, _ = strconv.Atoi(head)
	}

	vendor := ""
	if len(lines) > 1 {
		vendor = extractVendor(lines[1])
	}

	info := JavaInfo{
		Installed:    true,
		Version:      version,
		MajorVersion: major,
		Vendor:       vendor,
		IsValid:      major >= MinMajorVersion,
	}
	if !info.IsValid {
		info.Error = fmt.Sprintf("Java %d or higher is required. Found version: %d", MinMajorVersion, major)
	}
	return info
}

// extractVersion finds the version token on the first line of
// `java --version` output, e.g. "openjdk 25.0.1 2025-10-21".
func extractVersion(line string) string {
	parts := strings.Fields(line)
	for i, part := range parts {
		if part != "openjdk" && part != "java" {
			continue
		}
		if i+1 < len(parts) && startsWithDigit(parts[i+1]) {
			return parts[i+1]
		}
	}

	// Fallback: first dotted token that looks like a version.
	for _, part := range parts {
		if startsWithDigit(part) && strings.Contains(part, ".") {
			return part
		}
	}
	return ""
}

// extractVendor maps the runtime line of `java --version` to a vendor name.
func extractVendor(line string) string {
	switch {
	case strings.Contains(line, "Temurin"):
		return "Eclipse Temurin (Adoptium)"
	case strings.Contains(line, "Oracle"):
		return "Oracle"
	case strings.Contains(line, "GraalVM"):
		return "GraalVM"
	case strings.Contains(line, "Amazon"), strings.Contains(line, "Corretto"):
		return "Amazon Corretto"
	case strings.Contains(line, "Azul"), strings.Contains(line, "Zulu"):
		return "Azul Zulu"
	case strings.Contains(line, "OpenJDK"):
		return "OpenJDK"
	default:
		return line
	}
}

// scanInstallRoots probes the platform's JDK roots for a valid runtime.
func scanInstallRoots() (JavaInfo, bool) {
	for _, root := range installRoots() {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() || !nameSuggestsValidVersion(entry.Name()) {
				continue
			}

			javaExe := javaBinary(filepath.Join(root, entry.Name()))
			if _, err := os.Stat(javaExe); err != nil {
				continue
			}

			if info, ok := checkExecutable(javaExe); ok && info.IsValid {
				log.Printf("[Java] found valid runtime at %s", javaExe)
				return info, true
			}
		}
	}
	return JavaInfo{}, false
}

func installRoots() []string {
	switch runtime.GOOS {
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		if programFiles == "" {
			programFiles = `C:\Program Files`
		}
		programFilesX86 := os.Getenv("ProgramFiles(x86)")
		if programFilesX86 == "" {
			programFilesX86 = `C:\Program Files (x86)`
		}

		var roots []string
		for _, base := range []string{programFiles, programFilesX86} {
			for _, vendor := range []string{"Eclipse Adoptium", "Java", "Zulu", "Amazon Corretto"} {
				roots = append(roots, filepath.Join(base, vendor))
			}
		}
		return roots
	case "darwin":
		return []string{"/Library/Java/JavaVirtualMachines"}
	default:
		return []string{"/usr/lib/jvm", "/opt/java", "/opt/jdk"}
	}
}

func javaBinary(jdkRoot string) string {
	if runtime.GOOS == "darwin" {
		jdkRoot = filepath.Join(jdkRoot, "Contents", "Home")
	}
	name := "java"
	if runtime.GOOS == "windows" {
		name = "java.exe"
	}
	return filepath.Join(jdkRoot, "bin", name)
}

// nameSuggestsValidVersion filters directory names before running the
// binary, so the scan doesn't execute every JDK on the machine.
func nameSuggestsValidVersion(name string) bool {
	for major := MinMajorVersion; major < MinMajorVersion+10; major++ {
		if strings.Contains(name, strconv.Itoa(major)) {
			return true
		}
	}
	return false
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
