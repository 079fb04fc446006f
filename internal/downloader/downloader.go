// Package downloader wraps the official hytale-downloader CLI: installing
// the CLI itself, querying versions and fetching server files into an
// instance directory. Progress is published as events so websocket clients
// can render it live.
package downloader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hypanel/hypanel/internal/events"
)

const downloaderURL = "https://downloader.hytale.com/hytale-downloader.zip"

// Manager drives the hytale-downloader CLI kept under dir.
type Manager struct {
	dir    string
	sink   events.Sink
	client *http.Client
}

// Info reports whether the CLI is present without executing it.
type Info struct {
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	CLIVersion  string `json:"cli_version,omitempty"`
	GameVersion string `json:"game_version,omitempty"`
}

// ServerFilesStatus reports which launch artifacts already exist at a path.
type ServerFilesStatus struct {
	Exists       bool   `json:"exists"`
	HasServerJar bool   `json:"has_server_jar"`
	HasAssets    bool   `json:"has_assets"`
	ServerPath   string `json:"server_path,omitempty"`
}

// NewManager creates a manager storing the CLI under dir.
func NewManager(dir string, sink events.Sink) *Manager {
	return &Manager{
		dir:    dir,
		sink:   sink,
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

// executableName is the platform-specific CLI binary name.
func executableName() string {
	switch runtime.GOOS {
	case "windows":
		return "hytale-downloader-windows-amd64.exe"
	case "darwin":
		return "hytale-downloader-darwin-amd64"
	default:
		return "hytale-downloader-linux-amd64"
	}
}

// find locates the CLI in the managed directory first, then on PATH.
func (m *Manager) find() string {
	name := executableName()

	managed := filepath.Join(m.dir, name)
	if _, err := os.Stat(managed); err == nil {
		return managed
	}

	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

// Info reports CLI presence. It never runs the binary.
func (m *Manager) Info() Info {
	path := m.find()
	return Info{Available: path != "", Path: path}
}

// Versions runs the CLI's version queries. Each failing query leaves its
// field empty rather than failing the whole call.
func (m *Manager) Versions(ctx context.Context) Info {
	path := m.find()
	if path == "" {
		return Info{}
	}

	info := Info{Available: true, Path: path}
	if out, err := exec.CommandContext(ctx, path, "-version").Output(); err == nil {
		info.CLIVersion = strings.TrimSpace(string(out))
	}
	if out, err := exec.CommandContext(ctx, path, "-print-version").Output(); err == nil {
		info.GameVersion = strings.TrimSpace(string(out))
	}
	return info
}

// CheckUpdate runs the CLI's self-update check and returns its output.
func (m *Manager) CheckUpdate(ctx context.Context) (string, error) {
	path := m.find()
	if path == "" {
		return "", fmt.Errorf("hytale-downloader not found")
	}

	out, err := exec.CommandContext(ctx, path, "-check-update").Output()
	if err != nil {
		return "", fmt.Errorf("failed to check for updates: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// InstallCLI downloads and extracts the CLI into the managed directory and
// returns the executable path. Progress events carry the empty instance id
// because the install is panel-wide.
func (m *Manager) InstallCLI(ctx context.Context) (string, error) {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create downloader directory: %w", err)
	}

	zipPath := filepath.Join(m.dir, "hytale-downloader.zip")
	m.publish("", 0, "Downloading hytale-downloader...", false, "")

	if err := m.downloadFile(ctx, downloaderURL, zipPath); err != nil {
		m.publish("", 0, "", false, err.Error())
		return "", err
	}

	m.publish("", 100, "Extracting files...", false, "")

	if err := extractZip(zipPath, m.dir); err != nil {
		m.publish("", 0, "", false, err.Error())
		return "", fmt.Errorf("failed to extract downloader: %w", err)
	}
	_ = os.Remove(zipPath)

	exePath := filepath.Join(m.dir, executableName())
	if _, err := os.Stat(exePath); err != nil {
		err = fmt.Errorf("executable not found after extraction: %s", executableName())
		m.publish("", 0, "", false, err.Error())
		return "", err
	}
	_ = os.Chmod(exePath, 0755)

	m.publish("", 100, "Installation complete!", true, "")
	return exePath, nil
}

// downloadFile streams url to dest, publishing bucketed progress.
func (m *Manager) downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	tracker := newProgressTracker()
	total := resp.ContentLength
	var downloaded int64

	buf := make([]byte, 64*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			downloaded += int64(n)

			if total > 0 {
				percent := int(float64(downloaded) / float64(total) * 100)
				if tracker.advance(percent) {
					m.publish("", percent, fmt.Sprintf(
						"Downloading... %.1f MB / %.1f MB",
						float64(downloaded)/1e6, float64(total)/1e6,
					), false, "")
				}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("download error: %w", readErr)
		}
	}
}

// DownloadServerFiles fetches the server files for an instance via the CLI
// and extracts them into destination. The CLI runs with the managed
// directory as its working directory so its cached credentials stay there.
func (m *Manager) DownloadServerFiles(ctx context.Context, instanceID, destination, patchline string) error {
	path := m.find()
	if path == "" {
		err := fmt.Errorf("hytale-downloader not installed")
		m.publish(instanceID, 0, "", false, err.Error())
		return err
	}

	if err := os.MkdirAll(destination, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	zipPath := filepath.Join(destination, "server_download.zip")

	args := []string{"-download-path", zipPath}
	if patchline != "" {
		args = append(args, "-patchline", patchline)
	}

	m.publish(instanceID, 0, "Initializing download...", false, "")

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = filepath.Dir(path)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to start downloader: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		err = fmt.Errorf("failed to start downloader: %w", err)
		m.publish(instanceID, 0, "", false, err.Error())
		return err
	}

	tracker := newProgressTracker()
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		log.Printf("[Downloader:%s] %s", instanceID, line)

		p := parseProgress(line)
		switch {
		case p.AuthURL != "":
			m.publish(instanceID, tracker.last(), "AUTH_URL:"+p.AuthURL, false, "")
		case p.Percent >= 0 && tracker.advance(p.Percent):
			m.publish(instanceID, p.Percent, line, false, "")
		}
	}

	if err := cmd.Wait(); err != nil {
		err = fmt.Errorf("download failed: %w", err)
		m.publish(instanceID, tracker.last(), "", false, err.Error())
		return err
	}

	if _, err := os.Stat(zipPath); err != nil {
		err = fmt.Errorf("downloaded file not found: %s", zipPath)
		m.publish(instanceID, tracker.last(), "", false, err.Error())
		return err
	}

	m.publish(instanceID, 100, "Extracting server files...", false, "")

	if err := extractZip(zipPath, destination); err != nil {
		err = fmt.Errorf("failed to extract server files: %w", err)
		m.publish(instanceID, 100, "", false, err.Error())
		return err
	}
	_ = os.Remove(zipPath)

	m.publish(instanceID, 100, "Download and extraction completed!", true, "")
	return nil
}

// CheckServerFiles reports which launch artifacts already exist at path.
// The server jar is the decisive one.
func CheckServerFiles(path string) ServerFilesStatus {
	serverJar := filepath.Join(path, "Server", "HytaleServer.jar")
	assetsZip := filepath.Join(path, "Assets.zip")

	status := ServerFilesStatus{}
	if _, err := os.Stat(serverJar); err == nil {
		status.HasServerJar = true
		status.Exists = true
		status.ServerPath = serverJar
	}
	if _, err := os.Stat(assetsZip); err == nil {
		status.HasAssets = true
	}
	return status
}

func (m *Manager) publish(instanceID string, percent int, message string, done bool, errMsg string) {
	if m.sink == nil {
		return
	}
	m.sink.Publish(events.DownloadProgressEvent{
		InstanceID: instanceID,
		Percent:    percent,
		Message:    message,
		Done:       done,
		Error:      errMsg,
	})
}
