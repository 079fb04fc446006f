package downloader

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractZip unpacks archive into destDir, refusing entries that would
// escape the destination.
func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer reader.Close()

	cleanDest := filepath.Clean(destDir)

	for _, entry := range reader.File {
		outPath := filepath.Join(cleanDest, entry.Name)
		if !strings.HasPrefix(outPath, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("zip entry escapes destination: %s", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := extractZipEntry(entry, outPath); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(entry *zip.File, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to read zip entry %s: %w", entry.Name, err)
	}
	defer in.Close()

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, entry.Mode())
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", outPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}
	return nil
}
