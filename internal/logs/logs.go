// Package logs exposes the log files a server instance writes under
// Server/logs: listing, windowed reads and byte-offset tailing for live
// console views.
package logs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const defaultReadLimit = 500

// File describes one log file of an instance.
type File struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Modified string `json:"modified,omitempty"`
}

// Line is one parsed log line. Level and Timestamp are best-effort
// extractions and empty when the line doesn't carry them.
type Line struct {
	LineNumber int    `json:"line_number"`
	Content    string `json:"content"`
	Level      string `json:"level,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// ReadResult is a windowed view into a log file.
type ReadResult struct {
	Lines      []Line `json:"lines"`
	TotalLines int    `json:"total_lines"`
	FileSize   int64  `json:"file_size"`
}

// ListFiles enumerates .log and .txt files under the instance's logs
// directory, newest first. An instance that has never logged lists empty.
func ListFiles(instancePath string) ([]File, error) {
	logsDir := filepath.Join(instancePath, "Server", "logs")

	entries, err := os.ReadDir(logsDir)
	if os.IsNotExist(err) {
		return []File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read logs directory: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".log" && ext != ".txt" {
			continue
		}

		file := File{
			Name: entry.Name(),
			Path: filepath.Join(logsDir, entry.Name()),
		}
		if info, err := entry.Info(); err == nil {
			file.Size = info.Size()
			file.Modified = info.ModTime().UTC().Format(time.RFC3339)
		}

		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Modified > files[j].Modified })
	return files, nil
}

// ReadFile returns a window of lines from a log file. With tail true the
// window is the last limit lines; otherwise it is limit lines starting at
// offset (zero-based). A limit of zero means the default window.
func ReadFile(path string, tail bool, offset, limit int) (*ReadResult, error) {
	if limit <= 0 {
		limit = defaultReadLimit
	}
	if offset < 0 {
		offset = 0
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("log file not found")
	}

	allLines, err := readAllLines(path)
	if err != nil {
		return nil, err
	}
	total := len(allLines)

	start := offset
	if tail {
		start = total - limit
		if start < 0 {
			start = 0
		}
	}

	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	selected := make([]Line, 0, end-start)
	for i := start; i < end; i++ {
		selected = append(selected, parseLine(i+1, allLines[i]))
	}

	return &ReadResult{
		Lines:      selected,
		TotalLines: total,
		FileSize:   info.Size(),
	}, nil
}

// Tail returns the lines appended after fromByte, for live tailing. The
// returned FileSize is the next fromByte to poll with. A file that hasn't
// grown returns no lines.
func Tail(path string, fromByte int64) (*ReadResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("log file not found")
	}

	if info.Size() <= fromByte {
		return &ReadResult{Lines: []Line{}, FileSize: info.Size()}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(fromByte, 0); err != nil {
		return nil, fmt.Errorf("failed to seek in log file: %w", err)
	}

	var lines []Line
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, parseLine(len(lines)+1, scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	return &ReadResult{
		Lines:      lines,
		TotalLines: len(lines),
		FileSize:   info.Size(),
	}, nil
}

func readAllLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func parseLine(lineNumber int, content string) Line {
	return Line{
		LineNumber: lineNumber,
		Content:    content,
		Level:      extractLevel(content),
		Timestamp:  extractTimestamp(content),
	}
}

// extractLevel pulls a conventional severity token out of a line.
func extractLevel(line string) string {
	upper := strings.ToUpper(line)
	switch {
	case strings.Contains(upper, "[ERROR]") || strings.Contains(upper, " ERROR ") || strings.Contains(upper, "ERROR:"):
		return "ERROR"
	case strings.Contains(upper, "[WARN]") || strings.Contains(upper, " WARN ") || strings.Contains(upper, "WARNING"):
		return "WARN"
	case strings.Contains(upper, "[INFO]") || strings.Contains(upper, " INFO "):
		return "INFO"
	case strings.Contains(upper, "[DEBUG]") || strings.Contains(upper, " DEBUG "):
		return "DEBUG"
	case strings.Contains(upper, "[TRACE]") || strings.Contains(upper, " TRACE "):
		return "TRACE"
	default:
		return ""
	}
}

// extractTimestamp recognizes an ISO-like timestamp at the start of a line,
// optionally bracketed.
func extractTimestamp(line string) string {
	trimmed := strings.TrimPrefix(line, "[")
	if len(trimmed) < 19 {
		return ""
	}

	candidate := trimmed[:19]
	if candidate[0] < '0' || candidate[0] > '9' {
		return ""
	}
	if !strings.Contains(candidate, "-") || !strings.Contains(candidate, ":") {
		return ""
	}
	return strings.TrimSuffix(candidate, "]")
}
