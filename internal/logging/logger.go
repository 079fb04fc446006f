package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/hypanel/hypanel/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	current *slog.Logger
	rotator *lumberjack.Logger
)

// Init builds the panel-wide logger from cfg and installs it as the slog
// default. The stdlib log package is redirected into it so that supervisor
// and websocket loops using log.Printf land in the same stream. Calling Init
// again returns the logger from the first call.
func Init(cfg config.LoggingConfig) (*slog.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		return current, nil
	}

	out := io.Writer(os.Stdout)
	if file := strings.TrimSpace(cfg.File); file != "" {
		rotator = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
	}

	opts := &slog.HandlerOptions{Level: levelFor(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	current = slog.New(handler)
	slog.SetDefault(current)
	log.SetFlags(0)
	log.SetOutput(printfBridge{})

	return current, nil
}

// L returns the panel logger. Before Init it returns the slog default, so
// packages may log during startup without ordering constraints.
func L() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if current == nil {
		return slog.Default()
	}
	return current
}

// Close releases the rotating file sink, if one was configured.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

// printfBridge routes stdlib log output through the structured logger at
// info level, one message per Write.
type printfBridge struct{}

func (printfBridge) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		L().Info(msg)
	}
	return len(p), nil
}

func levelFor(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
