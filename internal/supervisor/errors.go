package supervisor

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned when a start is attempted for an
	// instance that already has a live process.
	ErrAlreadyRunning = errors.New("server is already running")

	// ErrNotRunning is returned when a stop or command targets an instance
	// with no live process.
	ErrNotRunning = errors.New("server is not running")
)

// ArtifactMissingError reports a missing launch artifact.
type ArtifactMissingError struct {
	Path string
}

func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf("launch artifact not found: %s", e.Path)
}

// SpawnError reports a failed process spawn.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start server: %v", e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
