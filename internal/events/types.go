package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeStatusChanged uint32 = iota + 1
	TypeOutputLine
	TypeAuthNeeded
	TypeAuthNeedsPersistence
	TypeAuthRequired
	TypeAuthSuccess
	TypeProcessExited
	TypeDownloadProgress
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ServerStatus is the lifecycle status of an instance's server process.
type ServerStatus string

const (
	StatusStopped  ServerStatus = "stopped"
	StatusStarting ServerStatus = "starting"
	StatusRunning  ServerStatus = "running"
	StatusStopping ServerStatus = "stopping"
)

// StatusChangedEvent is published on every lifecycle transition.
// PID and StartedAt are set only while the process is running.
type StatusChangedEvent struct {
	InstanceID string       `json:"instance_id"`
	Status     ServerStatus `json:"status"`
	PID        int          `json:"pid,omitempty"`
	StartedAt  string       `json:"started_at,omitempty"`
}

// Type returns the event type identifier for StatusChangedEvent.
func (e StatusChangedEvent) Type() uint32 { return TypeStatusChanged }

// OutputLineEvent carries one line of console output from a server process.
type OutputLineEvent struct {
	InstanceID string    `json:"instance_id"`
	Stream     string    `json:"stream"` // "stdout" or "stderr"
	Line       string    `json:"line"`
	Timestamp  time.Time `json:"timestamp"`
}

// Type returns the event type identifier for OutputLineEvent.
func (e OutputLineEvent) Type() uint32 { return TypeOutputLine }

// AuthNeededEvent is published when the server reports it has no stored
// credentials and the device-auth flow has not started yet.
type AuthNeededEvent struct {
	InstanceID string `json:"instance_id"`
	Message    string `json:"message"`
}

// Type returns the event type identifier for AuthNeededEvent.
func (e AuthNeededEvent) Type() uint32 { return TypeAuthNeeded }

// AuthNeedsPersistenceEvent is published when credentials are held in memory only.
type AuthNeedsPersistenceEvent struct {
	InstanceID string `json:"instance_id"`
}

// Type returns the event type identifier for AuthNeedsPersistenceEvent.
func (e AuthNeedsPersistenceEvent) Type() uint32 { return TypeAuthNeedsPersistence }

// AuthRequiredEvent carries a device-authorization challenge: the operator
// must visit URL and enter Code.
type AuthRequiredEvent struct {
	InstanceID string `json:"instance_id"`
	URL        string `json:"url"`
	Code       string `json:"code"`
}

// Type returns the event type identifier for AuthRequiredEvent.
func (e AuthRequiredEvent) Type() uint32 { return TypeAuthRequired }

// AuthSuccessEvent is published when the server confirms authentication.
type AuthSuccessEvent struct {
	InstanceID  string `json:"instance_id"`
	ProfileName string `json:"profile_name,omitempty"`
	Mode        string `json:"mode"` // e.g. "OAUTH_DEVICE"
}

// Type returns the event type identifier for AuthSuccessEvent.
func (e AuthSuccessEvent) Type() uint32 { return TypeAuthSuccess }

// ProcessExitedEvent is the terminal event for one process lifetime.
type ProcessExitedEvent struct {
	InstanceID string `json:"instance_id"`
}

// Type returns the event type identifier for ProcessExitedEvent.
func (e ProcessExitedEvent) Type() uint32 { return TypeProcessExited }

// DownloadProgressEvent reports server-file download progress.
type DownloadProgressEvent struct {
	InstanceID string `json:"instance_id"`
	Percent    int    `json:"percent"`
	Message    string `json:"message,omitempty"`
	Done       bool   `json:"done"`
	Error      string `json:"error,omitempty"`
}

// Type returns the event type identifier for DownloadProgressEvent.
func (e DownloadProgressEvent) Type() uint32 { return TypeDownloadProgress }
