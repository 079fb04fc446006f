package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hypanel/hypanel/internal/instance"
	"github.com/hypanel/hypanel/internal/logs"
)

// LogsHandler serves server log files from an instance's logs directory
type LogsHandler struct {
	store *instance.Store
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(store *instance.Store) *LogsHandler {
	return &LogsHandler{store: store}
}

// logFilePath resolves a user-supplied file name inside the instance's logs
// directory. Base() strips any path separators out of the name.
func logFilePath(inst *instance.Instance, name string) string {
	return filepath.Join(inst.Path, "Server", "logs", filepath.Base(name))
}

// List returns the instance's log files, newest first
func (h *LogsHandler) List(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	files, err := logs.ListFiles(inst.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// Read returns a window of lines from one log file
func (h *LogsHandler) Read(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	name := c.Query("file")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file query parameter is required"})
		return
	}

	tail := c.DefaultQuery("tail", "true") == "true"
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	result, err := logs.ReadFile(logFilePath(inst, name), tail, offset, limit)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Tail returns lines appended to a log file since a byte offset
func (h *LogsHandler) Tail(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	name := c.Query("file")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file query parameter is required"})
		return
	}

	fromByte, _ := strconv.ParseInt(c.DefaultQuery("from_byte", "0"), 10, 64)

	result, err := logs.Tail(logFilePath(inst, name), fromByte)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
