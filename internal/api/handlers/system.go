package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypanel/hypanel/internal/sysjava"
)

// SystemHandler reports host prerequisites: the Java runtime and the
// locally-installed Hytale client's game files.
type SystemHandler struct{}

// NewSystemHandler creates a new system handler
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// Java reports the detected Java installation
func (h *SystemHandler) Java(c *gin.Context) {
	c.JSON(http.StatusOK, sysjava.Check())
}

// GamePaths reports whether the Hytale launcher's game files are present
func (h *SystemHandler) GamePaths(c *gin.Context) {
	c.JSON(http.StatusOK, sysjava.DetectGamePaths())
}
