package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/hypanel/hypanel/internal/downloader"
	"github.com/hypanel/hypanel/internal/instance"
)

// DownloadHandler drives the hytale-downloader CLI: installing the CLI
// itself and fetching server files into instance directories. Long-running
// work happens in the background; progress arrives over the event bus.
type DownloadHandler struct {
	store   *instance.Store
	manager *downloader.Manager

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(store *instance.Store, manager *downloader.Manager) *DownloadHandler {
	return &DownloadHandler{
		store:    store,
		manager:  manager,
		inFlight: make(map[string]bool),
	}
}

// begin marks a download key as running. It reports false when the key is
// already in flight.
func (h *DownloadHandler) begin(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inFlight[key] {
		return false
	}
	h.inFlight[key] = true
	return true
}

func (h *DownloadHandler) end(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inFlight, key)
}

// Info reports whether the downloader CLI is installed
func (h *DownloadHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Info())
}

// Versions reports the CLI and latest game versions
func (h *DownloadHandler) Versions(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Versions(c.Request.Context()))
}

// CheckUpdate asks the CLI whether a newer game version exists
func (h *DownloadHandler) CheckUpdate(c *gin.Context) {
	output, err := h.manager.CheckUpdate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"output": output})
}

// InstallCLI downloads the downloader CLI in the background
func (h *DownloadHandler) InstallCLI(c *gin.Context) {
	if !h.begin("cli") {
		c.JSON(http.StatusConflict, gin.H{"error": "CLI installation already in progress"})
		return
	}

	go func() {
		defer h.end("cli")
		if _, err := h.manager.InstallCLI(context.Background()); err != nil {
			log.Printf("[Downloads] CLI install failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "CLI installation started"})
}

// DownloadServerFiles fetches server files into the instance directory in
// the background. Progress and device-auth prompts arrive over the event bus.
func (h *DownloadHandler) DownloadServerFiles(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	var req struct {
		Patchline string `json:"patchline"`
	}
	// Body is optional; an empty body means the default patchline.
	_ = c.ShouldBindJSON(&req)

	if !h.begin(inst.ID) {
		c.JSON(http.StatusConflict, gin.H{"error": "Download already in progress for this instance"})
		return
	}

	go func() {
		defer h.end(inst.ID)

		if err := h.manager.DownloadServerFiles(context.Background(), inst.ID, inst.Path, req.Patchline); err != nil {
			log.Printf("[Downloads:%s] server files download failed: %v", inst.ID, err)
			return
		}

		// Best effort: record which game version landed on disk.
		info := h.manager.Versions(context.Background())
		if info.GameVersion != "" {
			if err := h.store.UpdateInstalledVersion(inst.ID, info.GameVersion); err != nil {
				log.Printf("[Downloads:%s] failed to record installed version: %v", inst.ID, err)
			}
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "Download started"})
}
