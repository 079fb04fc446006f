package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/hypanel/hypanel/internal/gamefiles"
	"github.com/hypanel/hypanel/internal/instance"
)

// GameFilesHandler handles the JSON files a server keeps next to its jar:
// whitelist, bans, permissions, config and world directories.
type GameFilesHandler struct {
	store *instance.Store
}

// NewGameFilesHandler creates a new game files handler
func NewGameFilesHandler(store *instance.Store) *GameFilesHandler {
	return &GameFilesHandler{store: store}
}

// GetWhitelist returns the instance's whitelist
func (h *GameFilesHandler) GetWhitelist(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	w, err := gamefiles.ReadWhitelist(inst.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, w)
}

// UpdateWhitelist replaces the instance's whitelist
func (h *GameFilesHandler) UpdateWhitelist(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	var w gamefiles.Whitelist
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := gamefiles.WriteWhitelist(inst.Path, &w); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, w)
}

// GetBans returns the instance's ban list
func (h *GameFilesHandler) GetBans(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	bans, err := gamefiles.ReadBans(inst.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bans": bans})
}

// UpdateBans replaces the instance's ban list
func (h *GameFilesHandler) UpdateBans(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	var req struct {
		Bans []gamefiles.Ban `json:"bans"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := gamefiles.WriteBans(inst.Path, req.Bans); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bans": req.Bans})
}

// GetPermissions returns the instance's permissions file
func (h *GameFilesHandler) GetPermissions(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	p, err := gamefiles.ReadPermissions(inst.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, p)
}

// UpdatePermissions replaces the instance's permissions file
func (h *GameFilesHandler) UpdatePermissions(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	var p gamefiles.Permissions
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := gamefiles.WritePermissions(inst.Path, &p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetServerConfig returns the server's config.json, parsed and raw
func (h *GameFilesHandler) GetServerConfig(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	doc, raw, err := gamefiles.ReadServerConfig(inst.Path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"config": doc, "raw": raw})
}

// UpdateServerConfig replaces the server's config.json with raw content
func (h *GameFilesHandler) UpdateServerConfig(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := gamefiles.WriteServerConfigRaw(inst.Path, req.Content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Config saved"})
}

// ListWorlds returns the instance's worlds
func (h *GameFilesHandler) ListWorlds(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	worlds, err := gamefiles.ListWorlds(inst.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"worlds": worlds})
}

// worldPath resolves a world name inside the instance's universe directory.
// Base() strips any path separators out of the user-supplied name.
func worldPath(inst *instance.Instance, name string) string {
	return filepath.Join(inst.Path, "Server", "universe", "worlds", filepath.Base(name))
}

// GetWorldConfig returns one world's config.json
func (h *GameFilesHandler) GetWorldConfig(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	doc, raw, err := gamefiles.ReadWorldConfig(worldPath(inst, c.Param("world")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"config": doc, "raw": raw})
}

// UpdateWorldConfig replaces one world's config.json
func (h *GameFilesHandler) UpdateWorldConfig(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	var doc map[string]any
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := gamefiles.WriteWorldConfig(worldPath(inst, c.Param("world")), doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "World config saved"})
}

// DeleteWorld removes one world directory
func (h *GameFilesHandler) DeleteWorld(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	if err := gamefiles.DeleteWorld(worldPath(inst, c.Param("world"))); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "World deleted"})
}

// DuplicateWorld copies one world directory under a new name
func (h *GameFilesHandler) DuplicateWorld(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	var req struct {
		NewName string `json:"new_name" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dest, err := gamefiles.DuplicateWorld(worldPath(inst, c.Param("world")), filepath.Base(req.NewName))
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "World duplicated", "path": dest})
}
