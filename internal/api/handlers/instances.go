package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypanel/hypanel/internal/downloader"
	"github.com/hypanel/hypanel/internal/instance"
	"github.com/hypanel/hypanel/internal/supervisor"
)

// InstanceHandler handles instance CRUD and process lifecycle requests
type InstanceHandler struct {
	store *instance.Store
	sv    *supervisor.Supervisor
}

// NewInstanceHandler creates a new instance handler
func NewInstanceHandler(store *instance.Store, sv *supervisor.Supervisor) *InstanceHandler {
	return &InstanceHandler{store: store, sv: sv}
}

// instanceView is an instance row merged with its live process state.
type instanceView struct {
	*instance.Instance
	Status    string `json:"status"`
	PID       int    `json:"pid,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
}

func (h *InstanceHandler) view(inst *instance.Instance) instanceView {
	status := h.sv.Status(inst.ID)
	return instanceView{
		Instance:  inst,
		Status:    string(status.Status),
		PID:       status.PID,
		StartedAt: status.StartedAt,
	}
}

// List returns all instances
func (h *InstanceHandler) List(c *gin.Context) {
	instances, err := h.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	views := make([]instanceView, 0, len(instances))
	for _, inst := range instances {
		views = append(views, h.view(inst))
	}

	c.JSON(http.StatusOK, gin.H{"instances": views})
}

// Get returns one instance
func (h *InstanceHandler) Get(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	c.JSON(http.StatusOK, h.view(inst))
}

// Create registers a new instance
func (h *InstanceHandler) Create(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,min=1,max=100"`
		Path     string `json:"path" binding:"required"`
		JavaPath string `json:"java_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if existing, err := h.store.GetByPath(req.Path); err == nil && existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "An instance already uses this path"})
		return
	}

	inst, err := h.store.Create(instance.CreateInput{
		Name:     req.Name,
		Path:     req.Path,
		JavaPath: req.JavaPath,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create instance"})
		return
	}

	c.JSON(http.StatusCreated, h.view(inst))
}

// Update modifies instance settings
func (h *InstanceHandler) Update(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	var req struct {
		Name       *string `json:"name"`
		JavaPath   *string `json:"java_path"`
		JVMArgs    *string `json:"jvm_args"`
		ServerArgs *string `json:"server_args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.store.Update(inst.ID, instance.UpdateInput{
		Name:       req.Name,
		JavaPath:   req.JavaPath,
		JVMArgs:    req.JVMArgs,
		ServerArgs: req.ServerArgs,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update instance"})
		return
	}

	updated, err := h.store.Get(inst.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, h.view(updated))
}

// Delete removes an instance record. Files on disk are left untouched.
func (h *InstanceHandler) Delete(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	if h.sv.Registry().Contains(inst.ID) {
		c.JSON(http.StatusConflict, gin.H{"error": "Stop the server before deleting the instance"})
		return
	}

	if err := h.store.Delete(inst.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete instance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Instance deleted"})
}

// Start launches the instance's server process
func (h *InstanceHandler) Start(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	pid, err := h.sv.Start(supervisor.LaunchSpec{
		InstanceID:   inst.ID,
		InstancePath: inst.Path,
		JavaPath:     inst.JavaPath,
		JVMArgs:      inst.JVMArgs,
		ServerArgs:   inst.ServerArgs,
	})
	if err != nil {
		var missing *supervisor.ArtifactMissingError
		switch {
		case errors.Is(err, supervisor.ErrAlreadyRunning):
			c.JSON(http.StatusConflict, gin.H{"error": "Server is already running"})
		case errors.As(err, &missing):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": missing.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start server: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Server starting", "pid": pid})
}

// Stop terminates the instance's server process
func (h *InstanceHandler) Stop(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	if err := h.sv.Stop(inst.ID); err != nil {
		if errors.Is(err, supervisor.ErrNotRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "Server is not running"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to stop server"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Server stopped"})
}

// Command sends a console command to the instance's stdin
func (h *InstanceHandler) Command(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	var req struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.sv.SendCommand(inst.ID, req.Command) {
		c.JSON(http.StatusConflict, gin.H{"error": "Server is not running"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Command sent"})
}

// Status reports one instance's live process state
func (h *InstanceHandler) Status(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	c.JSON(http.StatusOK, h.sv.Status(inst.ID))
}

// StatusAll reports the state of every running instance
func (h *InstanceHandler) StatusAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": h.sv.StatusAll()})
}

// Files reports whether the instance's server artifacts are installed
func (h *InstanceHandler) Files(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	c.JSON(http.StatusOK, downloader.CheckServerFiles(inst.Path))
}
