package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypanel/hypanel/internal/instance"
	"github.com/hypanel/hypanel/internal/metrics"
)

// MetricsHandler serves per-instance resource samples and host metrics
type MetricsHandler struct {
	store        *instance.Store
	metricsStore *metrics.Store
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(store *instance.Store, metricsStore *metrics.Store) *MetricsHandler {
	return &MetricsHandler{store: store, metricsStore: metricsStore}
}

// Latest returns the most recent sample for one instance
func (h *MetricsHandler) Latest(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	sample, err := h.metricsStore.Latest(inst.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sample": sample})
}

// History returns samples for one instance, oldest first. The window is
// given in minutes and defaults to one hour.
func (h *MetricsHandler) History(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	minutes, err := strconv.Atoi(c.DefaultQuery("minutes", "60"))
	if err != nil || minutes <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minutes must be a positive integer"})
		return
	}

	since := time.Now().Add(-time.Duration(minutes) * time.Minute)
	samples, err := h.metricsStore.History(inst.ID, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"samples": samples})
}

// System returns host-wide CPU, memory and uptime figures
func (h *MetricsHandler) System(c *gin.Context) {
	sys, err := metrics.CollectSystem()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect system metrics"})
		return
	}

	c.JSON(http.StatusOK, sys)
}
