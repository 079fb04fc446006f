package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypanel/hypanel/internal/instance"
)

// requireInstance resolves the :id path parameter to a stored instance.
// On failure it writes the error response and returns nil.
func requireInstance(c *gin.Context, store *instance.Store) *instance.Instance {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Instance ID is required"})
		return nil
	}

	inst, err := store.Get(id)
	if errors.Is(err, instance.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Instance not found"})
		return nil
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil
	}

	return inst
}
