package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/internal/models"
	"taskboard/internal/services"
)

// currentUser resolves the authenticated user placed in the context by the
// auth middleware. It writes the error response itself and returns nil when
// the caller cannot be resolved.
func currentUser(c *gin.Context, db *gorm.DB) *models.User {
	raw, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil
	}

	id := uuid.FromStringOrNil(raw.(string))
	if id == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil
	}

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
		return nil
	}
	return &user
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id := uuid.FromStringOrNil(c.Param(name))
	if id == uuid.Nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service-layer failures onto HTTP statuses.
func handleServiceError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, services.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, services.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
	}
}
