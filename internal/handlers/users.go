package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskboard/internal/services"
)

type UserHandler struct {
	db          *gorm.DB
	userService services.UserService
}

func NewUserHandler(db *gorm.DB, userService services.UserService) *UserHandler {
	return &UserHandler{db: db, userService: userService}
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	if actor := currentUser(c, h.db); actor == nil {
		return
	}

	users, err := h.userService.ListUsers(h.db)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": len(users),
	})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}
	c.JSON(http.StatusOK, actor)
}

func (h *UserHandler) SetAccessLevel(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}
	targetID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	var req struct {
		AccessLevel *int `json:"access_level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.SetAccessLevel(h.db, actor, targetID, *req.AccessLevel)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
