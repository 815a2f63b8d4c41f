package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskboard/internal/services"
)

type SubtaskHandler struct {
	db             *gorm.DB
	subtaskService services.SubtaskService
}

func NewSubtaskHandler(db *gorm.DB, subtaskService services.SubtaskService) *SubtaskHandler {
	return &SubtaskHandler{db: db, subtaskService: subtaskService}
}

func (h *SubtaskHandler) AddSubtask(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subtask, err := h.subtaskService.AddSubtask(h.db, actor, taskID, req.Title)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subtask.ToResponse())
}

func (h *SubtaskHandler) UpdateSubtask(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var update services.SubtaskUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subtask, err := h.subtaskService.UpdateSubtask(h.db, actor, id, update)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subtask.ToResponse())
}

// ToggleSubtask flips the completed flag.
func (h *SubtaskHandler) ToggleSubtask(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	subtask, err := h.subtaskService.ToggleSubtask(h.db, actor, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subtask.ToResponse())
}

func (h *SubtaskHandler) DeleteSubtask(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.subtaskService.DeleteSubtask(h.db, actor, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
