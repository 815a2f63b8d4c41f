package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/internal/models"
	"taskboard/internal/services"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}

	var input services.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.CreateTask(h.db, actor, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task.ToResponse())
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTaskByID(h.db, actor, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task.ToResponse())
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}

	filter := services.TaskFilter{
		Status:   c.Query("status"),
		Overdue:  c.Query("overdue") == "true",
		DueToday: c.Query("due_today") == "true",
	}

	tasks, err := h.taskService.ListTasks(h.db, actor, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]models.TaskResponse, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, tasks[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": responses,
		"total": len(responses),
	})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.UpdateTask(h.db, actor, id, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task.ToResponse())
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(h.db, actor, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// CompleteTask marks a visible task done regardless of its current
// workflow position.
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	h.transition(c, h.taskService.CompleteTask)
}

// MarkDone advances a task one step along todo -> in_progress -> review.
func (h *TaskHandler) MarkDone(c *gin.Context) {
	h.transition(c, h.taskService.MarkDone)
}

// ApproveTask moves a reviewed task to done.
func (h *TaskHandler) ApproveTask(c *gin.Context) {
	h.transition(c, h.taskService.ApproveTask)
}

func (h *TaskHandler) transition(c *gin.Context, op func(*gorm.DB, *models.User, uuid.UUID) (*models.Task, error)) {
	actor := currentUser(c, h.db)
	if actor == nil {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := op(h.db, actor, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task.ToResponse())
}
