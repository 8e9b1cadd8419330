package handlers

import (
	"net/http"

	"github.com/eventra-app/workspace-backend/internal/api/middleware"
	"github.com/eventra-app/workspace-backend/internal/api/response"
	"github.com/eventra-app/workspace-backend/internal/models"
	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Task Handler
// ============================================

type TaskHandler struct {
	taskService service.TaskService
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("workspaceId")

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), workspaceID, userID,
		req.Title, req.Description, req.Category, req.Priority, req.DueDate, req.AssigneeID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, toTaskResponse(task, nil))
}

func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("workspaceId")

	tasks, err := h.taskService.List(c.Request.Context(), workspaceID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	resp := make([]models.TaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = toTaskResponse(t, nil)
	}
	response.OK(c, resp)
}

func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	taskID := c.Param("taskId")

	task, deps, err := h.taskService.Get(c.Request.Context(), taskID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toTaskResponse(task, deps))
}

func (h *TaskHandler) Summary(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("workspaceId")

	summary, err := h.taskService.Summary(c.Request.Context(), workspaceID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, models.TaskSummaryResponse{
		Total:    summary.Total,
		ByStatus: summary.ByStatus,
	})
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	taskID := c.Param("taskId")

	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), taskID, userID,
		req.Title, req.Description, req.Category, req.Priority, req.DueDate)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toTaskResponse(task, nil))
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	taskID := c.Param("taskId")

	var req models.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	task, err := h.taskService.UpdateStatus(c.Request.Context(), taskID, userID, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toTaskResponse(task, nil))
}

func (h *TaskHandler) Assign(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	taskID := c.Param("taskId")

	var req models.AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	task, err := h.taskService.Assign(c.Request.Context(), taskID, userID, req.AssigneeID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toTaskResponse(task, nil))
}

func (h *TaskHandler) AddDependency(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	taskID := c.Param("taskId")

	var req models.AddDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	dep, err := h.taskService.AddDependency(c.Request.Context(), taskID, userID, req.DependsOnTaskID, req.Type)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, toDependencyResponse(dep))
}

func (h *TaskHandler) RemoveDependency(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	taskID := c.Param("taskId")
	dependsOnTaskID := c.Param("dependsOnTaskId")

	if err := h.taskService.RemoveDependency(c.Request.Context(), taskID, userID, dependsOnTaskID); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"removed": true})
}
