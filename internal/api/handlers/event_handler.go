package handlers

import (
	"net/http"

	"github.com/eventra-app/workspace-backend/internal/api/response"
	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/gin-gonic/gin"
)

// ============================================
// Event Handler
// ============================================

type EventHandler struct {
	events repository.EventRepository
}

func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if event == nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "event not found")
		return
	}

	response.OK(c, toEventResponse(event))
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.events.FindAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	resp := make([]interface{}, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	response.OK(c, resp)
}
