package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairchancejobs/jobboard-be/internal/api/dto"
)

// ChatHandler serves the seeker search assistant.
type ChatHandler struct {
	deps *Dependencies
}

// NewChatHandler creates a chat handler.
func NewChatHandler(deps *Dependencies) *ChatHandler {
	return &ChatHandler{deps: deps}
}

// Chat handles POST /api/v1/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	if h.deps.Agent == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat agent is not configured"})
		return
	}

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.deps.Agent.Chat(c.Request.Context(), req.Message)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{
		Reply: reply.Text,
		Jobs:  reply.Jobs,
	})
}
