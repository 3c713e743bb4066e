package chats

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-studio/internal/resume"
	"resume-studio/internal/shared/server/middleware"
	"resume-studio/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes. sendMiddleware runs before POST only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, sendMiddleware ...gin.HandlerFunc) {
	rg.GET("/resumes/:resumeId/chat", h.history)
	send := append(append([]gin.HandlerFunc{}, sendMiddleware...), h.send)
	rg.POST("/resumes/:resumeId/chat", send...)
}

type sendRequest struct {
	Message string `json:"message"`
}

func (h *Handler) history(c *gin.Context) {
	limit := MaxHistory
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	turns, err := h.Svc.History(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("resumeId"), limit)
	if err != nil {
		writeError(c, err, "Failed to fetch chat history")
		return
	}
	respond.OK(c, gin.H{"messages": turns})
}

func (h *Handler) send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Message content is required.", nil)
		return
	}
	ex, err := h.Svc.Send(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("resumeId"), req.Message)
	if err != nil {
		writeError(c, err, "The assistant encountered a problem. Please try again.")
		return
	}
	respond.OK(c, ex)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Message content is required.", nil)
	case errors.Is(err, ErrSendInProgress):
		respond.Error(c, http.StatusConflict, "send_in_progress", "A reply is already being generated for this resume.", nil)
	case errors.Is(err, ErrAssistantUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "assistant_unavailable", "The assistant encountered a problem. Please try again.", nil)
	default:
		resume.WriteError(c, err, fallback)
	}
}
