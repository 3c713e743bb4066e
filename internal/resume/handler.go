package resume

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

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

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes", h.list)
	rg.POST("/resumes", h.create)
	rg.GET("/resumes/:resumeId", h.get)
	rg.PATCH("/resumes/:resumeId", h.updateTitle)
	rg.PUT("/resumes/:resumeId/content", h.saveContent)
	rg.DELETE("/resumes/:resumeId", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	docs, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		WriteError(c, err, "failed to list resumes")
		return
	}
	resp := make([]SummaryResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toSummary(doc))
	}
	respond.OK(c, gin.H{"resumes": resp})
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	doc, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), req.Title)
	if err != nil {
		WriteError(c, err, "failed to create resume")
		return
	}
	respond.JSON(c, http.StatusCreated, ToResponse(doc))
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("resumeId"))
	if err != nil {
		WriteError(c, err, "failed to fetch resume")
		return
	}
	respond.OK(c, ToResponse(doc))
}

func (h *Handler) updateTitle(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "title is required", nil)
		return
	}
	doc, err := h.Svc.UpdateTitle(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("resumeId"), *req.Title)
	if err != nil {
		WriteError(c, err, "failed to rename resume")
		return
	}
	respond.OK(c, ToResponse(doc))
}

func (h *Handler) saveContent(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "content is required", nil)
		return
	}
	updatedAt, err := h.Svc.SaveContent(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("resumeId"), *req.Content)
	if err != nil {
		WriteError(c, err, "failed to save resume")
		return
	}
	respond.OK(c, SaveResponse{UpdatedAt: updatedAt})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("resumeId")); err != nil {
		WriteError(c, err, "failed to delete resume")
		return
	}
	c.Status(http.StatusNoContent)
}

// WriteError maps resume sentinels to HTTP errors. Anything else is a 500
// carrying fallback as its message.
func WriteError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Resume not found.", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "You do not have access to this resume.", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Resume identifier is missing.", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
