package export

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-studio/internal/resume"
	"resume-studio/internal/shared/server/middleware"
	"resume-studio/internal/shared/server/respond"
	"resume-studio/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes/:resumeId/export", h.export)
}

func (h *Handler) export(c *gin.Context) {
	res, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("resumeId"))
	if err != nil {
		if errors.Is(err, ErrPDFDependencyMissing) {
			respond.Error(c, http.StatusServiceUnavailable, "pdf_unavailable", "PDF export is not available right now.", nil)
			return
		}
		telemetry.Error("resume.export_failed", map[string]any{"resume_id": c.Param("resumeId"), "err": err})
		resume.WriteError(c, err, "Failed to export resume.")
		return
	}
	respond.Attachment(c, res.FileName, "application/pdf", res.Data)
}
