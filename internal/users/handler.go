package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

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
	rg.GET("/me", h.me)
}

type meResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email,omitempty"`
	FullName   string `json:"fullName,omitempty"`
	PictureURL string `json:"pictureUrl,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Guest      bool   `json:"guest"`
}

// me describes the caller. Signed-in users without a stored profile fall
// back to the token claims.
func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if middleware.IsGuest(c) {
		respond.OK(c, meResponse{ID: userID, Guest: true})
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	switch {
	case err == nil:
		respond.OK(c, meResponse{
			ID:         user.ID,
			Email:      user.Email,
			FullName:   user.FullName,
			PictureURL: user.PictureURL,
			Provider:   Provider(user.ID),
		})
	case errors.Is(err, ErrNotFound):
		respond.OK(c, meResponse{
			ID:         userID,
			Email:      middleware.UserEmailFromContext(c),
			FullName:   middleware.UserNameFromContext(c),
			PictureURL: middleware.UserPictureFromContext(c),
			Provider:   Provider(userID),
		})
	default:
		telemetry.Error("users.me.failed", map[string]any{"user_id": userID, "err": err})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
	}
}
