package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edudyne/scheduler/internal/models"
	appErrors "github.com/edudyne/scheduler/pkg/errors"
	"github.com/edudyne/scheduler/pkg/response"
)

type authService interface {
	Login(req models.AdminLoginRequest) (*models.AdminLoginResponse, error)
}

// AuthHandler exposes the admin login endpoint used to obtain a token
// for the save/battle routes.
type AuthHandler struct {
	service authService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Exchange the admin password for an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.AdminLoginRequest true "Admin login payload"
// @Success 200 {object} response.Envelope
// @Router /auth/admin/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	resp, err := h.service.Login(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
