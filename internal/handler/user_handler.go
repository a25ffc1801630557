package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/service"
)

type UserHandler struct {
	svc service.IdentityService
}

func NewUserHandler(svc service.IdentityService) *UserHandler {
	return &UserHandler{svc: svc}
}

type UpdateProfileRequest struct {
	Location    string `json:"location" validate:"max=120"`
	Bio         string `json:"bio" validate:"max=2000"`
	PaymentInfo string `json:"paymentInfo" validate:"max=500"`
}

// Me returns the caller's own profile, payment instructions included.
func (h *UserHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, actor(c))
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), actor(c).ID, model.ProfileUpdate{
		Location:    req.Location,
		Bio:         req.Bio,
		PaymentInfo: req.PaymentInfo,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) GetPublic(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	p, err := h.svc.PublicProfile(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
