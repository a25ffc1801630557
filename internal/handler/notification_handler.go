package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-backend/internal/service"
)

type NotificationHandler struct {
	ledger service.LedgerService
}

func NewNotificationHandler(ledger service.LedgerService) *NotificationHandler {
	return &NotificationHandler{ledger: ledger}
}

// Unread returns the badge count across all of the caller's conversations.
func (h *NotificationHandler) Unread(c echo.Context) error {
	n, err := h.ledger.UnreadCount(c.Request().Context(), actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"unread": n})
}
