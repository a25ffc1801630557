package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-backend/internal/middleware"
	"github.com/shinyyama/marketplace-backend/internal/service"
)

type ConversationHandler struct {
	convs       service.ConversationService
	ledger      service.LedgerService
	negotiation service.NegotiationService
}

func NewConversationHandler(convs service.ConversationService, ledger service.LedgerService, negotiation service.NegotiationService) *ConversationHandler {
	return &ConversationHandler{convs: convs, ledger: ledger, negotiation: negotiation}
}

type MessageRequest struct {
	Content string `json:"content" form:"content"`
}

type OfferRequest struct {
	Amount string `json:"amount" form:"amount"`
}

// Start finds or creates the caller's conversation about a listing.
func (h *ConversationHandler) Start(c echo.Context) error {
	listingID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	cv, err := h.convs.Start(c.Request().Context(), listingID, actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cv)
}

func (h *ConversationHandler) Inbox(c echo.Context) error {
	inbox, err := h.convs.ListForUser(c.Request().Context(), actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inbox)
}

func (h *ConversationHandler) View(c echo.Context) error {
	view, err := h.convs.View(c.Request().Context(), middleware.CurrentParticipant(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Append posts a message. Blank content is accepted and ignored.
func (h *ConversationHandler) Append(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	p := middleware.CurrentParticipant(c)
	msg, appended, err := h.ledger.Append(c.Request().Context(), p.Conversation.ID, p.UserID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	if !appended {
		return c.JSON(http.StatusOK, map[string]bool{"appended": false})
	}
	return c.JSON(http.StatusCreated, msg)
}

// Poll returns messages after the ?after= message id and advances the
// caller's read marker when any are returned.
func (h *ConversationHandler) Poll(c echo.Context) error {
	var after uint64
	if raw := c.QueryParam("after"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest(c, "invalid after")
		}
		after = v
	}
	res, err := h.ledger.Poll(c.Request().Context(), middleware.CurrentParticipant(c), after)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ConversationHandler) Propose(c echo.Context) error {
	var req OfferRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	offer, proposed, err := h.negotiation.Propose(c.Request().Context(), middleware.CurrentParticipant(c), req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	if !proposed {
		return c.JSON(http.StatusOK, map[string]bool{"proposed": false})
	}
	return c.JSON(http.StatusCreated, offer)
}

func (h *ConversationHandler) Respond(c echo.Context) error {
	offerID, err := h.offerInConversation(c)
	if err != nil {
		return respondError(c, err)
	}
	accept, _ := strconv.ParseBool(c.QueryParam("accept"))
	updated, err := h.negotiation.Respond(c.Request().Context(), offerID, middleware.CurrentParticipant(c).UserID, accept)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"updated": updated})
}

func (h *ConversationHandler) Cancel(c echo.Context) error {
	offerID, err := h.offerInConversation(c)
	if err != nil {
		return respondError(c, err)
	}
	updated, err := h.negotiation.Cancel(c.Request().Context(), offerID, middleware.CurrentParticipant(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"updated": updated})
}

// offerInConversation resolves :offerId and rejects offers from other
// conversations, so offer routes cannot reach across threads.
func (h *ConversationHandler) offerInConversation(c echo.Context) (uint64, error) {
	offerID, ok := parseID(c, "offerId")
	if !ok {
		return 0, service.ErrNotFound
	}
	offer, err := h.negotiation.Get(c.Request().Context(), offerID)
	if err != nil {
		return 0, err
	}
	if offer.ConversationID != middleware.CurrentParticipant(c).Conversation.ID {
		return 0, service.ErrNotFound
	}
	return offerID, nil
}
