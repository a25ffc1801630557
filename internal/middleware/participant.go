package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-backend/internal/service"
)

const participantKey = "participant"

// Authorizer is satisfied by service.ConversationService.
type Authorizer interface {
	Authorize(ctx context.Context, actorID, convID uint64) (*service.Participant, error)
}

// RequireParticipant guards /conversations/:id routes. Unknown conversations
// and non-participants both answer 404.
func RequireParticipant(convs Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := CurrentUser(c)
			if u == nil {
				return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "login required"))
			}
			convID, err := strconv.ParseUint(c.Param("id"), 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorBody("bad_request", "invalid conversation id"))
			}
			p, err := convs.Authorize(c.Request().Context(), u.ID, convID)
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					return c.JSON(http.StatusNotFound, errorBody("not_found", "conversation not found"))
				}
				return err
			}
			c.Set(participantKey, p)
			return next(c)
		}
	}
}

// CurrentParticipant returns the capability set by RequireParticipant.
func CurrentParticipant(c echo.Context) *service.Participant {
	p, _ := c.Get(participantKey).(*service.Participant)
	return p
}
