package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-backend/internal/middleware"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/service"
)

type ListingHandler struct {
	svc   service.CatalogService
	convs service.ConversationService
}

func NewListingHandler(svc service.CatalogService, convs service.ConversationService) *ListingHandler {
	return &ListingHandler{svc: svc, convs: convs}
}

// ListingRequest is accepted as JSON or as multipart form fields with an
// optional "image" file part.
type ListingRequest struct {
	Title       string `json:"title" form:"title" validate:"required,max=120"`
	Description string `json:"description" form:"description" validate:"required"`
	Price       string `json:"price" form:"price" validate:"required"`
	Category    string `json:"category" form:"category" validate:"required,max=64"`
	Condition   string `json:"condition" form:"condition" validate:"required,oneof=new like_new good fair poor"`
	Location    string `json:"location" form:"location" validate:"max=120"`
}

type PriceSuggestionRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Condition   string `json:"condition"`
}

type ListingDetailResponse struct {
	*service.ListingDetail
	ConversationID *uint64 `json:"conversationId,omitempty"`
}

func (r ListingRequest) input() service.ListingInput {
	return service.ListingInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Condition:   r.Condition,
		Location:    r.Location,
	}
}

func (h *ListingHandler) Search(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	res, err := h.svc.Search(c.Request().Context(), service.SearchParams{
		Query:     c.QueryParam("q"),
		Category:  c.QueryParam("category"),
		Condition: c.QueryParam("condition"),
		MinPrice:  c.QueryParam("min_price"),
		MaxPrice:  c.QueryParam("max_price"),
		Sort:      c.QueryParam("sort"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ListingHandler) Categories(c echo.Context) error {
	cats, err := h.svc.Categories(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"categories": cats})
}

func (h *ListingHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	ctx := c.Request().Context()
	detail, err := h.svc.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	resp := ListingDetailResponse{ListingDetail: detail}
	if u := middleware.CurrentUser(c); u != nil && u.ID != detail.Listing.SellerID {
		cv, err := h.convs.ExistingFor(ctx, id, u.ID)
		if err != nil {
			return respondError(c, err)
		}
		if cv != nil {
			resp.ConversationID = &cv.ID
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) Create(c echo.Context) error {
	req, img, err := h.bindListing(c)
	if err != nil {
		return respondError(c, err)
	}
	if img != nil {
		defer img.close()
	}
	l, err := h.svc.Create(c.Request().Context(), actor(c).ID, req.input(), img.upload())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *ListingHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	req, img, err := h.bindListing(c)
	if err != nil {
		return respondError(c, err)
	}
	if img != nil {
		defer img.close()
	}
	l, err := h.svc.Update(c.Request().Context(), id, actor(c).ID, req.input(), img.upload())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) MarkSold(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	if err := h.svc.MarkSold(c.Request().Context(), id, actor(c).ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ListingHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	if err := h.svc.Remove(c.Request().Context(), id, actor(c).ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ListingHandler) ListMine(c echo.Context) error {
	list, err := h.svc.BySeller(c.Request().Context(), actor(c).ID, true)
	if err != nil {
		return respondError(c, err)
	}
	if list == nil {
		list = []model.Listing{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"listings": list})
}

func (h *ListingHandler) SuggestPrice(c echo.Context) error {
	var req PriceSuggestionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	price, err := h.svc.SuggestPrice(c.Request().Context(), service.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"suggestedPrice": price.StringFixed(2)})
}

type formImage struct {
	file        multipart.File
	contentType string
}

func (f *formImage) upload() *service.ImageUpload {
	if f == nil {
		return nil
	}
	return &service.ImageUpload{ContentType: f.contentType, Body: f.file}
}

func (f *formImage) close() {
	f.file.Close()
}

func (h *ListingHandler) bindListing(c echo.Context) (*ListingRequest, *formImage, error) {
	var req ListingRequest
	if err := c.Bind(&req); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid request body", service.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return nil, nil, err
	}
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return &req, nil, nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return &req, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid image upload", service.ErrInvalidInput)
	}
	file, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid image upload", service.ErrInvalidInput)
	}
	return &req, &formImage{file: file, contentType: fh.Header.Get(echo.HeaderContentType)}, nil
}
