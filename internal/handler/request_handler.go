package handler

import (
	"service-hub/internal/domain"
	"service-hub/internal/dto"
	"service-hub/internal/middleware"
	"service-hub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RequestHandler handles service request HTTP requests
type RequestHandler struct {
	catalog service.CatalogService
	search  service.SearchService
}

// NewRequestHandler creates a new RequestHandler instance
func NewRequestHandler(catalog service.CatalogService, search service.SearchService) *RequestHandler {
	return &RequestHandler{
		catalog: catalog,
		search:  search,
	}
}

// CreateRequest godoc
// @Summary Create a service request
// @Description Stores the request and notifies providers of highly similar services in the background.
// @Tags requests
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.ServiceRequestCreateRequest true "Service request"
// @Success 201 {object} dto.ServiceRequestResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /requests [post]
func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	req, ok := c.Locals(middleware.ValidatedBodyKey).(*dto.ServiceRequestCreateRequest)
	if !ok {
		req = new(dto.ServiceRequestCreateRequest)
		if err := c.BodyParser(req); err != nil {
			return domain.NewInvalidInputError("Malformed request body")
		}
	}

	resp, err := h.catalog.CreateServiceRequest(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetRequest godoc
// @Summary Get a service request
// @Tags requests
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Service request ID"
// @Success 200 {object} dto.ServiceRequestResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /requests/{id} [get]
func (h *RequestHandler) GetRequest(c *fiber.Ctx) error {
	resp, err := h.catalog.GetServiceRequest(c.UserContext(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetRequestMatches godoc
// @Summary Services matching my request
// @Description Ranks active services against the request, regenerating its vectors if they are missing.
// @Tags requests
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Service request ID"
// @Param limit query int false "Number of results (default 10)"
// @Success 200 {object} dto.ServiceMatchListResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /requests/{id}/matches [get]
func (h *RequestHandler) GetRequestMatches(c *fiber.Ctx) error {
	resp, err := h.search.FindMatchingServices(c.UserContext(), c.Params("id"), middleware.UserID(c), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
