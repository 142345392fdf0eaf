package handler

import (
	"service-hub/internal/domain"
	"service-hub/internal/dto"
	"service-hub/internal/middleware"
	"service-hub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ServiceHandler handles service catalog and search HTTP requests
type ServiceHandler struct {
	catalog service.CatalogService
	search  service.SearchService
}

// NewServiceHandler creates a new ServiceHandler instance
func NewServiceHandler(catalog service.CatalogService, search service.SearchService) *ServiceHandler {
	return &ServiceHandler{
		catalog: catalog,
		search:  search,
	}
}

// SearchServices godoc
// @Summary Semantic service search
// @Description Ranks active services by similarity to free text. Filters compose with AND.
// @Tags services
// @Produce json
// @Param q query string true "Free-text query"
// @Param category_id query string false "Category filter"
// @Param provider_id query string false "Provider filter"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param threshold query number false "Minimum similarity (default 0.3)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.ServiceMatchListResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /services/search [get]
func (h *ServiceHandler) SearchServices(c *fiber.Ctx) error {
	req, ok := c.Locals(middleware.ValidatedSearchKey).(*dto.SearchServicesRequest)
	if !ok {
		req = new(dto.SearchServicesRequest)
		if err := c.QueryParser(req); err != nil {
			return domain.NewInvalidInputError("Malformed query parameters")
		}
	}

	resp, err := h.search.SearchServices(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetService godoc
// @Summary Get a service
// @Tags services
// @Produce json
// @Param id path string true "Service ID"
// @Success 200 {object} dto.ServiceResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /services/{id} [get]
func (h *ServiceHandler) GetService(c *fiber.Ctx) error {
	resp, err := h.catalog.GetService(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetSimilarServices godoc
// @Summary Services similar to a service
// @Description Ranks active services against the given one, which is never included.
// @Tags services
// @Produce json
// @Param id path string true "Service ID"
// @Param limit query int false "Number of results"
// @Success 200 {object} dto.ServiceMatchListResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /services/{id}/similar [get]
func (h *ServiceHandler) GetSimilarServices(c *fiber.Ctx) error {
	resp, err := h.search.FindSimilarServices(c.UserContext(), c.Params("id"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// CreateService godoc
// @Summary Create a service
// @Description Creates a service owned by the calling provider. Vectors are generated best-effort.
// @Tags services
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.ServiceCreateRequest true "Service"
// @Success 201 {object} dto.ServiceResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Router /services [post]
func (h *ServiceHandler) CreateService(c *fiber.Ctx) error {
	req, ok := c.Locals(middleware.ValidatedBodyKey).(*dto.ServiceCreateRequest)
	if !ok {
		req = new(dto.ServiceCreateRequest)
		if err := c.BodyParser(req); err != nil {
			return domain.NewInvalidInputError("Malformed request body")
		}
	}

	resp, err := h.catalog.CreateService(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdateService godoc
// @Summary Update a service
// @Description Partially updates a service. Changing title, description or tags regenerates its vectors.
// @Tags services
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Service ID"
// @Param request body dto.ServiceUpdateRequest true "Fields to change"
// @Success 200 {object} dto.ServiceResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /services/{id} [put]
func (h *ServiceHandler) UpdateService(c *fiber.Ctx) error {
	req, ok := c.Locals(middleware.ValidatedBodyKey).(*dto.ServiceUpdateRequest)
	if !ok {
		req = new(dto.ServiceUpdateRequest)
		if err := c.BodyParser(req); err != nil {
			return domain.NewInvalidInputError("Malformed request body")
		}
	}

	resp, err := h.catalog.UpdateService(c.UserContext(), c.Params("id"), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetRequestMatch godoc
// @Summary Score a request against one of my services
// @Tags services
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Service ID"
// @Param requestId path string true "Service request ID"
// @Success 200 {object} dto.RequestMatchResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /services/{id}/requests/{requestId}/match [get]
func (h *ServiceHandler) GetRequestMatch(c *fiber.Ctx) error {
	resp, err := h.search.ScoreRequestForService(c.UserContext(), c.Params("id"), c.Params("requestId"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
