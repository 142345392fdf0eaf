package middleware

import (
	"service-hub/internal/domain"
	"service-hub/internal/dto"
	"service-hub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Locals keys for validated request values.
const (
	ValidatedBodyKey   = "validated_body"
	ValidatedSearchKey = "validated_search"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateIDParams checks that each named path parameter is a well-formed id.
func (vm *ValidationMiddleware) ValidateIDParams(params ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var errs domain.ValidationErrors
		for _, p := range params {
			errs = append(errs, vm.validator.ValidateEntityID(p, c.Params(p))...)
		}
		if len(errs) > 0 {
			return errs // This will be handled by ErrorHandler middleware
		}
		return c.Next()
	}
}

// ValidateSearchQuery parses and validates the search query string.
func (vm *ValidationMiddleware) ValidateSearchQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(dto.SearchServicesRequest)
		if err := c.QueryParser(req); err != nil {
			return domain.NewInvalidInputError("Malformed query parameters")
		}
		if errs := vm.validator.ValidateSearchQuery(req); len(errs) > 0 {
			return errs
		}
		c.Locals(ValidatedSearchKey, req)
		return c.Next()
	}
}

// ValidateServiceCreate parses and validates the create service body.
func (vm *ValidationMiddleware) ValidateServiceCreate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(dto.ServiceCreateRequest)
		if err := c.BodyParser(req); err != nil {
			return domain.NewInvalidInputError("Malformed request body")
		}
		if errs := vm.validator.ValidateServiceCreateRequest(req); len(errs) > 0 {
			return errs
		}
		c.Locals(ValidatedBodyKey, req)
		return c.Next()
	}
}

// ValidateServiceUpdate parses and validates the update service body.
func (vm *ValidationMiddleware) ValidateServiceUpdate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(dto.ServiceUpdateRequest)
		if err := c.BodyParser(req); err != nil {
			return domain.NewInvalidInputError("Malformed request body")
		}
		if errs := vm.validator.ValidateServiceUpdateRequest(req); len(errs) > 0 {
			return errs
		}
		c.Locals(ValidatedBodyKey, req)
		return c.Next()
	}
}

// ValidateServiceRequestCreate parses and validates the create request body.
func (vm *ValidationMiddleware) ValidateServiceRequestCreate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(dto.ServiceRequestCreateRequest)
		if err := c.BodyParser(req); err != nil {
			return domain.NewInvalidInputError("Malformed request body")
		}
		if errs := vm.validator.ValidateServiceRequestCreateRequest(req); len(errs) > 0 {
			return errs
		}
		c.Locals(ValidatedBodyKey, req)
		return c.Next()
	}
}
