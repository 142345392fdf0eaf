package handler

import (
	"service-hub/internal/dto"
	"service-hub/internal/middleware"
	"service-hub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes registers the catalog, search and request routes on api.
func SetupRoutes(api fiber.Router, services *ServiceHandler, requests *RequestHandler, authService service.AuthService) {
	vm := middleware.NewValidationMiddleware()
	protected := middleware.Protected(authService)

	serviceGroup := api.Group("/services")
	serviceGroup.Get("/search", vm.ValidateSearchQuery(), services.SearchServices)
	serviceGroup.Post("/", protected, middleware.RequireRole(dto.RoleProvider), vm.ValidateServiceCreate(), services.CreateService)
	serviceGroup.Get("/:id", vm.ValidateIDParams("id"), services.GetService)
	serviceGroup.Put("/:id", protected, middleware.RequireRole(dto.RoleProvider), vm.ValidateIDParams("id"), vm.ValidateServiceUpdate(), services.UpdateService)
	serviceGroup.Get("/:id/similar", vm.ValidateIDParams("id"), services.GetSimilarServices)
	serviceGroup.Get("/:id/requests/:requestId/match", protected, middleware.RequireRole(dto.RoleProvider),
		vm.ValidateIDParams("id", "requestId"), services.GetRequestMatch)

	requestGroup := api.Group("/requests", protected)
	requestGroup.Post("/", middleware.RequireRole(dto.RoleCustomer), vm.ValidateServiceRequestCreate(), requests.CreateRequest)
	requestGroup.Get("/:id", vm.ValidateIDParams("id"), requests.GetRequest)
	requestGroup.Get("/:id/matches", vm.ValidateIDParams("id"), requests.GetRequestMatches)
}
