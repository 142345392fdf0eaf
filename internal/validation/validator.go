package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"service-hub/internal/domain"
	"service-hub/internal/dto"
	"service-hub/internal/util"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxQueryLength       = 500
	maxTags              = 20
	maxTagLength         = 50
	maxImages            = 10
)

var validReference = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEntityID validates an id generated by this service.
func (v *Validator) ValidateEntityID(field, id string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError(field))
	} else if !util.IsULID(id) {
		errors = append(errors, domain.NewInvalidFormatError(field, id))
	}
	return errors
}

// ValidateServiceCreateRequest validates the create service body
func (v *Validator) ValidateServiceCreateRequest(req *dto.ServiceCreateRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	errors = append(errors, validateReference("category_id", req.CategoryID, true)...)
	errors = append(errors, validateText("title", req.Title, maxTitleLength, true)...)
	errors = append(errors, validateText("description", req.Description, maxDescriptionLength, true)...)
	errors = append(errors, validateTags(req.Tags)...)
	if req.Price < 0 {
		errors = append(errors, domain.NewOutOfRangeError("price", req.Price, 0, "unbounded"))
	}
	if len(req.Images) > maxImages {
		errors = append(errors, domain.NewOutOfRangeError("images", len(req.Images), 0, maxImages))
	}
	return errors
}

// ValidateServiceUpdateRequest validates only the fields present in the patch
func (v *Validator) ValidateServiceUpdateRequest(req *dto.ServiceUpdateRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if req.CategoryID != nil {
		errors = append(errors, validateReference("category_id", *req.CategoryID, true)...)
	}
	if req.Title != nil {
		errors = append(errors, validateText("title", *req.Title, maxTitleLength, true)...)
	}
	if req.Description != nil {
		errors = append(errors, validateText("description", *req.Description, maxDescriptionLength, true)...)
	}
	if req.Tags != nil {
		errors = append(errors, validateTags(*req.Tags)...)
	}
	if req.Price != nil && *req.Price < 0 {
		errors = append(errors, domain.NewOutOfRangeError("price", *req.Price, 0, "unbounded"))
	}
	if req.Images != nil && len(*req.Images) > maxImages {
		errors = append(errors, domain.NewOutOfRangeError("images", len(*req.Images), 0, maxImages))
	}
	return errors
}

// ValidateServiceRequestCreateRequest validates the create request body
func (v *Validator) ValidateServiceRequestCreateRequest(req *dto.ServiceRequestCreateRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	errors = append(errors, validateReference("category_id", req.CategoryID, false)...)
	errors = append(errors, validateText("title", req.Title, maxTitleLength, false)...)
	errors = append(errors, validateText("description", req.Description, maxDescriptionLength, true)...)
	errors = append(errors, validateTags(req.Tags)...)
	if req.Budget != nil && *req.Budget < 0 {
		errors = append(errors, domain.NewOutOfRangeError("budget", *req.Budget, 0, "unbounded"))
	}
	return errors
}

// ValidateSearchQuery validates the free-text search parameters that the
// search engine does not check itself.
func (v *Validator) ValidateSearchQuery(req *dto.SearchServicesRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	errors = append(errors, validateText("q", req.Query, maxQueryLength, true)...)
	errors = append(errors, validateReference("category_id", req.CategoryID, false)...)
	errors = append(errors, validateReference("provider_id", req.ProviderID, false)...)
	if req.Limit < 0 {
		errors = append(errors, domain.NewOutOfRangeError("limit", req.Limit, 0, "unbounded"))
	}
	return errors
}

func validateText(field, value string, maxLen int, required bool) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(value) == "" {
		if required {
			errors = append(errors, domain.NewMissingFieldError(field))
		}
		return errors
	}
	if n := utf8.RuneCountInString(value); n > maxLen {
		errors = append(errors, domain.NewOutOfRangeError(field, n, 1, maxLen))
	}
	return errors
}

func validateReference(field, value string, required bool) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if value == "" {
		if required {
			errors = append(errors, domain.NewMissingFieldError(field))
		}
		return errors
	}
	if !validReference.MatchString(value) {
		errors = append(errors, domain.NewInvalidFormatError(field, value))
	}
	return errors
}

func validateTags(tags []string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if len(tags) > maxTags {
		errors = append(errors, domain.NewOutOfRangeError("tags", len(tags), 0, maxTags))
	}
	for _, tag := range tags {
		if n := utf8.RuneCountInString(tag); n > maxTagLength {
			errors = append(errors, domain.NewOutOfRangeError("tags", n, 0, maxTagLength))
			break
		}
	}
	return errors
}
