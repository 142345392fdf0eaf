package domain

import (
	"strings"
	"time"
)

// Category groups services for filtering and display.
type Category struct {
	ID   string
	Name string
}

// Provider owns services and is the recipient of match notifications.
type Provider struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// HasContact reports whether the provider can be reached by a notification.
func (p *Provider) HasContact() bool {
	return p != nil && (strings.TrimSpace(p.Email) != "" || strings.TrimSpace(p.Phone) != "")
}

// Service is a provider's offering. It is the target of every similarity search.
type Service struct {
	ID          string
	ProviderID  string
	CategoryID  string
	Title       string
	Description string
	Tags        []string
	Price       float64
	Images      []string
	IsActive    bool
	Embeddings  EntityEmbeddings
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Denormalized joins filled by read queries.
	ProviderName string
	CategoryName string
}

// NewService creates a new active Service instance
func NewService(providerID, categoryID, title, description string, tags []string, price float64) *Service {
	now := time.Now()
	return &Service{
		ProviderID:  providerID,
		CategoryID:  categoryID,
		Title:       title,
		Description: description,
		Tags:        tags,
		Price:       price,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Text returns the fields that feed the service's vectors.
func (s *Service) Text() EmbeddableText {
	return EmbeddableText{Title: s.Title, Description: s.Description, Tags: s.Tags}
}

// Validate validates the service
func (s *Service) Validate() error {
	var errs ValidationErrors
	if s.ProviderID == "" {
		errs = append(errs, NewMissingFieldError("provider_id"))
	}
	if s.CategoryID == "" {
		errs = append(errs, NewMissingFieldError("category_id"))
	}
	if strings.TrimSpace(s.Title) == "" {
		errs = append(errs, NewMissingFieldError("title"))
	}
	if strings.TrimSpace(s.Description) == "" {
		errs = append(errs, NewMissingFieldError("description"))
	}
	if s.Price < 0 {
		errs = append(errs, NewOutOfRangeError("price", s.Price, 0, "unbounded"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ServicePatch carries the optional fields of a service update.
type ServicePatch struct {
	Title       *string
	Description *string
	Tags        []string
	TagsSet     bool
	Price       *float64
	Images      []string
	ImagesSet   bool
	IsActive    *bool
	CategoryID  *string
}

// Apply mutates s and reports whether the embedded text changed.
func (s *Service) Apply(p ServicePatch) (textChanged bool) {
	before := s.Text()
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.TagsSet {
		s.Tags = p.Tags
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.ImagesSet {
		s.Images = p.Images
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
	if p.CategoryID != nil {
		s.CategoryID = *p.CategoryID
	}
	s.UpdatedAt = time.Now()
	return before.Differs(s.Text())
}

// ServiceRequest is a customer's free-text description of needed work.
type ServiceRequest struct {
	ID          string
	CustomerID  string
	CategoryID  string
	Title       string
	Description string
	Tags        []string
	Budget      *float64
	Embeddings  EntityEmbeddings
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewServiceRequest creates a new ServiceRequest instance
func NewServiceRequest(customerID, categoryID, title, description string, tags []string, budget *float64) *ServiceRequest {
	now := time.Now()
	return &ServiceRequest{
		CustomerID:  customerID,
		CategoryID:  categoryID,
		Title:       title,
		Description: description,
		Tags:        tags,
		Budget:      budget,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Text returns the fields that feed the request's vectors.
func (r *ServiceRequest) Text() EmbeddableText {
	return EmbeddableText{Title: r.Title, Description: r.Description, Tags: r.Tags}
}

// Validate validates the service request
func (r *ServiceRequest) Validate() error {
	var errs ValidationErrors
	if r.CustomerID == "" {
		errs = append(errs, NewMissingFieldError("customer_id"))
	}
	if strings.TrimSpace(r.Description) == "" {
		errs = append(errs, NewMissingFieldError("description"))
	}
	if r.Budget != nil && *r.Budget < 0 {
		errs = append(errs, NewOutOfRangeError("budget", *r.Budget, 0, "unbounded"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
