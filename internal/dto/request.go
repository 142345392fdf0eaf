package dto

import "time"

// ServiceRequestCreateRequest represents the body for creating a service request
// @Description Request body for describing needed work
type ServiceRequestCreateRequest struct {
	CategoryID  string   `json:"category_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Budget      *float64 `json:"budget,omitempty"`
}

// ServiceRequestResponse represents a service request in the API response
// @Description Service request information
type ServiceRequestResponse struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	CategoryID   string    `json:"category_id,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	Budget       *float64  `json:"budget,omitempty"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RequestMatchResponse is the provider view of how well a request fits one of
// their services.
// @Description Provider-facing match of a request against a service
type RequestMatchResponse struct {
	RequestID       string   `json:"request_id"`
	ServiceID       string   `json:"service_id"`
	RequestTitle    string   `json:"request_title"`
	RequestSummary  string   `json:"request_summary"`
	Tags            []string `json:"tags"`
	Budget          *float64 `json:"budget,omitempty"`
	Similarity      float64  `json:"similarity"`
	MatchPercentage int      `json:"match_percentage"`
}
