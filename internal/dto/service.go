package dto

import "time"

// ServiceCreateRequest represents the body for creating a service
// @Description Request body for creating a service
type ServiceCreateRequest struct {
	CategoryID  string   `json:"category_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
}

// ServiceUpdateRequest represents a partial update. Nil fields are left unchanged.
// @Description Request body for updating a service
type ServiceUpdateRequest struct {
	CategoryID  *string   `json:"category_id,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

// ServiceResponse represents a service in the API response
// @Description Service information
type ServiceResponse struct {
	ID           string    `json:"id"`
	ProviderID   string    `json:"provider_id"`
	ProviderName string    `json:"provider_name,omitempty"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	Price        float64   `json:"price"`
	Images       []string  `json:"images"`
	IsActive     bool      `json:"is_active"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ServiceMatchResponse is the consumer view of a ranked service.
// @Description Ranked service with similarity score
type ServiceMatchResponse struct {
	Service         ServiceResponse `json:"service"`
	Similarity      float64         `json:"similarity"`
	MatchPercentage int             `json:"match_percentage"`
}

// ServiceMatchListResponse is one page of ranked services.
// @Description Paginated list of ranked services
type ServiceMatchListResponse struct {
	Matches []ServiceMatchResponse `json:"matches"`
	Total   int                    `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// SearchServicesRequest holds the query string of a free-text search.
type SearchServicesRequest struct {
	Query      string   `query:"q"`
	CategoryID string   `query:"category_id"`
	ProviderID string   `query:"provider_id"`
	MinPrice   *float64 `query:"min_price"`
	MaxPrice   *float64 `query:"max_price"`
	Threshold  *float64 `query:"threshold"`
	Limit      int      `query:"limit"`
	Offset     int      `query:"offset"`
}
