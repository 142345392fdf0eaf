package service

import (
	"service-hub/internal/domain"
	"service-hub/internal/dto"
)

func toServiceResponse(s *domain.Service) dto.ServiceResponse {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	images := s.Images
	if images == nil {
		images = []string{}
	}
	return dto.ServiceResponse{
		ID:           s.ID,
		ProviderID:   s.ProviderID,
		ProviderName: s.ProviderName,
		CategoryID:   s.CategoryID,
		CategoryName: s.CategoryName,
		Title:        s.Title,
		Description:  s.Description,
		Tags:         tags,
		Price:        s.Price,
		Images:       images,
		IsActive:     s.IsActive,
		HasEmbedding: s.Embeddings.HasCombined(),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func toServiceMatchList(page *domain.MatchPage, limit, offset int) *dto.ServiceMatchListResponse {
	resp := &dto.ServiceMatchListResponse{
		Matches: make([]dto.ServiceMatchResponse, 0, len(page.Matches)),
		Total:   page.Total,
		Limit:   limit,
		Offset:  offset,
	}
	for _, m := range page.Matches {
		resp.Matches = append(resp.Matches, dto.ServiceMatchResponse{
			Service:         toServiceResponse(m.Service),
			Similarity:      m.Similarity,
			MatchPercentage: m.Percentage(),
		})
	}
	return resp
}

func toServiceRequestResponse(r *domain.ServiceRequest) *dto.ServiceRequestResponse {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &dto.ServiceRequestResponse{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		CategoryID:   r.CategoryID,
		Title:        r.Title,
		Description:  r.Description,
		Tags:         tags,
		Budget:       r.Budget,
		HasEmbedding: r.Embeddings.HasCombined(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toRequestMatchResponse(m domain.RequestMatch) *dto.RequestMatchResponse {
	tags := m.Request.Tags
	if tags == nil {
		tags = []string{}
	}
	return &dto.RequestMatchResponse{
		RequestID:       m.Request.ID,
		ServiceID:       m.ServiceID,
		RequestTitle:    m.Request.Title,
		RequestSummary:  summarize(m.Request.Description, requestSummaryLength),
		Tags:            tags,
		Budget:          m.Request.Budget,
		Similarity:      m.Similarity,
		MatchPercentage: domain.MatchPercentage(m.Similarity),
	}
}

// summarize truncates text to at most n runes for notification and list views.
func summarize(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
