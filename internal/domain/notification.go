package domain

import (
	"context"
	"time"
)

// NotificationIntent tells a provider that a new request matches one of their
// services. It is handed to the transport and forgotten.
type NotificationIntent struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"request_id"`
	ServiceID       string    `json:"service_id"`
	ProviderID      string    `json:"provider_id"`
	ProviderName    string    `json:"provider_name"`
	ProviderEmail   string    `json:"provider_email,omitempty"`
	ProviderPhone   string    `json:"provider_phone,omitempty"`
	MatchPercentage int       `json:"match_percentage"`
	RequestTitle    string    `json:"request_title"`
	RequestSummary  string    `json:"request_summary"`
	ServiceTitle    string    `json:"service_title"`
	CreatedAt       time.Time `json:"created_at"`
}

// NotificationPublisher is the fire-and-forget outbound sink.
type NotificationPublisher interface {
	Publish(ctx context.Context, intent *NotificationIntent) error
}
