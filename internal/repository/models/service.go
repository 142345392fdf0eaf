package models

import (
	"database/sql"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Service is the services row without the write-only per-field vectors.
type Service struct {
	ID                 string           `db:"id"`
	ProviderID         string           `db:"provider_id"`
	CategoryID         string           `db:"category_id"`
	Title              string           `db:"title"`
	Description        string           `db:"description"`
	Tags               StringSlice      `db:"tags"`
	Price              float64          `db:"price"`
	Images             StringSlice      `db:"images"`
	IsActive           bool             `db:"is_active"`
	CombinedVector     *pgvector.Vector `db:"combined_vector"`
	EmbeddingUpdatedAt sql.NullTime     `db:"embedding_updated_at"`
	CreatedAt          time.Time        `db:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at"`
	ProviderName       sql.NullString   `db:"provider_name"`
	CategoryName       sql.NullString   `db:"category_name"`
}

// ServiceMatch is one ranked row of a similarity query.
type ServiceMatch struct {
	ID           string         `db:"id"`
	ProviderID   string         `db:"provider_id"`
	CategoryID   string         `db:"category_id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Tags         StringSlice    `db:"tags"`
	Price        float64        `db:"price"`
	Images       StringSlice    `db:"images"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	ProviderName sql.NullString `db:"provider_name"`
	CategoryName sql.NullString `db:"category_name"`
	Distance     float64        `db:"distance"`
}

// ServiceRequest is the service_requests row.
type ServiceRequest struct {
	ID                 string           `db:"id"`
	CustomerID         string           `db:"customer_id"`
	CategoryID         sql.NullString   `db:"category_id"`
	Title              string           `db:"title"`
	Description        string           `db:"description"`
	Tags               StringSlice      `db:"tags"`
	Budget             sql.NullFloat64  `db:"budget"`
	CombinedVector     *pgvector.Vector `db:"combined_vector"`
	EmbeddingUpdatedAt sql.NullTime     `db:"embedding_updated_at"`
	CreatedAt          time.Time        `db:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at"`
}

// Provider is the providers row.
type Provider struct {
	ID    string         `db:"id"`
	Name  string         `db:"name"`
	Email sql.NullString `db:"email"`
	Phone sql.NullString `db:"phone"`
}
