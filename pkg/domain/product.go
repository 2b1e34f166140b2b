package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Price is a two-decimal fixed point string.
type Product struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Brand       string     `json:"brand"`
	Description string     `json:"description"`
	Price       string     `json:"price"`
	ImageURL    string     `json:"imageUrl"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	Stock       int        `json:"stock"`
	Featured    bool       `json:"featured"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ProductUpdate is a partial product update; nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Brand       *string    `json:"brand" validate:"omitempty,max=100"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Price       *string    `json:"price" validate:"omitempty,numeric"`
	ImageURL    *string    `json:"imageUrl" validate:"omitempty,max=1000"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	Stock       *int       `json:"stock" validate:"omitempty,min=0"`
	Featured    *bool      `json:"featured"`
}

// Category groups products.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
}
