package domain

import "time"

// Category groups products in the catalog.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryRef is the short category form embedded in products.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is a sellable catalog item.
type Product struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Price       float64      `json:"price"`
	Available   bool         `json:"available"`
	ImageURL    string       `json:"image_url,omitempty"`
	CategoryID  string       `json:"category_id"`
	Category    *CategoryRef `json:"category,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
