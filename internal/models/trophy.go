package models

import (
	"time"
)

// DefaultTrophyImage is used when a product is created without a photo
const DefaultTrophyImage = "https://res.cloudinary.com/ddnxjo72z/image/upload/v1762186666/Gemini_Generated_Image_jwrmrsjwrmrsjwrm_le67jl.png"

// Trophy is one catalog product
type Trophy struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Price       float64   `db:"price" json:"price"`
	Category    string    `db:"category" json:"category"`
	Image       string    `db:"image" json:"image"`
	Description string    `db:"description" json:"description,omitempty"`
	Priority    int       `db:"priority" json:"priority"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// NewTrophy creates a catalog product with the catalog defaults applied
func NewTrophy(name string, price float64, category, image, description string, priority int) *Trophy {
	now := GetCurrentTime()

	if category == "" {
		category = "None"
	}
	if image == "" {
		image = DefaultTrophyImage
	}

	return &Trophy{
		ID:          GenerateID("trf"),
		Name:        name,
		Price:       price,
		Category:    category,
		Image:       image,
		Description: description,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
