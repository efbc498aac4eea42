package models

import (
	"time"
)

// Review is a product rating left by a signed-in user
type Review struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	TrophyID  string    `db:"trophy_id" json:"trophyId,omitempty"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewReview creates a review; rating must already be validated to [1,5]
func NewReview(userID, trophyID string, rating int, comment string) *Review {
	now := GetCurrentTime()

	if comment == "" {
		comment = "No Comment Added !"
	}

	return &Review{
		ID:        GenerateID("rev"),
		UserID:    userID,
		TrophyID:  trophyID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
