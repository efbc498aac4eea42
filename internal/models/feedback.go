package models

import (
	"time"
)

// Feedback moderation statuses
const (
	FeedbackStatusPending  = "pending"
	FeedbackStatusApproved = "approved"
)

// Feedback is a site-wide comment a signed-in user leaves for the shop,
// moderated and optionally replied to by an admin.
type Feedback struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Comment   string    `db:"comment" json:"comment"`
	Rating    *int      `db:"rating" json:"rating,omitempty"`
	Reply     string    `db:"reply" json:"reply"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewFeedback creates a pending feedback entry with the display defaults
func NewFeedback(userID, name, email, comment string, rating *int) *Feedback {
	now := GetCurrentTime()

	if comment == "" {
		comment = "No Comment Added !"
	}

	return &Feedback{
		ID:        GenerateID("fbk"),
		UserID:    userID,
		Name:      name,
		Email:     email,
		Comment:   comment,
		Rating:    rating,
		Reply:     "No Reply Yet !",
		Status:    FeedbackStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
