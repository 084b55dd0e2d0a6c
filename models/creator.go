package models

import "time"

// Creator is a seller profile on the platform. Bookings reference creators by
// id; the public booking form addresses them by slug.
type Creator struct {
	ID          string    `bson:"id" json:"id"`
	Slug        string    `bson:"slug" json:"slug"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	Phone       string    `bson:"phone" json:"phone"`
	Email       string    `bson:"email,omitempty" json:"email,omitempty"`
	Bio         string    `bson:"bio,omitempty" json:"bio,omitempty"`
	Active      bool      `bson:"active" json:"active"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
