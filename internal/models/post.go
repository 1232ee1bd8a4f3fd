package models

import (
	"time"
)

type Post struct {
	ID          string `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	OwnerID     string `gorm:"size:36;not null;index" bson:"owner_id" json:"owner_id"`
	Title       string `gorm:"not null" bson:"title" json:"title"`
	Description string `gorm:"not null" bson:"description" json:"description"`
	Content     string `gorm:"type:text;not null" bson:"content" json:"content"`
	Rating      int    `gorm:"not null;default:0" bson:"rating" json:"rating"`
	// Comment ids in creation order. Kept in sync by the comment service, the
	// store does not enforce it.
	Comments  []string   `gorm:"type:text;serializer:json" bson:"comments" json:"comments"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EditedAt  *time.Time `bson:"edited_at" json:"edited_at"`
}
