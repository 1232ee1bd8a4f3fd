package models

import (
	"time"
)

type Comment struct {
	ID        string     `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	OwnerID   string     `gorm:"size:36;not null;index" bson:"owner_id" json:"owner_id"`
	PostID    string     `gorm:"size:36;not null;index" bson:"post_id" json:"post_id"`
	Content   string     `gorm:"type:text;not null" bson:"content" json:"content"`
	Rating    int        `gorm:"not null;default:0" bson:"rating" json:"rating"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EditedAt  *time.Time `bson:"edited_at" json:"edited_at"` // nil until the first edit
}
