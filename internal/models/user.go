package models

import (
	"time"
)

type User struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Name      string    `gorm:"not null" bson:"name" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	Password  string    `gorm:"not null" bson:"password" json:"-"` // bcrypt hash
	Karma     int       `gorm:"not null;default:0" bson:"karma" json:"karma"`
	IsAdmin   bool      `gorm:"not null;default:false" bson:"isAdmin" json:"isAdmin"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	// No UpdatedAt: the profile has no update path yet
}
