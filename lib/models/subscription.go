package models

import (
	"database/sql"

	"gorm.io/gorm"
)

type Subscription struct {
	gorm.Model
	UserID         uint `gorm:"uniqueIndex:idx_user_website"` // Composite unique index on user & website
	WebsiteID      uint `gorm:"uniqueIndex:idx_user_website"`
	LastNotifiedAt sql.NullTime

	User    User
	Website Website
}

type Subscriptions []Subscription
