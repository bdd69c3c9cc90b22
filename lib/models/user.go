package models

import (
	"database/sql"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email                  string `gorm:"unique"`
	PasswordHash           string
	IsAdmin                bool
	RemainingNotifications int
	LastLoginAt            sql.NullTime

	Subscriptions []Subscription
}

type Users []User

func (u *User) HasRemainingNotifications() bool {
	return u.RemainingNotifications > 0
}
