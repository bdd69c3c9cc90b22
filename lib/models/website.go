package models

import (
	"database/sql"

	"gorm.io/gorm"
)

// Website identity is the normalized scheme+host; see NormalizeURL.
type Website struct {
	gorm.Model
	URL         string `gorm:"unique;index"`
	Status      bool
	LastChecked sql.NullTime
}

type Websites []Website
