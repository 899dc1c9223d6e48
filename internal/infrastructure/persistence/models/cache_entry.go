package models

import "time"

// CacheEntryModel is a keyed JSON document stored in the database.
// The Steam library cache uses it when the database backend is selected.
type CacheEntryModel struct {
	Key       string    `gorm:"type:varchar(200);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CacheEntryModel) TableName() string {
	return "cache_entries"
}
