package database

import (
	"time"

	"gorm.io/gorm"
)

// PlaybackHistory records the last known playback position for an item.
// It backs resume decisions when the server has no prior position, and the
// history listing in the CLI.
type PlaybackHistory struct {
	ID            uint      `gorm:"primaryKey"`
	ItemID        string    `gorm:"not null;uniqueIndex"`
	SeriesID      string    `gorm:"index;default:''"`
	PositionTicks int64     `gorm:"not null;default:0"`
	RuntimeTicks  int64     `gorm:"not null;default:0"`
	Completed     bool      `gorm:"default:false"`
	WatchedAt     time.Time `gorm:"index;default:CURRENT_TIMESTAMP"`
}

// TableName overrides the table name
func (PlaybackHistory) TableName() string {
	return "playback_history"
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&PlaybackHistory{},
	)
}
