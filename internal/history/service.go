// Package history persists playback positions locally. It backs resume
// decisions when the server has no recorded position (offline servers,
// fresh user profiles) and the CLI's history listing.
package history

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/halcyontv/halcyon/internal/database"
)

// Service provides local playback history storage on top of the database.
type Service struct {
	db *gorm.DB
}

// Entry is one history record with computed progress.
type Entry struct {
	ItemID          string
	SeriesID        string
	PositionTicks   int64
	RuntimeTicks    int64
	ProgressPercent float64
	Completed       bool
	WatchedAt       time.Time
}

// NewService creates a new history service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ResumePosition returns the last saved position for an item, in ticks.
// Completed items and unknown items report zero: neither should produce a
// resume prompt.
func (s *Service) ResumePosition(itemID string) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	var record database.PlaybackHistory
	err := s.db.Where("item_id = ?", itemID).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load history for %s: %w", itemID, err)
	}
	if record.Completed {
		return 0, nil
	}
	return record.PositionTicks, nil
}

// SavePosition upserts the position for an item. One record per item: a
// rewatch overwrites the previous position.
func (s *Service) SavePosition(itemID string, positionTicks, durationTicks int64, completed bool) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var existing database.PlaybackHistory
	err := s.db.Where("item_id = ?", itemID).First(&existing).Error
	if err == nil {
		existing.PositionTicks = positionTicks
		existing.RuntimeTicks = durationTicks
		existing.Completed = completed
		existing.WatchedAt = time.Now()
		return s.db.Save(&existing).Error
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to load history for %s: %w", itemID, err)
	}

	record := database.PlaybackHistory{
		ItemID:        itemID,
		PositionTicks: positionTicks,
		RuntimeTicks:  durationTicks,
		Completed:     completed,
		WatchedAt:     time.Now(),
	}
	return s.db.Create(&record).Error
}

// Recent returns the most recently watched entries, newest first.
func (s *Service) Recent(limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := s.db.Model(&database.PlaybackHistory{}).Order("watched_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []database.PlaybackHistory
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	entries := make([]Entry, len(records))
	for i, record := range records {
		entries[i] = Entry{
			ItemID:        record.ItemID,
			SeriesID:      record.SeriesID,
			PositionTicks: record.PositionTicks,
			RuntimeTicks:  record.RuntimeTicks,
			Completed:     record.Completed,
			WatchedAt:     record.WatchedAt,
		}
		if record.RuntimeTicks > 0 {
			entries[i].ProgressPercent = float64(record.PositionTicks) / float64(record.RuntimeTicks) * 100
		}
	}
	return entries, nil
}

// DeleteByItemID removes the history record for an item.
func (s *Service) DeleteByItemID(itemID string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Where("item_id = ?", itemID).Delete(&database.PlaybackHistory{}).Error
}

// Cleanup removes incomplete records older than 30 days.
func (s *Service) Cleanup() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	cutoff := time.Now().AddDate(0, 0, -30)
	return s.db.Where("completed = ? AND watched_at < ?", false, cutoff).Delete(&database.PlaybackHistory{}).Error
}
