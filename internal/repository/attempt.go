package repository

import (
	"eduseek/internal/db"
	"eduseek/internal/model"
)

type AttemptRepository struct{}

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{}
}

func (r *AttemptRepository) Save(attempt model.SyncAttempt) error {
	return db.DB.Create(&attempt).Error
}

func (r *AttemptRepository) GetRecent(limit int) ([]model.SyncAttempt, error) {
	var attempts []model.SyncAttempt
	result := db.DB.
		Order("started_at desc").
		Limit(limit).
		Find(&attempts)

	return attempts, result.Error
}

func (r *AttemptRepository) GetByAttemptID(attemptID string) (model.SyncAttempt, error) {
	var attempt model.SyncAttempt
	return attempt, db.DB.Where("attempt_id = ?", attemptID).First(&attempt).Error
}

type Stats struct {
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
	Uploaded  int64 `json:"uploaded"`
}

func (r *AttemptRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.SyncAttempt{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.SyncAttempt{}).
		Where("outcome = ?", model.OutcomeSucceeded).
		Count(&stats.Succeeded).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.SyncAttempt{}).
		Where("outcome = ?", model.OutcomeCancelled).
		Count(&stats.Cancelled).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.SyncAttempt{}).
		Select("COALESCE(SUM(uploaded), 0)").
		Scan(&stats.Uploaded).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Succeeded - stats.Cancelled
	return stats, nil
}
