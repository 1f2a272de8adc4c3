// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Survey model.
//
// Functions:
//
//   - CreateSurvey(ctx, db, s) -> error
//   - GetSurvey(ctx, db, id, userID) -> *domain.Survey, error
//   - ListSurveys(ctx, db, userID) -> []domain.Survey, error
//   - CountSurveys(ctx, db, userID) -> int64, error
//   - ListSurveysPage(ctx, db, userID, offset, limit) -> []domain.Survey, error
//
// Surveys are always scoped to their owner; listing is newest first.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// CreateSurvey inserts s, stamping CreatedAt in UTC when unset.
func CreateSurvey(ctx context.Context, db *gorm.DB, s *domain.Survey) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(s).Error
}

// GetSurvey fetches a survey owned by userID, or ErrNotFound.
func GetSurvey(ctx context.Context, db *gorm.DB, id, userID uint) (*domain.Survey, error) {
	var s domain.Survey
	if err := db.WithContext(ctx).First(&s, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSurveys returns all of a user's surveys, newest first.
func ListSurveys(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Survey, error) {
	var out []domain.Survey
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

// CountSurveys returns the number of surveys owned by userID.
func CountSurveys(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Survey{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// ListSurveysPage returns one page of a user's surveys, newest first.
func ListSurveysPage(ctx context.Context, db *gorm.DB, userID uint, offset, limit int) ([]domain.Survey, error) {
	var out []domain.Survey
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}
