package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// SurveysStats returns how many surveys a user owns and when the newest was
// created. Surveys are never edited, so the pair changes exactly when the
// list does, which makes it a cheap ETag source. newest is nil when the user
// has no surveys.
func SurveysStats(ctx context.Context, db *gorm.DB, userID uint) (count int64, newest *time.Time, err error) {
	owned := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Survey{}).Where("user_id = ?", userID)
	}

	if err = owned().Count(&count).Error; err != nil || count == 0 {
		return 0, nil, err
	}

	// Ordered lookup rather than MAX(): the SQLite driver returns aggregates
	// over DATETIME as TEXT.
	var latest domain.Survey
	if err = owned().Select("created_at").Order("created_at DESC, id DESC").Take(&latest).Error; err != nil {
		return 0, nil, err
	}
	return count, &latest.CreatedAt, nil
}
