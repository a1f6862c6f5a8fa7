package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type ClassifierCallLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, logs []*types.ClassifierCallLog) ([]*types.ClassifierCallLog, error)
}

type classifierCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassifierCallLogRepo(db *gorm.DB, baseLog *logger.Logger) ClassifierCallLogRepo {
	return &classifierCallLogRepo{db: db, log: baseLog.With("repo", "ClassifierCallLogRepo")}
}

func (lr *classifierCallLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.ClassifierCallLog) ([]*types.ClassifierCallLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	if len(logs) == 0 {
		return []*types.ClassifierCallLog{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
