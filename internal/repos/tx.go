package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/db"
)

// TxManager owns transaction boundaries so services never reach for a global
// handle and tests can substitute a fake that runs the closure inline.
type TxManager interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	AdvisoryXactLock(tx *gorm.DB, namespace string, id uuid.UUID) error
}

type gormTxManager struct {
	db *gorm.DB
}

func NewTxManager(gdb *gorm.DB) TxManager {
	return &gormTxManager{db: gdb}
}

func (m *gormTxManager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}

func (m *gormTxManager) AdvisoryXactLock(tx *gorm.DB, namespace string, id uuid.UUID) error {
	return db.AdvisoryXactLock(tx, namespace, id)
}
