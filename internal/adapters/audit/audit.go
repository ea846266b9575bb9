// Package audit implements ports.AuditLog with GORM and SQLite, the
// admin-operation audit trail the teacher's storage adapter plays for
// devices, applied here to every admin-surface setter instead.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// entryModel is the GORM model for an audit row.
type entryModel struct {
	ID        string `gorm:"primaryKey"`
	Timestamp time.Time
	Operation string `gorm:"index"`
	PhysPort  uint32 `gorm:"index"`
	Params    string
	Result    string
}

// Adapter is a GORM/SQLite-backed ports.AuditLog.
type Adapter struct {
	db *gorm.DB
}

var _ ports.AuditLog = (*Adapter)(nil)

// New opens (creating if necessary) the SQLite database at path and
// migrates the audit schema.
func New(path string) (*Adapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&entryModel{}); err != nil {
		return nil, err
	}
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON entry_models(timestamp)")
	return &Adapter{db: db}, nil
}

// Record persists entry, assigning it a uuid if ID is unset.
func (a *Adapter) Record(ctx context.Context, entry domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	model := entryModel{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
		Operation: entry.Operation,
		PhysPort:  entry.PhysPort,
		Params:    entry.Params,
		Result:    entry.Result,
	}
	return a.db.WithContext(ctx).Create(&model).Error
}

// Recent returns the most recent limit entries, newest first.
func (a *Adapter) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	var models []entryModel
	if err := a.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]domain.AuditEntry, len(models))
	for i, m := range models {
		entries[i] = domain.AuditEntry{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			Operation: m.Operation,
			PhysPort:  m.PhysPort,
			Params:    m.Params,
			Result:    m.Result,
		}
	}
	return entries, nil
}

// Close releases the underlying database handle.
func (a *Adapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
