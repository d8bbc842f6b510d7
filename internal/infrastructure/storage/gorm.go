package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// OpenOption configures how a SQL store is opened
type OpenOption func(*gorm.Config)

// WithSQLLogger routes GORM logging to l
func WithSQLLogger(l gormlogger.Interface) OpenOption {
	return func(c *gorm.Config) {
		c.Logger = l
	}
}

// Entry is one persisted key/value row
type Entry struct {
	Key       string `gorm:"column:state_key;primaryKey;size:255"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (Entry) TableName() string {
	return "client_state"
}

// GormStore keeps values in a SQL table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open database. Call Migrate before first use on a
// fresh database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// OpenSQLite opens (creating if needed) a SQLite database file and migrates it
func OpenSQLite(path string, opts ...OpenOption) (*GormStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}
	return open(sqlite.Open(path), opts)
}

// OpenPostgres connects to PostgreSQL and migrates the state table
func OpenPostgres(dsn string, opts ...OpenOption) (*GormStore, error) {
	return open(postgres.Open(dsn), opts)
}

func open(dialector gorm.Dialector, opts []OpenOption) (*GormStore, error) {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := NewGormStore(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates the state table if missing
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to migrate client_state: %w", err)
	}
	return nil
}

// Get returns the value stored under key
func (s *GormStore) Get(ctx context.Context, key string) (string, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("state_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return e.Value, nil
}

// Set upserts value under key
func (s *GormStore) Set(ctx context.Context, key, value string) error {
	e := Entry{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("state_key = ?", key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ Store = (*GormStore)(nil)
