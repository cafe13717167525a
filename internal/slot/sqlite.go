package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type entry struct {
	Name      string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (entry) TableName() string {
	return "kv_slots"
}

type SQLiteSlot struct {
	db *gorm.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteSlot, error) {
	if path == "" {
		path = "catalog.db"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewSQLiteSlot(ctx, db)
}

func NewSQLiteSlot(ctx context.Context, db *gorm.DB) (*SQLiteSlot, error) {
	if err := db.WithContext(ctx).AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_slots: %w", err)
	}
	return &SQLiteSlot{db: db}, nil
}

func (s *SQLiteSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e entry
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).First(&e, "name = ?", key).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return []byte(e.Value), true, nil
}

func (s *SQLiteSlot) Set(ctx context.Context, key string, value []byte) error {
	e := entry{Name: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).
			Create(&e).Error
	})
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteSlot) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	})
}

func (s *SQLiteSlot) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
