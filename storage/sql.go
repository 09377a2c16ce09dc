// Package storage persists downloaded candles so chart history survives
// restarts and repeated downloads stay incremental.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raykavin/pricelens/core"
)

// SQLStorage implements the core.KlineStorage interface using a SQL
// database via GORM.
type SQLStorage struct {
	db *gorm.DB
}

// Config holds the configuration for SQL database connections
type Config struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a default configuration for SQL connections
func DefaultConfig() Config {
	return Config{
		MaxIdleConns:    5,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// klineRecord is the persisted form of a candle. A candle is uniquely
// identified by its symbol, interval and open time; re-saving the same
// candle updates it in place.
type klineRecord struct {
	ID       uint      `gorm:"primaryKey"`
	Symbol   string    `gorm:"index:idx_kline,unique;size:32"`
	Interval string    `gorm:"index:idx_kline,unique;size:8"`
	Time     time.Time `gorm:"index:idx_kline,unique"`
	Open     float64
	Close    float64
	Low      float64
	High     float64
	Volume   float64
}

// TableName keeps the table name stable regardless of struct renames.
func (klineRecord) TableName() string { return "klines" }

// NewFromSQLite creates a new SQLite-backed kline archive.
func NewFromSQLite(dbPath string, config Config, opts ...gorm.Option) (*SQLStorage, error) {
	dialect := sqlite.Open(dbPath)
	return newFromSQL(dialect, config, opts...)
}

// newFromSQL creates a new SQL storage instance with the specified configuration
func newFromSQL(dialect gorm.Dialector, config Config, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err = db.AutoMigrate(&klineRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// SaveCandles upserts candles into the archive. Incomplete candles are
// skipped: only closed periods are worth keeping.
func (s *SQLStorage) SaveCandles(ctx context.Context, candles []core.Candle) error {
	records := lo.FilterMap(candles, func(c core.Candle, _ int) (klineRecord, bool) {
		if !c.IsComplete() {
			return klineRecord{}, false
		}
		return klineRecord{
			Symbol:   c.Symbol,
			Interval: c.Interval,
			Time:     c.Time,
			Open:     c.Open,
			Close:    c.Close,
			Low:      c.Low,
			High:     c.High,
			Volume:   c.Volume,
		}, true
	})

	if len(records) == 0 {
		return nil
	}

	tx := s.db.WithContext(ctx)
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "interval"}, {Name: "time"}},
		UpdateAll: true,
	}).Create(&records)
	if result.Error != nil {
		return fmt.Errorf("failed to save candles: %w", result.Error)
	}

	return nil
}

// Candles retrieves archived candles within [start, end], oldest first.
func (s *SQLStorage) Candles(ctx context.Context, symbol, interval string,
	start, end time.Time) ([]core.Candle, error) {

	tx := s.db.WithContext(ctx)

	var records []klineRecord
	result := tx.
		Where("symbol = ? AND interval = ? AND time BETWEEN ? AND ?", symbol, interval, start, end).
		Order("time").
		Find(&records)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to fetch candles: %w", result.Error)
	}

	candles := lo.Map(records, func(r klineRecord, _ int) core.Candle {
		return core.Candle{
			Symbol:   r.Symbol,
			Interval: r.Interval,
			Time:     r.Time,
			Open:     r.Open,
			Close:    r.Close,
			Low:      r.Low,
			High:     r.High,
			Volume:   r.Volume,
			Complete: true,
		}
	})

	return candles, nil
}

// Count returns the number of archived candles for a symbol and interval.
func (s *SQLStorage) Count(ctx context.Context, symbol, interval string) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&klineRecord{}).
		Where("symbol = ? AND interval = ?", symbol, interval).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count candles: %w", result.Error)
	}
	return count, nil
}

// WithTransaction executes the given function within a database transaction
func (s *SQLStorage) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
