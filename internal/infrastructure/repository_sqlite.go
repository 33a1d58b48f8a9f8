package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/mediaget-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteTransferRepository implements TransferRepository using SQLite
type SQLiteTransferRepository struct {
	db *gorm.DB
}

// NewSQLiteTransferRepository creates a new SQLite repository
func NewSQLiteTransferRepository(dbPath string) (*SQLiteTransferRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.TransferRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteTransferRepository{db: db}, nil
}

// Create creates a new record
func (r *SQLiteTransferRepository) Create(record *domain.TransferRecord) error {
	return r.db.Create(record).Error
}

// Update updates an existing record
func (r *SQLiteTransferRepository) Update(record *domain.TransferRecord) error {
	return r.db.Save(record).Error
}

// FindByID finds a record by ID
func (r *SQLiteTransferRepository) FindByID(id string) (*domain.TransferRecord, error) {
	var record domain.TransferRecord
	err := r.db.First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindAll finds records with optional filters, newest first. A limit of 0
// returns every record.
func (r *SQLiteTransferRepository) FindAll(filters map[string]interface{}, limit int) ([]*domain.TransferRecord, error) {
	var records []*domain.TransferRecord
	query := r.db

	for key, value := range filters {
		if !domain.HistoryFilterKeys[key] {
			return nil, fmt.Errorf("unsupported filter: %s", key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("started_at DESC").Find(&records).Error
	return records, err
}

// GetStats returns transfer statistics
func (r *SQLiteTransferRepository) GetStats() (*domain.TransferStats, error) {
	stats := &domain.TransferStats{}

	if err := r.db.Model(&domain.TransferRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.TransferStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.TransferRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.TransferCompleted:
			stats.Completed = sc.Count
		case domain.TransferSkipped:
			stats.Skipped = sc.Count
		case domain.TransferFailed:
			stats.Failed = sc.Count
		}
	}

	var bytesTotal struct{ Total int64 }
	if err := r.db.Model(&domain.TransferRecord{}).
		Select("COALESCE(SUM(bytes_written), 0) as total").
		Scan(&bytesTotal).Error; err != nil {
		return nil, err
	}
	stats.BytesTotal = bytesTotal.Total

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteTransferRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
