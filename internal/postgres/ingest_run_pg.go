package postgres

import (
	"context"
	"fmt"

	"geoscatter/internal/model"

	"gorm.io/gorm"
)

// RunStore persists ingest runs
type RunStore struct {
	db *gorm.DB
}

func NewRunStore(db *gorm.DB) *RunStore {
	return &RunStore{db: db}
}

// Record inserts a run
func (s *RunStore) Record(ctx context.Context, run model.IngestRun) error {
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("insert ingest run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns the latest runs of a dataset, newest first
func (s *RunStore) Recent(ctx context.Context, dataset string, limit int) ([]model.IngestRun, error) {
	var runs []model.IngestRun
	result := s.db.WithContext(ctx).
		Where("dataset = ?", dataset).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs)
	if result.Error != nil {
		return nil, fmt.Errorf("query ingest runs of %s: %w", dataset, result.Error)
	}
	return runs, nil
}
