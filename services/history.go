package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"who-dashboard/models"
)

// Recorder protokolliert Operationsaufrufe.
type Recorder interface {
	Record(ctx context.Context, run models.OperationRun) error
	Recent(ctx context.Context, limit int) ([]models.OperationRun, error)
}

// NopRecorder wird verwendet, wenn keine Datenbank konfiguriert ist.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, models.OperationRun) error { return nil }

func (NopRecorder) Recent(context.Context, int) ([]models.OperationRun, error) { return nil, nil }

// GormRecorder speichert die Run-Historie in PostgreSQL.
type GormRecorder struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewGormRecorder erstellt den Recorder. Die Migration übernimmt main.
func NewGormRecorder(db *gorm.DB, logger *zap.Logger) *GormRecorder {
	return &GormRecorder{DB: db, Logger: logger}
}

// Record schreibt einen Run.
func (r *GormRecorder) Record(ctx context.Context, run models.OperationRun) error {
	if err := r.DB.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("insert operation run: %w", err)
	}
	return nil
}

// Recent liefert die letzten Runs, neueste zuerst.
func (r *GormRecorder) Recent(ctx context.Context, limit int) ([]models.OperationRun, error) {
	var runs []models.OperationRun
	err := r.DB.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&runs).Error
	if err != nil {
		r.Logger.Error("Database query for operation runs failed", zap.Error(err))
		return nil, err
	}
	return runs, nil
}
