package repository

import (
	"context"
	"errors"
	"fmt"

	"bike-lane-sentinel-go/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound возвращается, когда нарушение с указанным ID не существует
var ErrNotFound = errors.New("violation not found")

// ViolationRepository интерфейс для работы с хранилищем нарушений
type ViolationRepository interface {
	Create(ctx context.Context, violation *model.Violation) error
	GetByID(ctx context.Context, id string) (*model.Violation, error)
	List(ctx context.Context) ([]*model.Violation, error)
	UpdateStatus(ctx context.Context, id string, status model.ViolationStatus) (*model.Violation, error)
}

// violationRepository реализация ViolationRepository поверх PostgreSQL
type violationRepository struct {
	db *gorm.DB
}

// NewViolationRepository создает новый instance ViolationRepository
func NewViolationRepository(db *gorm.DB) ViolationRepository {
	return &violationRepository{
		db: db,
	}
}

// Create создает новое нарушение в базе данных
func (r *violationRepository) Create(ctx context.Context, violation *model.Violation) error {
	if err := r.db.WithContext(ctx).Create(violation).Error; err != nil {
		return fmt.Errorf("failed to create violation: %w", err)
	}
	return nil
}

// GetByID получает нарушение по ID
func (r *violationRepository) GetByID(ctx context.Context, id string) (*model.Violation, error) {
	var violation model.Violation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&violation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get violation: %w", err)
	}
	return &violation, nil
}

// List получает список всех нарушений в порядке создания
func (r *violationRepository) List(ctx context.Context) ([]*model.Violation, error) {
	var violations []*model.Violation
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&violations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	return violations, nil
}

// UpdateStatus обновляет статус нарушения и возвращает обновленную запись.
// Повторная установка того же статуса не является ошибкой.
func (r *violationRepository) UpdateStatus(ctx context.Context, id string, status model.ViolationStatus) (*model.Violation, error) {
	violation, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	violation.Status = status
	if err := r.db.WithContext(ctx).Save(violation).Error; err != nil {
		return nil, fmt.Errorf("failed to update violation status: %w", err)
	}

	return violation, nil
}
