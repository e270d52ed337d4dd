package repository

import (
	"context"
	"sort"
	"sync"

	"bike-lane-sentinel-go/internal/model"
)

// memoryRepository хранилище нарушений в памяти процесса.
// Данные теряются при перезапуске, это осознанное упрощение демо-режима.
// Мьютекс обязателен: gin обслуживает запросы в разных горутинах.
type memoryRepository struct {
	mu         sync.RWMutex
	violations map[string]*model.Violation
	order      map[string]int
	nextSeq    int
}

// NewMemoryRepository создает новое хранилище нарушений в памяти
func NewMemoryRepository() ViolationRepository {
	return &memoryRepository{
		violations: make(map[string]*model.Violation),
		order:      make(map[string]int),
	}
}

// Create сохраняет новое нарушение
func (r *memoryRepository) Create(_ context.Context, violation *model.Violation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *violation
	r.violations[violation.ID] = &stored
	r.order[violation.ID] = r.nextSeq
	r.nextSeq++
	return nil
}

// GetByID получает нарушение по ID
func (r *memoryRepository) GetByID(_ context.Context, id string) (*model.Violation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	violation, ok := r.violations[id]
	if !ok {
		return nil, ErrNotFound
	}

	result := *violation
	return &result, nil
}

// List возвращает все нарушения в порядке создания
func (r *memoryRepository) List(_ context.Context) ([]*model.Violation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Violation, 0, len(r.violations))
	for _, violation := range r.violations {
		copied := *violation
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return r.order[result[i].ID] < r.order[result[j].ID]
	})

	return result, nil
}

// UpdateStatus обновляет статус нарушения и возвращает обновленную запись
func (r *memoryRepository) UpdateStatus(_ context.Context, id string, status model.ViolationStatus) (*model.Violation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	violation, ok := r.violations[id]
	if !ok {
		return nil, ErrNotFound
	}

	violation.Status = status

	result := *violation
	return &result, nil
}
