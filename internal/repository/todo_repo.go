package repository

import (
	"context"
	"errors"

	"togetherdo/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TodoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Todo, error)
}

type todoRepository struct {
	db *gorm.DB
}

func NewTodoRepository(db *gorm.DB) TodoRepository {
	return &todoRepository{db: db}
}

func (r *todoRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Todo, error) {
	var todo entity.Todo
	err := r.db.WithContext(ctx).
		Select("id", "owner_id", "title", "visibility", "completed_at").
		Where("id = ?", id).
		First(&todo).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &todo, nil
}
