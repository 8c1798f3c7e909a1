package api

import (
	"context"

	"github.com/eXocriador/automaze-task/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	ListTasks(ctx context.Context, p domain.ListParams) ([]domain.Task, error)
	CreateTask(ctx context.Context, n domain.NewTask) (domain.Task, error)
	UpdateTask(ctx context.Context, id int64, p domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ReorderTasks(ctx context.Context, ids []int64) ([]domain.Task, error)
}

// NotFoundError is returned by the store when a referenced task id is absent.
type NotFoundError interface {
	error
	NotFound()
}

// ConstraintViolationError is returned by the store when a write is rejected
// by a schema constraint, e.g. a priority outside [1,10] bypassing API
// validation.
type ConstraintViolationError interface {
	error
	ConstraintViolation()
}
