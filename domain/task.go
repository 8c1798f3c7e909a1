package domain

import "time"

// Task represents a single to-do item row.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	Category    *string    `json:"category"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	OrderIndex  *int64     `json:"order_index"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewTask carries the fields for a create request. The store assigns ID,
// CreatedAt and, when OrderIndex is nil, the next free order index. A nil
// Priority takes the default of 1; an explicit out-of-range value fails
// validation rather than being clamped.
type NewTask struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	Category    *string    `json:"category"`
	Priority    *int       `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	OrderIndex  *int64     `json:"order_index"`
}

// TaskPatch carries a partial update. Nil fields keep their prior value.
type TaskPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Completed   *bool      `json:"completed"`
	Category    *string    `json:"category"`
	Priority    *int       `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	OrderIndex  *int64     `json:"order_index"`
}
