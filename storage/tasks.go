package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eXocriador/automaze-task/domain"
)

const taskColumns = "id, title, description, completed, category, priority, due_date, order_index, created_at"

// ListTasks returns all tasks matching the given filters in the requested
// order. Filters combine with AND; see domain.ListParams for semantics.
// Read-only; performs no writes.
func (s *Storage) ListTasks(ctx context.Context, p domain.ListParams) ([]domain.Task, error) {
	var (
		where []string
		args  []any
	)

	if p.Search != "" {
		pattern := "%" + strings.ToLower(p.Search) + "%"
		where = append(where, "(ulower(title) LIKE ? OR ulower(COALESCE(description, '')) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if p.Category != "" {
		where = append(where, "ulower(COALESCE(category, '')) = ulower(?)")
		args = append(args, p.Category)
	}
	switch p.Status {
	case domain.StatusDone:
		where = append(where, "completed = 1")
	case domain.StatusUndone:
		where = append(where, "completed = 0")
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(p.Sort)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// orderClause maps a validated sort key to its ORDER BY expression. Every
// mode carries an id tiebreaker so results are deterministic.
func orderClause(sort string) string {
	switch sort {
	case domain.SortPriorityDesc:
		return "priority DESC, id DESC"
	case domain.SortPriorityAsc:
		return "priority ASC, id DESC"
	case domain.SortDueDateAsc:
		return "due_date ASC NULLS LAST, id DESC"
	case domain.SortDueDateDesc:
		return "due_date DESC NULLS LAST, id DESC"
	case domain.SortCreatedAsc:
		return "created_at ASC, id ASC"
	case domain.SortCreatedDesc:
		return "created_at DESC, id DESC"
	default:
		return "order_index ASC NULLS LAST, created_at DESC, id DESC"
	}
}

// GetTask fetches a single task by id.
func (s *Storage) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, notFoundError{id: id}
	}
	return t, err
}

// GetManyTasks fetches the tasks whose ids appear in the given set. Missing
// ids are omitted from the result; order is unspecified.
func (s *Storage) GetManyTasks(ctx context.Context, ids []int64) ([]domain.Task, error) {
	if len(ids) == 0 {
		return []domain.Task{}, nil
	}
	query, args := inQuery("SELECT "+taskColumns+" FROM tasks WHERE id IN (%s)", ids)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks by id: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask inserts a new task, assigning id and created_at. When
// n.OrderIndex is nil the task receives max(order_index)+1 so it lands at
// the end of the manual ordering.
func (s *Storage) CreateTask(ctx context.Context, n domain.NewTask) (domain.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	orderIndex := n.OrderIndex
	if orderIndex == nil {
		var next int64
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(order_index), 0) + 1 FROM tasks").Scan(&next); err != nil {
			return domain.Task{}, fmt.Errorf("next order index: %w", err)
		}
		orderIndex = &next
	}

	// Matches the column default; the boundary applies the same fallback.
	priority := 1
	if n.Priority != nil {
		priority = *n.Priority
	}

	createdAt := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (title, description, completed, category, priority, due_date, order_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.Title, nullString(n.Description), n.Completed, nullString(n.Category),
		priority, nullTime(n.DueDate), nullInt(orderIndex), createdAt)
	if err != nil {
		return domain.Task{}, wrapWriteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Task{}, fmt.Errorf("last insert id: %w", err)
	}

	t, err := scanTask(tx.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update. Only non-nil patch fields overwrite;
// everything else keeps its prior value. Returns notFoundError when the id
// does not exist.
func (s *Storage) UpdateTask(ctx context.Context, id int64, p domain.TaskPatch) (domain.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM tasks WHERE id = ?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, notFoundError{id: id}
		}
		return domain.Task{}, fmt.Errorf("lookup task: %w", err)
	}

	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, *p.Completed)
	}
	if p.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *p.Category)
	}
	if p.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *p.Priority)
	}
	if p.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *p.DueDate)
	}
	if p.OrderIndex != nil {
		sets = append(sets, "order_index = ?")
		args = append(args, *p.OrderIndex)
	}

	if len(sets) > 0 {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx, "UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return domain.Task{}, wrapWriteError(err)
		}
	}

	t, err := scanTask(tx.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

// DeleteTask removes a task by id. Returns notFoundError when the id does
// not exist, so a second delete of the same id fails.
func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFoundError{id: id}
	}
	return nil
}

// ReorderTasks assigns each existing task in ids, in the order given, a
// 1-based order_index equal to its position. Unknown ids are skipped; ids
// omitted from the input keep their prior order_index. All updates apply
// in one transaction. Returns the updated tasks in input order.
func (s *Storage) ReorderTasks(ctx context.Context, ids []int64) ([]domain.Task, error) {
	if len(ids) == 0 {
		return []domain.Task{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args := inQuery("SELECT id FROM tasks WHERE id IN (%s)", ids)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing ids: %w", err)
	}
	existing := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	rows.Close()

	stmt, err := tx.PrepareContext(ctx, "UPDATE tasks SET order_index = ? WHERE id = ?")
	if err != nil {
		return nil, fmt.Errorf("prepare update: %w", err)
	}
	defer stmt.Close()

	position := 0
	for _, id := range ids {
		if !existing[id] {
			continue
		}
		position++
		if _, err := stmt.ExecContext(ctx, position, id); err != nil {
			return nil, wrapWriteError(err)
		}
	}

	byID := make(map[int64]domain.Task, position)
	if position > 0 {
		query, args = inQuery("SELECT "+taskColumns+" FROM tasks WHERE id IN (%s)", ids)
		rows, err = tx.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query updated tasks: %w", err)
		}
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			byID[t.ID] = t
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate tasks: %w", err)
		}
		rows.Close()
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	ordered := make([]domain.Task, 0, position)
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var (
		t           domain.Task
		description sql.NullString
		category    sql.NullString
		dueDate     sql.NullTime
		orderIndex  sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Title, &description, &t.Completed, &category,
		&t.Priority, &dueDate, &orderIndex, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, err
		}
		return domain.Task{}, fmt.Errorf("scan task: %w", err)
	}
	if description.Valid {
		t.Description = &description.String
	}
	if category.Valid {
		t.Category = &category.String
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if orderIndex.Valid {
		t.OrderIndex = &orderIndex.Int64
	}
	return t, nil
}

// inQuery expands an IN (...) clause with one placeholder per id.
func inQuery(format string, ids []int64) (string, []any) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, placeholders), args
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}
