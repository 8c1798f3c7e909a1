package api

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/eXocriador/automaze-task/domain"
)

const (
	maxTitleLen    = 255
	maxCategoryLen = 100
	maxSearchLen   = 255
	minPriority    = 1
	maxPriority    = 10
)

// fieldError describes a single invalid request field.
type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// validationError aggregates invalid fields for a 422 response.
type validationError struct {
	fields []fieldError
}

func (e *validationError) Error() string {
	parts := make([]string, len(e.fields))
	for i, f := range e.fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *validationError) add(field, reason string) {
	e.fields = append(e.fields, fieldError{Field: field, Reason: reason})
}

func (e *validationError) addf(field, format string, args ...any) {
	e.add(field, fmt.Sprintf(format, args...))
}

func (e *validationError) orNil() error {
	if len(e.fields) == 0 {
		return nil
	}
	return e
}

var (
	validStatuses = map[string]bool{
		domain.StatusAll:    true,
		domain.StatusDone:   true,
		domain.StatusUndone: true,
	}
	validSorts = map[string]bool{
		domain.SortPriorityAsc:  true,
		domain.SortPriorityDesc: true,
		domain.SortDueDateAsc:   true,
		domain.SortDueDateDesc:  true,
		domain.SortCreatedAsc:   true,
		domain.SortCreatedDesc:  true,
	}
)

// validateListParams checks query parameters for the list endpoint and
// normalizes "all" to no status filter. Unrecognized enum values never
// reach the store.
func validateListParams(p *domain.ListParams) error {
	ve := &validationError{}

	if p.Search != "" && utf8.RuneCountInString(p.Search) > maxSearchLen {
		ve.addf("search", "must be at most %d characters", maxSearchLen)
	}
	if p.Category != "" && utf8.RuneCountInString(p.Category) > maxCategoryLen {
		ve.addf("category", "must be at most %d characters", maxCategoryLen)
	}
	if p.Status != "" && !validStatuses[p.Status] {
		ve.add("status", "must be one of all, done, undone")
	}
	if p.Sort != "" && !validSorts[p.Sort] {
		ve.add("sort", "unknown sort key")
	}

	if p.Status == domain.StatusAll {
		p.Status = ""
	}
	return ve.orNil()
}

func validateTitle(ve *validationError, title string) {
	n := utf8.RuneCountInString(title)
	if n < 1 {
		ve.add("title", "must not be empty")
	} else if n > maxTitleLen {
		ve.addf("title", "must be at most %d characters", maxTitleLen)
	}
}

func validateCategory(ve *validationError, category string) {
	if utf8.RuneCountInString(category) > maxCategoryLen {
		ve.addf("category", "must be at most %d characters", maxCategoryLen)
	}
}

func validatePriority(ve *validationError, priority int) {
	if priority < minPriority || priority > maxPriority {
		ve.addf("priority", "must be between %d and %d", minPriority, maxPriority)
	}
}

// validateNewTask checks a create payload. An absent priority takes the
// documented default of 1; a supplied value is range-checked as given, so
// an explicit 0 fails instead of being rewritten.
func validateNewTask(n *domain.NewTask) error {
	ve := &validationError{}

	validateTitle(ve, n.Title)
	if n.Priority == nil {
		p := minPriority
		n.Priority = &p
	} else {
		validatePriority(ve, *n.Priority)
	}
	if n.Category != nil {
		validateCategory(ve, *n.Category)
	}
	if n.OrderIndex != nil && *n.OrderIndex < 1 {
		ve.add("order_index", "must be a positive integer")
	}

	return ve.orNil()
}

// validateTaskPatch checks the supplied fields of a partial update.
func validateTaskPatch(p *domain.TaskPatch) error {
	ve := &validationError{}

	if p.Title != nil {
		validateTitle(ve, *p.Title)
	}
	if p.Priority != nil {
		validatePriority(ve, *p.Priority)
	}
	if p.Category != nil {
		validateCategory(ve, *p.Category)
	}
	if p.OrderIndex != nil && *p.OrderIndex < 1 {
		ve.add("order_index", "must be a positive integer")
	}

	return ve.orNil()
}
