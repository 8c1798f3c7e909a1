package domain

// Status filter values accepted by ListParams.
const (
	StatusAll    = "all"
	StatusDone   = "done"
	StatusUndone = "undone"
)

// Sort keys accepted by ListParams. An empty key selects the default
// ordering: order_index ascending with nulls last, then created_at
// descending, then id descending.
const (
	SortPriorityAsc  = "priority_asc"
	SortPriorityDesc = "priority_desc"
	SortDueDateAsc   = "due_date_asc"
	SortDueDateDesc  = "due_date_desc"
	SortCreatedAsc   = "created_asc"
	SortCreatedDesc  = "created_desc"
)

// ListParams selects and orders tasks. Zero values mean "no filter".
// Values are assumed validated by the caller; the store trusts them.
type ListParams struct {
	// Search keeps rows whose title or description contains the value,
	// case-insensitively (Unicode folding, not ASCII-only).
	Search string
	// Status is one of "", "all", "done", "undone". "" and "all" keep
	// every row.
	Status string
	// Category keeps rows whose category equals the value case-insensitively.
	Category string
	// Sort is one of the Sort* constants or "" for the default ordering.
	Sort string
}
