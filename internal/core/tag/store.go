package tag

import "context"

// ListFilter narrows a tag listing. Zero value lists everything.
type ListFilter struct {
	// NamePrefix matches names starting with the given string, case-sensitive.
	NamePrefix string

	// Active filters on the active flag when non-nil.
	Active *bool
}

type Repository interface {
	// List returns tags ordered by the given orders (name ASC when empty).
	List(context context.Context, limit, offset int, filter ListFilter, orders []Order) ([]*Tag, error)

	// Total counts all stored tags, ignoring list windows.
	Total(context context.Context) (int, error)

	// GetByIDs resolves tags in batch; unknown ids are absent from the map.
	GetByIDs(context context.Context, ids []int) (map[int]*Tag, error)

	// NameExists reports whether another tag (excluding excludeID) already
	// uses the given name. Comparison is case-sensitive.
	NameExists(context context.Context, name string, excludeID int) (bool, error)

	// Save inserts the tag when ID is 0, otherwise updates it. Returns the
	// persisted id.
	Save(context context.Context, tag *Tag) (int, error)

	// Delete removes the tag and its thank-you associations.
	Delete(context context.Context, id int) error
}
