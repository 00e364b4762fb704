package tag

import "time"

// Tag labels a thank-you so recognition can be reported by theme
// (teamwork, innovation, and whatever else the admins dream up).
type Tag struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`

	// BgColour is an optional hex colour for the tag pill. It lives in the
	// metadata JSON column, not its own column.
	BgColour *string `json:"bg_colour,omitempty"`

	CreatedBy    int       `json:"created_by"`
	CreatedDate  time.Time `json:"created_date"`
	ModifiedBy   int       `json:"modified_by"`
	ModifiedDate time.Time `json:"modified_date"`
}

// IsPersisted reports whether the tag has been stored yet. ID stays 0 until
// the first successful save.
func (t *Tag) IsPersisted() bool {
	return t.ID > 0
}

// Order is a (column, direction) pair for tag listing.
type Order struct {
	Column string
	Desc   bool
}

// orderableColumns is the allow-list for tag ordering. Anything else is
// rejected before SQL is composed.
var orderableColumns = map[string]struct{}{
	"id":            {},
	"name":          {},
	"created_date":  {},
	"modified_date": {},
}

// ValidOrderColumn reports whether column may appear in an ORDER BY.
func ValidOrderColumn(column string) bool {
	_, ok := orderableColumns[column]
	return ok
}
