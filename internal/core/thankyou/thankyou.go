/*
Package thankyou implements the recognition core: thank-you notes from one
person to colleagues or whole groups, tagged for reporting, filtered and
aggregated for the feed and the admin statistics screens.

The interesting machinery is the filter/composer pair: every list and
aggregate operation shares one dynamic SQL assembly path, so a filter means
the same thing whether it feeds the feed, a count, or a per-tag total.
*/
package thankyou

import (
	"fmt"
	"time"

	"github.com/intravine/kudos/internal/core/tag"
	"github.com/intravine/kudos/internal/directory"
)

// # Owner Classes

// OwnerClass discriminates what kind of directory object was thanked.
// The numeric values are stored in thankyou.thanked.object_type.
type OwnerClass int

const (
	// OwnerClassIndividual is a single directory user.
	OwnerClassIndividual OwnerClass = 1

	// OwnerClassGroup is a directory group; it is flattened to its member
	// users for filtering and notifications.
	OwnerClassGroup OwnerClass = 3
)

// Supported reports whether the owner class is one this service understands.
func (c OwnerClass) Supported() bool {
	return c == OwnerClassIndividual || c == OwnerClassGroup
}

func (c OwnerClass) String() string {
	switch c {
	case OwnerClassIndividual:
		return "individual"
	case OwnerClassGroup:
		return "group"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// # Entities

// Thanked is one recipient line of a thank-you: either a user or a group,
// resolved to a display name.
type Thanked struct {
	ID         int        `json:"id"`
	OwnerClass OwnerClass `json:"oclass"`
	ObjectID   int        `json:"object_id"`
	Name       string     `json:"name"`

	// ExtranetID is set for user recipients only.
	ExtranetID int `json:"ext_id,omitempty"`
}

// ThankYou is a recognition note.
//
// The Thanked, Users, and Tags collections are nil until explicitly loaded;
// nil and empty mean different things here. A nil collection passed to Save
// leaves the stored associations untouched, an empty one clears them.
type ThankYou struct {
	ID          int            `json:"id"`
	Author      directory.User `json:"author"`
	Description string         `json:"description"`
	DateCreated time.Time      `json:"date_created"`

	// Thanked holds the recipient lines as authored (users and groups).
	Thanked []Thanked `json:"thanked,omitempty"`

	// Users holds the flattened per-user view of Thanked, with group
	// recipients expanded to their members.
	Users []directory.User `json:"users,omitempty"`

	// Tags holds the resolved tag entities.
	Tags []*tag.Tag `json:"tags,omitempty"`

	// TagIDs mirrors Tags for writes: nil leaves stored tag links alone,
	// non-nil replaces them.
	TagIDs []int `json:"-"`

	// UserIDs mirrors Users for writes, same nil contract.
	UserIDs []int `json:"-"`
}

// # Sortable Dates

// Created timestamps are stored as sortable integers, YYYYMMDDHHMMSS in UTC.
// The format survived from the platform the feature grew up on; it sorts
// correctly as a plain integer and round-trips without timezone surprises.

// ToSortableDate converts a time to its stored integer form, in UTC.
func ToSortableDate(t time.Time) int64 {
	t = t.UTC()
	return int64(t.Year())*1e10 +
		int64(t.Month())*1e8 +
		int64(t.Day())*1e6 +
		int64(t.Hour())*1e4 +
		int64(t.Minute())*1e2 +
		int64(t.Second())
}

// FromSortableDate parses a stored integer timestamp back into a UTC time.
// Values that do not decode to a real calendar moment return an error.
func FromSortableDate(v int64) (time.Time, error) {
	if v < 0 {
		return time.Time{}, fmt.Errorf("sortable date %d is negative", v)
	}

	second := int(v % 1e2)
	minute := int(v / 1e2 % 1e2)
	hour := int(v / 1e4 % 1e2)
	day := int(v / 1e6 % 1e2)
	month := int(v / 1e8 % 1e2)
	year := int(v / 1e10)

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)

	// time.Date normalizes out-of-range components (month 13 becomes
	// January next year); a round-trip mismatch means the input was not a
	// real timestamp.
	if ToSortableDate(t) != v {
		return time.Time{}, fmt.Errorf("sortable date %d does not decode to a valid timestamp", v)
	}

	return t, nil
}
