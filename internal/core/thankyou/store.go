package thankyou

import (
	"context"

	"github.com/intravine/kudos/internal/directory"
)

// Repository is the storage facade for thank-yous. Every filtered operation
// validates its filter first (INVALID_FILTER without touching the database);
// an id-set with no elements constrains nothing and the dimension is ignored.
type Repository interface {
	// GetRecentThankYouIDs returns a page of ids, newest first, in a stable
	// deterministic order. No matches returns an empty slice, never nil ids.
	GetRecentThankYouIDs(context context.Context, limit, offset int, filter Filter) ([]int, error)

	// CountThankYous counts the distinct thank-yous the same filter would
	// list; the count and the unwindowed list always agree.
	CountThankYous(context context.Context, filter Filter) (int, error)

	// GetThankYousByIDs hydrates core rows. Missing ids are silently absent
	// from the map; authors resolve in one directory batch. Collections on
	// the returned entities stay nil.
	GetThankYousByIDs(context context.Context, ids []int) (map[int]*ThankYou, error)

	// GetThankedsByThankYouIDs loads the recipient lines, keyed by thank-you
	// id then thanked row id. A stored owner class this service does not
	// support discards the whole batch: callers get an empty result and a
	// data-integrity log entry rather than a partial answer.
	GetThankedsByThankYouIDs(context context.Context, ids []int) (map[int]map[int]Thanked, error)

	// GetUsersByThankYouIDs loads the flattened thanked users per thank-you
	// in a single directory batch. Users the directory no longer knows are
	// dropped.
	GetUsersByThankYouIDs(context context.Context, ids []int) (map[int][]directory.User, error)

	// GetTagIDsByThankYouIDs loads the tag links per thank-you, in stable
	// tag-id order.
	GetTagIDsByThankYouIDs(context context.Context, ids []int) (map[int][]int, error)

	// GetTagsTotalUses aggregates distinct thank-you counts per tag. Tag
	// ids named in the filter but absent from the result rows are
	// back-filled with 0.
	GetTagsTotalUses(context context.Context, orders []Order, limit, offset int, filter Filter) (map[int]int, error)

	// GetUsersTotalThankYous aggregates received counts per thanked user,
	// with the same zero back-fill contract for the thanked-user filter.
	GetUsersTotalThankYous(context context.Context, limit, offset int, filter Filter) (map[int]int, error)

	// GetTotalUsers counts distinct thanked users under the filter.
	GetTotalUsers(context context.Context, filter Filter) (int, error)

	// GetTotalTags counts distinct tags in use under the filter.
	GetTotalTags(context context.Context, filter Filter) (int, error)

	// Save inserts (ID 0) or updates a thank-you and, for every non-nil
	// collection, replaces its stored associations. The parent row and all
	// junction rewrites commit or roll back as one transaction.
	Save(context context.Context, thankYou *ThankYou) (int, error)

	// Delete removes a thank-you and its associations transactionally;
	// on failure the stored state is untouched.
	Delete(context context.Context, id int) error
}
