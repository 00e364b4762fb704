package thankyou

import (
	"fmt"

	"github.com/intravine/kudos/internal/platform/apperr"
)

// # Date Range

// DateRange bounds thank-yous by creation time. Both bounds are sortable
// integers (YYYYMMDDHHMMSS, UTC) and both are required; an open-ended range
// is expressed by simply omitting the DateRange.
type DateRange struct {
	Lower int64
	Upper int64
}

func (r DateRange) validate() []apperr.FieldError {
	var errs []apperr.FieldError

	if _, err := FromSortableDate(r.Lower); err != nil || r.Lower == 0 {
		errs = append(errs, apperr.FieldError{
			Field:   "date_from",
			Message: fmt.Sprintf("%d is not a valid timestamp", r.Lower),
		})
	}
	if _, err := FromSortableDate(r.Upper); err != nil || r.Upper == 0 {
		errs = append(errs, apperr.FieldError{
			Field:   "date_to",
			Message: fmt.Sprintf("%d is not a valid timestamp", r.Upper),
		})
	}

	if len(errs) == 0 && r.Lower > r.Upper {
		errs = append(errs, apperr.FieldError{
			Field:   "date_from",
			Message: "lower bound is after upper bound",
		})
	}

	return errs
}

// # Filter

// Filter narrows every list and aggregate operation in this package.
//
// An id-set with no elements constrains nothing: the composer adds no
// predicate for it and the query matches every row, exactly as if the
// dimension had never been set.
type Filter struct {
	DateRange *DateRange

	// TagIDs keeps thank-yous carrying at least one of these tags.
	TagIDs []int

	// ThankedUserIDs keeps thank-yous where one of these users was thanked
	// (directly or through a group).
	ThankedUserIDs []int

	// ExtranetIDs keeps thank-yous whose thanked users belong to one of
	// these extranet areas.
	ExtranetIDs []int

	// AllowNoThanked relaxes the extranet scoping so thank-yous without any
	// resolvable thanked user still pass.
	AllowNoThanked bool
}

// Validate checks every active dimension and reports all offending values
// at once as an INVALID_FILTER error.
func (f Filter) Validate() error {
	var details []apperr.FieldError

	if f.DateRange != nil {
		details = append(details, f.DateRange.validate()...)
	}

	details = append(details, validateIDSet("tag_ids", f.TagIDs)...)
	details = append(details, validateIDSet("thanked_user_ids", f.ThankedUserIDs)...)
	details = append(details, validateIDSet("extranet_ids", f.ExtranetIDs)...)

	if len(details) > 0 {
		return apperr.InvalidFilter("Filter contains invalid values", details...)
	}
	return nil
}

func validateIDSet(field string, ids []int) []apperr.FieldError {
	var errs []apperr.FieldError
	for _, id := range ids {
		if id < 1 {
			errs = append(errs, apperr.FieldError{
				Field:   field,
				Message: fmt.Sprintf("%d is not a positive id", id),
			})
		}
	}
	return errs
}

// # Ordering

// Order is one (column, direction) pair of an ORDER BY.
type Order struct {
	Column string
	Desc   bool
}

// Column allow-lists per operation. Orders are validated against these
// before any SQL is composed; the rendered clause only ever contains
// names from here.
var (
	tagTotalsOrderColumns = map[string]string{
		"total_uses": "total_uses",
		"tag_id":     "tg.tag_id",
	}
)

func validateOrders(orders []Order, allowed map[string]string, operation string) error {
	var details []apperr.FieldError
	for _, order := range orders {
		if _, ok := allowed[order.Column]; !ok {
			details = append(details, apperr.FieldError{
				Field:   "order",
				Message: fmt.Sprintf("column %q cannot order %s", order.Column, operation),
			})
		}
	}
	if len(details) > 0 {
		return apperr.InvalidFilter("Unsupported order column", details...)
	}
	return nil
}
