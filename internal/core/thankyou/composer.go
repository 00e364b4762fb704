package thankyou

import (
	"fmt"
	"strings"

	"github.com/intravine/kudos/internal/platform/database/schema"
)

// The composer turns a [Filter] into SQL for each repository operation.
// Everything here is pure string/args assembly so the join and predicate
// logic is unit-testable without a database.
//
// Table aliases, used consistently across all statements:
//
//	item - thankyou.item
//	tu   - thankyou.thanked_user (flattened recipients)
//	u    - directory.users
//	tg   - thankyou.tagged
//
// Joins are attached only when an active filter (or the operation's own
// anchor) needs them, deduplicated, and always in the same order:
// item -> thanked_user -> users, then item -> tagged. LEFT joins keep
// thank-yous without resolvable partners alive for the relaxed extranet
// filter; an operation that aggregates over a junction promotes that
// junction's join to INNER.

// joinSet records which joins a statement needs and which are INNER.
type joinSet struct {
	thankedUser      bool
	users            bool
	tagged           bool
	innerThankedUser bool
	innerTagged      bool
}

// joinsFor derives the joins an active filter requires. An id-set with no
// elements is an inactive dimension and pulls in nothing, matching the
// predicates it would get (none).
func joinsFor(filter Filter) joinSet {
	js := joinSet{}

	if len(filter.ThankedUserIDs) > 0 {
		js.thankedUser = true
	}
	if len(filter.ExtranetIDs) > 0 {
		js.thankedUser = true
		js.users = true
	}
	if len(filter.TagIDs) > 0 {
		js.tagged = true
	}

	return js
}

func writeJoins(builder *strings.Builder, js joinSet) {
	if js.thankedUser {
		kind := "LEFT JOIN"
		if js.innerThankedUser {
			kind = "JOIN"
		}
		fmt.Fprintf(builder, " %s %s tu ON tu.%s = item.%s",
			kind, schema.ThankedUser.Table, schema.ThankedUser.ItemID, schema.Item.ID)
	}

	if js.users {
		fmt.Fprintf(builder, " LEFT JOIN %s u ON u.%s = tu.%s",
			schema.Users.Table, schema.Users.ID, schema.ThankedUser.UserID)
	}

	if js.tagged {
		kind := "LEFT JOIN"
		if js.innerTagged {
			kind = "JOIN"
		}
		fmt.Fprintf(builder, " %s %s tg ON tg.%s = item.%s",
			kind, schema.Tagged.Table, schema.Tagged.ItemID, schema.Item.ID)
	}
}

// writePredicates appends the WHERE conditions for every active filter
// dimension, tracking positional args the way the rest of the SQL layer
// does ($n placeholders with a running counter).
func writePredicates(builder *strings.Builder, filter Filter, args *[]any, argID *int) {
	if filter.DateRange != nil {
		fmt.Fprintf(builder, " AND item.%s BETWEEN $%d AND $%d",
			schema.Item.DateCreated, *argID, *argID+1)
		*args = append(*args, filter.DateRange.Lower, filter.DateRange.Upper)
		*argID += 2
	}

	if len(filter.ThankedUserIDs) > 0 {
		fmt.Fprintf(builder, " AND tu.%s = ANY($%d)", schema.ThankedUser.UserID, *argID)
		*args = append(*args, filter.ThankedUserIDs)
		*argID++
	}

	if len(filter.ExtranetIDs) > 0 {
		if filter.AllowNoThanked {
			// Thank-yous with no surviving thanked user row pass the area
			// scoping instead of vanishing from the feed.
			fmt.Fprintf(builder, " AND (u.%s = ANY($%d) OR u.%s IS NULL)",
				schema.Users.ExAreaID, *argID, schema.Users.ID)
		} else {
			fmt.Fprintf(builder, " AND u.%s = ANY($%d)", schema.Users.ExAreaID, *argID)
		}
		*args = append(*args, filter.ExtranetIDs)
		*argID++
	}

	if len(filter.TagIDs) > 0 {
		fmt.Fprintf(builder, " AND tg.%s = ANY($%d)", schema.Tagged.TagID, *argID)
		*args = append(*args, filter.TagIDs)
		*argID++
	}
}

// composeRecentIDs builds the id-window statement behind the feed:
// newest first, stable across pages, deduplicated despite junction joins.
func composeRecentIDs(filter Filter, limit, offset int) (string, []any) {
	var builder strings.Builder
	var args []any
	argID := 1

	fmt.Fprintf(&builder, "SELECT item.%s FROM %s item", schema.Item.ID, schema.Item.Table)
	writeJoins(&builder, joinsFor(filter))
	builder.WriteString(" WHERE 1=1")
	writePredicates(&builder, filter, &args, &argID)

	// GROUP BY collapses the row multiplication the junction joins cause;
	// date_created is safe to order by because id is the primary key.
	fmt.Fprintf(&builder, " GROUP BY item.%s", schema.Item.ID)
	fmt.Fprintf(&builder, " ORDER BY item.%s DESC, item.%s DESC",
		schema.Item.DateCreated, schema.Item.ID)

	fmt.Fprintf(&builder, " LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	return builder.String(), args
}

// composeCount builds the companion count for composeRecentIDs. Same joins,
// same predicates, so the count always agrees with the unwindowed list.
func composeCount(filter Filter) (string, []any) {
	var builder strings.Builder
	var args []any
	argID := 1

	fmt.Fprintf(&builder, "SELECT COUNT(DISTINCT item.%s) FROM %s item",
		schema.Item.ID, schema.Item.Table)
	writeJoins(&builder, joinsFor(filter))
	builder.WriteString(" WHERE 1=1")
	writePredicates(&builder, filter, &args, &argID)

	return builder.String(), args
}

// composeTagTotals builds the per-tag usage aggregate for the admin
// statistics screen.
func composeTagTotals(filter Filter, orders []Order, limit, offset int) (string, []any, error) {
	if err := validateOrders(orders, tagTotalsOrderColumns, "tag totals"); err != nil {
		return "", nil, err
	}

	var builder strings.Builder
	var args []any
	argID := 1

	js := joinsFor(filter)
	js.tagged = true
	js.innerTagged = true

	fmt.Fprintf(&builder, "SELECT tg.%s, COUNT(DISTINCT item.%s) AS total_uses FROM %s item",
		schema.Tagged.TagID, schema.Item.ID, schema.Item.Table)
	writeJoins(&builder, js)
	builder.WriteString(" WHERE 1=1")
	writePredicates(&builder, filter, &args, &argID)

	fmt.Fprintf(&builder, " GROUP BY tg.%s", schema.Tagged.TagID)
	builder.WriteString(renderTagTotalsOrder(orders))

	fmt.Fprintf(&builder, " LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	return builder.String(), args, nil
}

func renderTagTotalsOrder(orders []Order) string {
	if len(orders) == 0 {
		return " ORDER BY total_uses DESC, tg." + schema.Tagged.TagID + " ASC"
	}

	parts := make([]string, 0, len(orders))
	for _, order := range orders {
		direction := "ASC"
		if order.Desc {
			direction = "DESC"
		}
		parts = append(parts, tagTotalsOrderColumns[order.Column]+" "+direction)
	}
	// Tag id keeps equal totals in a stable order.
	parts = append(parts, "tg."+schema.Tagged.TagID+" ASC")

	return " ORDER BY " + strings.Join(parts, ", ")
}

// composeUserTotals builds the per-user received-thanks aggregate.
func composeUserTotals(filter Filter, limit, offset int) (string, []any) {
	var builder strings.Builder
	var args []any
	argID := 1

	js := joinsFor(filter)
	js.thankedUser = true
	js.innerThankedUser = true

	fmt.Fprintf(&builder, "SELECT tu.%s, COUNT(DISTINCT item.%s) AS total_thank_yous FROM %s item",
		schema.ThankedUser.UserID, schema.Item.ID, schema.Item.Table)
	writeJoins(&builder, js)
	builder.WriteString(" WHERE 1=1")
	writePredicates(&builder, filter, &args, &argID)

	fmt.Fprintf(&builder, " GROUP BY tu.%s", schema.ThankedUser.UserID)
	fmt.Fprintf(&builder, " ORDER BY total_thank_yous DESC, tu.%s ASC", schema.ThankedUser.UserID)

	fmt.Fprintf(&builder, " LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	return builder.String(), args
}

// composeTotalUsers counts distinct thanked users under the filter.
func composeTotalUsers(filter Filter) (string, []any) {
	var builder strings.Builder
	var args []any
	argID := 1

	js := joinsFor(filter)
	js.thankedUser = true
	js.innerThankedUser = true

	fmt.Fprintf(&builder, "SELECT COUNT(DISTINCT tu.%s) FROM %s item",
		schema.ThankedUser.UserID, schema.Item.Table)
	writeJoins(&builder, js)
	builder.WriteString(" WHERE 1=1")
	writePredicates(&builder, filter, &args, &argID)

	return builder.String(), args
}

// composeTotalTags counts distinct tags in use under the filter.
func composeTotalTags(filter Filter) (string, []any) {
	var builder strings.Builder
	var args []any
	argID := 1

	js := joinsFor(filter)
	js.tagged = true
	js.innerTagged = true

	fmt.Fprintf(&builder, "SELECT COUNT(DISTINCT tg.%s) FROM %s item",
		schema.Tagged.TagID, schema.Item.Table)
	writeJoins(&builder, js)
	builder.WriteString(" WHERE 1=1")
	writePredicates(&builder, filter, &args, &argID)

	return builder.String(), args
}
