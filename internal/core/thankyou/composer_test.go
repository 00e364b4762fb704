package thankyou

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intravine/kudos/internal/platform/apperr"
)

func TestComposeRecentIDs_NoFilter(t *testing.T) {
	sql, args := composeRecentIDs(Filter{}, 20, 0)

	assert.Equal(t,
		"SELECT item.id FROM thankyou.item item WHERE 1=1"+
			" GROUP BY item.id ORDER BY item.date_created DESC, item.id DESC"+
			" LIMIT $1 OFFSET $2",
		sql)
	assert.Equal(t, []any{20, 0}, args)
}

func TestComposeRecentIDs_EmptyIDSetsConstrainNothing(t *testing.T) {
	// An id-set with no elements behaves exactly like an unset dimension:
	// no predicate, no join, the query matches every row.
	empty := Filter{
		TagIDs:         []int{},
		ThankedUserIDs: []int{},
		ExtranetIDs:    []int{},
	}

	emptySQL, emptyArgs := composeRecentIDs(empty, 20, 0)
	unfilteredSQL, unfilteredArgs := composeRecentIDs(Filter{}, 20, 0)

	assert.Equal(t, unfilteredSQL, emptySQL)
	assert.Equal(t, unfilteredArgs, emptyArgs)

	countSQL, _ := composeCount(empty)
	unfilteredCountSQL, _ := composeCount(Filter{})
	assert.Equal(t, unfilteredCountSQL, countSQL)
}

func TestComposeRecentIDs_JoinsOnlyWhatTheFilterNeeds(t *testing.T) {
	testCases := []struct {
		name         string
		filter       Filter
		wantJoins    []string
		missingJoins []string
	}{
		{
			name:   "thanked user filter pulls in the user junction only",
			filter: Filter{ThankedUserIDs: []int{5}},
			wantJoins: []string{
				"LEFT JOIN thankyou.thanked_user tu ON tu.item_id = item.id",
			},
			missingJoins: []string{"directory.users", "thankyou.tagged"},
		},
		{
			name:   "extranet filter pulls in the junction and the users table",
			filter: Filter{ExtranetIDs: []int{2}},
			wantJoins: []string{
				"LEFT JOIN thankyou.thanked_user tu ON tu.item_id = item.id",
				"LEFT JOIN directory.users u ON u.id = tu.user_id",
			},
			missingJoins: []string{"thankyou.tagged"},
		},
		{
			name:   "tag filter pulls in the tagged junction only",
			filter: Filter{TagIDs: []int{9}},
			wantJoins: []string{
				"LEFT JOIN thankyou.tagged tg ON tg.item_id = item.id",
			},
			missingJoins: []string{"thankyou.thanked_user", "directory.users"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, _ := composeRecentIDs(tc.filter, 10, 0)

			for _, join := range tc.wantJoins {
				assert.Contains(t, sql, join)
			}
			for _, join := range tc.missingJoins {
				assert.NotContains(t, sql, join)
			}
		})
	}
}

func TestComposeRecentIDs_JoinOrderIsFixed(t *testing.T) {
	filter := Filter{
		ThankedUserIDs: []int{1},
		ExtranetIDs:    []int{2},
		TagIDs:         []int{3},
	}

	sql, _ := composeRecentIDs(filter, 10, 0)

	thankedUserAt := strings.Index(sql, "thankyou.thanked_user")
	usersAt := strings.Index(sql, "directory.users")
	taggedAt := strings.Index(sql, "thankyou.tagged")

	require.NotEqual(t, -1, thankedUserAt)
	require.NotEqual(t, -1, usersAt)
	require.NotEqual(t, -1, taggedAt)

	assert.Less(t, thankedUserAt, usersAt)
	assert.Less(t, usersAt, taggedAt)

	// Each join appears exactly once even though two dimensions need tu.
	assert.Equal(t, 1, strings.Count(sql, "thankyou.thanked_user"))
}

func TestComposeRecentIDs_Predicates(t *testing.T) {
	filter := Filter{
		DateRange:      &DateRange{Lower: 20260101000000, Upper: 20261231235959},
		ThankedUserIDs: []int{7, 8},
		TagIDs:         []int{3},
	}

	sql, args := composeRecentIDs(filter, 10, 20)

	assert.Contains(t, sql, "item.date_created BETWEEN $1 AND $2")
	assert.Contains(t, sql, "tu.user_id = ANY($3)")
	assert.Contains(t, sql, "tg.tag_id = ANY($4)")
	assert.Contains(t, sql, "LIMIT $5 OFFSET $6")

	assert.Equal(t, []any{
		int64(20260101000000), int64(20261231235959),
		[]int{7, 8}, []int{3},
		10, 20,
	}, args)
}

func TestComposeRecentIDs_ExtranetRelaxation(t *testing.T) {
	strict, _ := composeRecentIDs(Filter{ExtranetIDs: []int{4}}, 10, 0)
	assert.Contains(t, strict, "AND u.ex_area_id = ANY($1)")
	assert.NotContains(t, strict, "u.id IS NULL")

	relaxed, _ := composeRecentIDs(Filter{ExtranetIDs: []int{4}, AllowNoThanked: true}, 10, 0)
	assert.Contains(t, relaxed, "AND (u.ex_area_id = ANY($1) OR u.id IS NULL)")
}

func TestComposeCount_MatchesListSemantics(t *testing.T) {
	filter := Filter{TagIDs: []int{3}, ThankedUserIDs: []int{7}}

	listSQL, listArgs := composeRecentIDs(filter, 10, 0)
	countSQL, countArgs := composeCount(filter)

	assert.True(t, strings.HasPrefix(countSQL, "SELECT COUNT(DISTINCT item.id) FROM thankyou.item item"))

	// Same joins and predicates as the list, so the numbers always agree.
	assert.Contains(t, countSQL, "LEFT JOIN thankyou.thanked_user tu")
	assert.Contains(t, countSQL, "LEFT JOIN thankyou.tagged tg")
	assert.Contains(t, countSQL, "tu.user_id = ANY($1)")
	assert.Contains(t, countSQL, "tg.tag_id = ANY($2)")

	assert.NotContains(t, countSQL, "LIMIT")
	assert.NotContains(t, countSQL, "ORDER BY")

	// The list carries the same filter args plus the window.
	assert.Equal(t, listArgs[:len(countArgs)], countArgs)
	assert.Contains(t, listSQL, "LIMIT")
}

func TestComposeTagTotals(t *testing.T) {
	filter := Filter{TagIDs: []int{1, 2}}

	sql, args, err := composeTagTotals(filter, nil, 50, 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql,
		"SELECT tg.tag_id, COUNT(DISTINCT item.id) AS total_uses FROM thankyou.item item"))

	// The aggregate anchors on the tagged junction with an INNER join.
	assert.Contains(t, sql, " JOIN thankyou.tagged tg ON tg.item_id = item.id")
	assert.NotContains(t, sql, "LEFT JOIN thankyou.tagged")

	assert.Contains(t, sql, "GROUP BY tg.tag_id")
	assert.Contains(t, sql, "ORDER BY total_uses DESC, tg.tag_id ASC")
	assert.Equal(t, []any{[]int{1, 2}, 50, 0}, args)
}

func TestComposeTagTotals_CustomOrder(t *testing.T) {
	sql, _, err := composeTagTotals(Filter{}, []Order{{Column: "tag_id", Desc: true}}, 10, 0)
	require.NoError(t, err)

	assert.Contains(t, sql, "ORDER BY tg.tag_id DESC, tg.tag_id ASC")
}

func TestComposeTagTotals_RejectsUnknownOrderColumn(t *testing.T) {
	_, _, err := composeTagTotals(Filter{}, []Order{{Column: "description"}}, 10, 0)

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "INVALID_FILTER"))
}

func TestComposeUserTotals(t *testing.T) {
	filter := Filter{ThankedUserIDs: []int{5}}

	sql, args := composeUserTotals(filter, 25, 50)

	assert.True(t, strings.HasPrefix(sql,
		"SELECT tu.user_id, COUNT(DISTINCT item.id) AS total_thank_yous FROM thankyou.item item"))
	assert.Contains(t, sql, " JOIN thankyou.thanked_user tu ON tu.item_id = item.id")
	assert.NotContains(t, sql, "LEFT JOIN thankyou.thanked_user")
	assert.Contains(t, sql, "GROUP BY tu.user_id")
	assert.Contains(t, sql, "ORDER BY total_thank_yous DESC, tu.user_id ASC")
	assert.Equal(t, []any{[]int{5}, 25, 50}, args)
}

func TestComposeTotals(t *testing.T) {
	usersSQL, _ := composeTotalUsers(Filter{})
	assert.Equal(t,
		"SELECT COUNT(DISTINCT tu.user_id) FROM thankyou.item item"+
			" JOIN thankyou.thanked_user tu ON tu.item_id = item.id WHERE 1=1",
		usersSQL)

	tagsSQL, _ := composeTotalTags(Filter{})
	assert.Equal(t,
		"SELECT COUNT(DISTINCT tg.tag_id) FROM thankyou.item item"+
			" JOIN thankyou.tagged tg ON tg.item_id = item.id WHERE 1=1",
		tagsSQL)
}
