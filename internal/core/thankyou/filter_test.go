package thankyou

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intravine/kudos/internal/platform/apperr"
)

func TestFilter_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{
			name:   "zero filter passes",
			filter: Filter{},
		},
		{
			name: "valid everything",
			filter: Filter{
				DateRange:      &DateRange{Lower: 20260101000000, Upper: 20261231235959},
				TagIDs:         []int{1, 2},
				ThankedUserIDs: []int{3},
				ExtranetIDs:    []int{4},
			},
		},
		{
			name:    "negative tag id",
			filter:  Filter{TagIDs: []int{1, -2}},
			wantErr: true,
		},
		{
			name:    "zero thanked user id",
			filter:  Filter{ThankedUserIDs: []int{0}},
			wantErr: true,
		},
		{
			name:    "date range with impossible month",
			filter:  Filter{DateRange: &DateRange{Lower: 20261301000000, Upper: 20261231235959}},
			wantErr: true,
		},
		{
			name:    "date range inverted",
			filter:  Filter{DateRange: &DateRange{Lower: 20261231235959, Upper: 20260101000000}},
			wantErr: true,
		},
		{
			name:    "date range missing bound",
			filter:  Filter{DateRange: &DateRange{Lower: 20260101000000}},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.filter.Validate()

			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, "INVALID_FILTER"))
		})
	}
}

func TestFilter_Validate_NamesEveryOffender(t *testing.T) {
	filter := Filter{
		TagIDs:         []int{-1},
		ThankedUserIDs: []int{0, 5},
	}

	err := filter.Validate()
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	require.Len(t, appError.Details, 2)
	assert.Equal(t, "tag_ids", appError.Details[0].Field)
	assert.Contains(t, appError.Details[0].Message, "-1")
	assert.Equal(t, "thanked_user_ids", appError.Details[1].Field)
	assert.Contains(t, appError.Details[1].Message, "0")
}

func TestFilter_EmptyIDSetsPassValidation(t *testing.T) {
	filter := Filter{
		TagIDs:         []int{},
		ThankedUserIDs: []int{},
		ExtranetIDs:    []int{},
	}

	assert.NoError(t, filter.Validate())
}
