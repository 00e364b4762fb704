// Copyright (c) 2026 Intravine. All rights reserved.

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositiveIntSlice(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []int
		wantErr  string
	}{
		{
			name:     "valid list",
			input:    "1,2,3",
			expected: []int{1, 2, 3},
		},
		{
			name:     "whitespace tolerated",
			input:    " 4 , 5 ",
			expected: []int{4, 5},
		},
		{
			name:     "empty string parses to empty",
			input:    "",
			expected: []int{},
		},
		{
			name:    "zero rejected",
			input:   "1,0,2",
			wantErr: `value "0" is not a positive integer`,
		},
		{
			name:    "negative rejected",
			input:   "-7",
			wantErr: `value "-7" is not a positive integer`,
		},
		{
			name:    "non numeric names offender",
			input:   "1,abc",
			wantErr: `value "abc" is not a positive integer`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PositiveIntSlice(tc.input)

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.EqualError(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
