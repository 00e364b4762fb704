// Copyright (c) 2026 Intravine. All rights reserved.

package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCachedUser(t *testing.T) {
	payload := `{"id":42,"first_name":"Ada","surname":"Okafor","ex_area_id":3}`

	u, ok := decodeCachedUser(payload, 42)
	require.True(t, ok)
	assert.Equal(t, 42, u.ID)
	assert.Equal(t, "Ada", u.FirstName)
}

func TestDecodeCachedUser_RejectsBadPayloads(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
	}{
		{"corrupt json", `{"id":42,`},
		{"empty object has zero id", `{}`},
		{"id belongs to another user", `{"id":7,"first_name":"Ada"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := decodeCachedUser(tc.payload, 42)
			assert.False(t, ok, "payload must be treated as a cache miss")
		})
	}
}

func TestDecodeCachedGroup(t *testing.T) {
	g, ok := decodeCachedGroup(`{"id":9,"name":"Platform"}`, 9)
	require.True(t, ok)
	assert.Equal(t, "Platform", g.Name)

	_, ok = decodeCachedGroup(`{"id":9,"name":"Platform"}`, 10)
	assert.False(t, ok)

	_, ok = decodeCachedGroup(`not json`, 9)
	assert.False(t, ok)
}
