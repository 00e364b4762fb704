// Copyright (c) 2026 Intravine. All rights reserved.

// Package query provides helpers for parsing URL query parameter values.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// PositiveIntSlice parses a comma-separated list of positive integer ids.
//
// It is strict: any value that is not a positive integer fails the whole
// parse, and the error names the offending value so the caller can surface
// it to the client. An empty string parses to an empty slice.
func PositiveIntSlice(val string) ([]int, error) {
	if val == "" {
		return []int{}, nil
	}

	parts := strings.Split(val, ",")
	res := make([]int, 0, len(parts))

	for _, part := range parts {
		clean := strings.TrimSpace(part)
		n, err := strconv.Atoi(clean)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("value %q is not a positive integer", clean)
		}
		res = append(res, n)
	}

	return res, nil
}
