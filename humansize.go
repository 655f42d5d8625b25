// humansize.go: human-friendly count parsing for CLI flags
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ergon

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCount parses a human-friendly slot/job count such as "256",
// "4K", or "1M" into an integer, for flags like -ring-capacity and
// -jobs on the ergon-bench command. Adapted from the byte-size parser
// the teacher uses for MaxSizeStr, narrowed to the K/M suffixes that
// make sense for a count rather than a byte quantity.
func ParseCount(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("ergon: empty count string")
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}

	upper := strings.ToUpper(s)
	var multiplier int64
	var numStr string
	switch {
	case strings.HasSuffix(upper, "K"):
		multiplier = 1_000
		numStr = upper[:len(upper)-1]
	case strings.HasSuffix(upper, "M"):
		multiplier = 1_000_000
		numStr = upper[:len(upper)-1]
	default:
		return 0, fmt.Errorf("ergon: unknown count suffix in %q (supported: K, M)", s)
	}

	val, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ergon: invalid count number in %q: %w", s, err)
	}
	result := val * multiplier
	if result <= 0 || result > (1<<31)-1 {
		return 0, fmt.Errorf("ergon: count %q out of range", s)
	}
	return int(result), nil
}
