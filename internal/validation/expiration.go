package validation

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseExpiration turns the raw "expiration" field of a set request into whole
// seconds. Clients post either a JSON number or the text of a form input, so both
// are accepted. Anything that is not a finite number (missing, null, empty, "abc",
// true, objects) yields 0, which the cache treats as already expired. Fractions
// are truncated and out-of-range values saturate.
func ParseExpiration(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		return parseSeconds(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return parseSeconds(string(raw))
	default:
		return 0
	}
}

func parseSeconds(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !isRangeError(err) {
		return 0
	}
	return saturate(f)
}

func saturate(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

func isRangeError(err error) bool {
	numErr, ok := err.(*strconv.NumError)
	return ok && numErr.Err == strconv.ErrRange
}
