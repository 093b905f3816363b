package pricing

import (
	"regexp"
	"strconv"
)

// matchIndexRe finds the first standalone integer 1-10 in a response.
var matchIndexRe = regexp.MustCompile(`\b([1-9]|10)\b`)

// parseMatchIndexResponse extracts the 1-indexed candidate choice from a
// completion response. ok=false when no integer in [1,10] is present.
func parseMatchIndexResponse(raw string) (int, bool) {
	m := matchIndexRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	index, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return index, true
}
