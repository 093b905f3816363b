package rating

import (
	"regexp"
	"strconv"
)

// ratingRe finds the first standalone integer 1-10 in a response.
var ratingRe = regexp.MustCompile(`\b([1-9]|10)\b`)

// parseRatingResponse extracts a 1-10 rating from a completion response.
// ok=false when no integer in range is present.
func parseRatingResponse(raw string) (int, bool) {
	m := ratingRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	rating, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return rating, true
}
