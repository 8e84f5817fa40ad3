package youtube

import (
	"fmt"
	"regexp"
	"strconv"
)

// ShortsMaxSeconds is the longest duration classified as a Short.
const ShortsMaxSeconds = 60

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseDuration converts an ISO-8601 duration such as "PT1H2M3S" to seconds.
func ParseDuration(s string) (float64, error) {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}

	var total float64
	for i, unit := range []float64{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", s, err)
		}
		total += v * unit
	}
	return total, nil
}

// IsShort reports whether a video of the given length counts as a Short.
func IsShort(seconds float64) bool {
	return seconds > 0 && seconds <= ShortsMaxSeconds
}
