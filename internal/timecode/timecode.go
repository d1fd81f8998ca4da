package timecode

import (
	"strconv"
	"strings"
	"time"
)

// Parse converts a free-form time expression into a number of seconds. It
// accepts a plain decimal ("90", "2.5"), a clock form ("1:23", "1:23:45.5"),
// or a duration expression ("1h2m3s", "90s"). The second return value is
// false when the string cannot be parsed.
func Parse(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if v, ok := parseClock(s); ok {
		return v, true
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d.Seconds(), true
	}
	return 0, false
}

// parseClock handles "M:S" and "H:M:S". Leading fields must be unsigned
// integers; the seconds field may carry a fractional part.
func parseClock(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	var total float64
	for _, p := range parts[:len(parts)-1] {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return 0, false
		}
		total = total*60 + float64(n)
	}
	secs, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || secs < 0 {
		return 0, false
	}
	return total*60 + secs, true
}
