package pool

import (
	"errors"
	"time"
)

// ErrInvalidTimestamp is returned when no known layout matches.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Timestamp layouts written by LI-COR consoles, ordered by likelihood.
// Bluestem logs the observation date as "2006-01-02 15:04:05"; older
// firmware drops the dashes.
var instrumentLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"20060102 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an instrument timestamp. The fast path handles the
// dominant "YYYY-MM-DD HH:MM:SS" shape with byte arithmetic; everything
// else falls back to time.Parse over the known layouts.
func ParseTimestamp(b []byte) (time.Time, error) {
	if len(b) == 0 {
		return time.Time{}, ErrInvalidTimestamp
	}

	if len(b) >= 19 && b[4] == '-' && b[7] == '-' && (b[10] == ' ' || b[10] == 'T') {
		if t, ok := parseDateTimeFast(b); ok {
			return t, nil
		}
	}

	s := BytesToString(b)
	for _, layout := range instrumentLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, ErrInvalidTimestamp
}

func parseDateTimeFast(b []byte) (time.Time, bool) {
	if b[13] != ':' || b[16] != ':' {
		return time.Time{}, false
	}
	year, ok1 := parseDigits(b[0:4])
	month, ok2 := parseDigits(b[5:7])
	day, ok3 := parseDigits(b[8:10])
	hour, ok4 := parseDigits(b[11:13])
	minute, ok5 := parseDigits(b[14:16])
	second, ok6 := parseDigits(b[17:19])
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 60 {
		return time.Time{}, false
	}

	nsec := 0
	if len(b) > 19 {
		if b[19] != '.' {
			return time.Time{}, false
		}
		frac := 0
		scale := int(time.Second)
		for i := 20; i < len(b); i++ {
			if b[i] < '0' || b[i] > '9' {
				return time.Time{}, false
			}
			frac = frac*10 + int(b[i]-'0')
			scale /= 10
		}
		nsec = frac * scale
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, nsec, time.UTC), true
}

func parseDigits(b []byte) (int, bool) {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
