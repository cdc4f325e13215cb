// Package duration resolves the fixed duration labels offered by the booking
// form ("30分", "1時間30分", "1h30m", "1 hour 30 minutes", ...) into exact
// elapsed times. Unrecognized labels fail loudly; there is no default.
package duration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseError reports a label that could not be resolved to a positive
// elapsed time.
type ParseError struct {
	Label string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized duration label %q", e.Label)
}

var hourMarkers = []string{"時間", "hours", "hour", "hrs", "hr", "h"}
var minuteMarkers = []string{"分", "minutes", "minute", "mins", "min", "m"}

// Parse resolves a duration label to an elapsed time.
//
// The grammar is tested in priority order: a minutes-only label ("30分",
// "45 min"), then a compound or hours-only label ("1時間30分", "2h",
// "1 hour 30 minutes"; the minutes sub-part may be absent and means zero).
// Anything left over after the recognized markers, a non-integer count, or a
// total of zero is a *ParseError.
func Parse(label string) (time.Duration, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return 0, &ParseError{Label: label}
	}

	hourIdx, hourMarker := findMarker(trimmed, hourMarkers)

	if hourIdx < 0 {
		minIdx, minMarker := findMarker(trimmed, minuteMarkers)
		if minIdx < 0 {
			return 0, &ParseError{Label: label}
		}
		minutes, ok := parseCount(trimmed[:minIdx])
		if !ok || strings.TrimSpace(trimmed[minIdx+len(minMarker):]) != "" {
			return 0, &ParseError{Label: label}
		}
		return positive(label, time.Duration(minutes)*time.Minute)
	}

	hours, ok := parseCount(trimmed[:hourIdx])
	if !ok {
		return 0, &ParseError{Label: label}
	}

	rest := strings.TrimSpace(trimmed[hourIdx+len(hourMarker):])
	minutes := 0
	if rest != "" {
		minIdx, minMarker := findMarker(rest, minuteMarkers)
		if minIdx < 0 {
			return 0, &ParseError{Label: label}
		}
		minutes, ok = parseCount(rest[:minIdx])
		if !ok || strings.TrimSpace(rest[minIdx+len(minMarker):]) != "" {
			return 0, &ParseError{Label: label}
		}
	}

	return positive(label, time.Duration(hours)*time.Hour+time.Duration(minutes)*time.Minute)
}

// Minutes resolves a label to a whole number of minutes.
func Minutes(label string) (int, error) {
	d, err := Parse(label)
	if err != nil {
		return 0, err
	}
	return int(d / time.Minute), nil
}

func positive(label string, d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, &ParseError{Label: label}
	}
	return d, nil
}

// findMarker returns the position of the first marker present in s, trying
// longer markers first so "minutes" is not consumed as a bare "m". A marker
// that starts the string is ignored since no count could precede it.
func findMarker(s string, markers []string) (int, string) {
	for _, m := range markers {
		if idx := strings.Index(s, m); idx > 0 {
			return idx, m
		}
	}
	return -1, ""
}

func parseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
