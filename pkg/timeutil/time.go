package timeutil

import (
	"net/http"
	"time"
)

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// HTTPDate formats t as an RFC 7231 HTTP-date ("Mon, 02 Jan 2006 15:04:05 GMT")
func HTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// ParseHTTPDate parses any of the HTTP-date layouts and returns a UTC time
func ParseHTTPDate(value string) (time.Time, error) {
	t, err := http.ParseTime(value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Skew returns the absolute distance between two instants
func Skew(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
