package surf

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// PacificZone is the zone whose provider timestamps drift off the 3-hour grid.
const PacificZone = "Pacific Time (US & Canada)"

// ErrBadTimestamp is returned for malformed or absent sample timestamps.
var ErrBadTimestamp = errors.New("bad timestamp")

// railsZones maps the display zone names stored on spots to IANA locations.
var railsZones = map[string]string{
	"Hawaii":                      "Pacific/Honolulu",
	"Alaska":                      "America/Juneau",
	PacificZone:                   "America/Los_Angeles",
	"Arizona":                     "America/Phoenix",
	"Mountain Time (US & Canada)": "America/Denver",
	"Central Time (US & Canada)":  "America/Chicago",
	"Eastern Time (US & Canada)":  "America/New_York",
	"Atlantic Time (Canada)":      "America/Halifax",
	"Mexico City":                 "America/Mexico_City",
	"Lima":                        "America/Lima",
	"Brasilia":                    "America/Sao_Paulo",
	"Puerto Rico":                 "America/Puerto_Rico",
	"UTC":                         "UTC",
	"London":                      "Europe/London",
	"Lisbon":                      "Europe/Lisbon",
	"Dublin":                      "Europe/Dublin",
	"Paris":                       "Europe/Paris",
	"Madrid":                      "Europe/Madrid",
	"Cape Town":                   "Africa/Johannesburg",
	"Jakarta":                     "Asia/Jakarta",
	"Tokyo":                       "Asia/Tokyo",
	"Brisbane":                    "Australia/Brisbane",
	"Sydney":                      "Australia/Sydney",
	"Perth":                       "Australia/Perth",
	"Auckland":                    "Pacific/Auckland",
}

// displayZones maps IANA locations back to their display names.
var displayZones = func() map[string]string {
	m := make(map[string]string, len(railsZones))
	for display, iana := range railsZones {
		m[iana] = display
	}
	return m
}()

// CanonicalZone returns the display name for an IANA identifier that has one,
// and name unchanged otherwise.
func CanonicalZone(name string) string {
	if display, ok := displayZones[name]; ok {
		return display
	}
	return name
}

// LoadZone resolves a spot timezone name, accepting display names as well as
// IANA identifiers.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("empty timezone name")
	}
	if iana, ok := railsZones[name]; ok {
		name = iana
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// ResolveEpoch interprets sec as seconds since the epoch, attributed to loc.
func ResolveEpoch(sec int64, loc *time.Location) time.Time {
	return time.Unix(sec, 0).In(loc)
}

var localLayouts = []string{
	"January 2, 2006 15:04:05",
	"January 2, 2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-1-2 15:04",
}

// ResolveLocal parses a local wall-clock date stamp in loc.
func ResolveLocal(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrBadTimestamp)
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// ResolveUTCWallClock parses "YYYY-M-D H" or "YYYY-MM-DD HH:MM" anchored at
// UTC. The provider has already adjusted the wall time.
func ResolveUTCWallClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrBadTimestamp)
	}
	if !strings.Contains(s, ":") {
		s += ":00"
	}
	t, err := time.ParseInLocation("2006-1-2 15:04", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	return t, nil
}

// CorrectRegional snaps Pacific timestamps forward onto the 3-hour UTC grid.
// The offset is taken from the UTC hour, since the grid the providers publish
// on is aligned to UTC rather than to Pacific wall time. Instants in any other
// zone are returned unchanged. zoneName must be canonical (see CanonicalZone).
func CorrectRegional(t time.Time, zoneName string) time.Time {
	if zoneName != PacificZone {
		return t
	}
	if offset := t.UTC().Hour() % 3; offset != 0 {
		return t.Add(time.Duration(3-offset) * time.Hour)
	}
	return t
}
