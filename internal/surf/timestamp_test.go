package surf

import (
	"errors"
	"testing"
	"time"
)

func TestLoadZone(t *testing.T) {
	cases := map[string]string{
		PacificZone:        "America/Los_Angeles",
		"Hawaii":           "Pacific/Honolulu",
		"Australia/Sydney": "Australia/Sydney",
		"UTC":              "UTC",
	}
	for in, want := range cases {
		loc, err := LoadZone(in)
		if err != nil {
			t.Fatalf("LoadZone(%q): %v", in, err)
		}
		if loc.String() != want {
			t.Fatalf("LoadZone(%q) = %s, want %s", in, loc, want)
		}
	}

	if _, err := LoadZone(""); err == nil {
		t.Fatalf("expected error for empty zone")
	}
	if _, err := LoadZone("Atlantis"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestResolveEpochKeepsWallClock(t *testing.T) {
	for _, name := range []string{PacificZone, "Hawaii", "London", "Sydney"} {
		loc, err := LoadZone(name)
		if err != nil {
			t.Fatalf("LoadZone: %v", err)
		}
		for _, want := range []time.Time{
			time.Date(2024, 1, 15, 6, 30, 0, 0, loc),
			time.Date(2024, 7, 4, 21, 0, 0, 0, loc),
		} {
			got := ResolveEpoch(want.Unix(), loc)
			if got.Hour() != want.Hour() || got.Minute() != want.Minute() || got.Location() != loc {
				t.Fatalf("%s: got %s, want %s", name, got, want)
			}
		}
	}
}

func TestResolveLocal(t *testing.T) {
	loc, _ := LoadZone(PacificZone)
	want := time.Date(2017, 3, 15, 4, 0, 0, 0, loc)

	for _, s := range []string{
		"March 15, 2017 04:00:00",
		"March 15, 2017 04:00",
		"2017-03-15 04:00:00",
		"2017-03-15T04:00:00",
	} {
		got, err := ResolveLocal(s, loc)
		if err != nil {
			t.Fatalf("ResolveLocal(%q): %v", s, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ResolveLocal(%q) = %s, want %s", s, got, want)
		}
	}

	for _, s := range []string{"", "  ", "tomorrow"} {
		if _, err := ResolveLocal(s, loc); !errors.Is(err, ErrBadTimestamp) {
			t.Fatalf("ResolveLocal(%q): expected ErrBadTimestamp, got %v", s, err)
		}
	}
}

func TestResolveUTCWallClock(t *testing.T) {
	want := time.Date(2014, 9, 18, 7, 0, 0, 0, time.UTC)
	for _, s := range []string{"2014-9-18 7", "2014-09-18 07:00", "2014-9-18 7:00"} {
		got, err := ResolveUTCWallClock(s)
		if err != nil {
			t.Fatalf("ResolveUTCWallClock(%q): %v", s, err)
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Fatalf("ResolveUTCWallClock(%q) = %s, want %s", s, got, want)
		}
	}

	for _, s := range []string{"", "2014-13-40 7", "noon"} {
		if _, err := ResolveUTCWallClock(s); !errors.Is(err, ErrBadTimestamp) {
			t.Fatalf("ResolveUTCWallClock(%q): expected ErrBadTimestamp, got %v", s, err)
		}
	}
}

func TestCorrectRegional(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 15, 0, 0, time.UTC)
	for h := 0; h < 24; h++ {
		in := base.Add(time.Duration(h) * time.Hour)
		got := CorrectRegional(in, PacificZone)

		r := h % 3
		if r == 0 {
			if !got.Equal(in) {
				t.Fatalf("hour %d: expected unchanged, got %s", h, got)
			}
			continue
		}
		if got.UTC().Hour()%3 != 0 {
			t.Fatalf("hour %d: corrected hour %d not on the 3-hour grid", h, got.UTC().Hour())
		}
		if diff := got.Sub(in); diff != time.Duration(3-r)*time.Hour {
			t.Fatalf("hour %d: shifted by %s, want %dh", h, diff, 3-r)
		}
		if got.Minute() != 15 {
			t.Fatalf("hour %d: minutes changed to %d", h, got.Minute())
		}
	}
}

func TestCorrectRegionalOtherZones(t *testing.T) {
	in := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)
	for _, zone := range []string{"Hawaii", "America/New_York", "Eastern Time (US & Canada)", ""} {
		if got := CorrectRegional(in, zone); !got.Equal(in) {
			t.Fatalf("%q: expected unchanged instant, got %s", zone, got)
		}
	}
}

func TestCanonicalZone(t *testing.T) {
	cases := map[string]string{
		"America/Los_Angeles": PacificZone,
		PacificZone:           PacificZone,
		"Pacific/Honolulu":    "Hawaii",
		"Europe/Berlin":       "Europe/Berlin",
	}
	for in, want := range cases {
		if got := CanonicalZone(in); got != want {
			t.Fatalf("CanonicalZone(%q) = %q, want %q", in, got, want)
		}
	}

	in := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := CorrectRegional(in, CanonicalZone("America/Los_Angeles")); !got.Equal(in.Add(2 * time.Hour)) {
		t.Fatalf("IANA Pacific zone was not corrected: %s", got)
	}
}
