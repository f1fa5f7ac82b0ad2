package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

func TestParseDate(t *testing.T) {
	d, err := domain.ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Errorf("String() = %q, want %q", d.String(), "2024-02-29")
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "2024-13-01", "01.02.2024", "2023-02-29"} {
		_, err := domain.ParseDate(s)
		var dateErr *domain.InvalidDateError
		if !errors.As(err, &dateErr) {
			t.Errorf("ParseDate(%q) = %v, want InvalidDateError", s, err)
		}
	}
}

func TestDate_DaysSince(t *testing.T) {
	cases := []struct {
		from, to string
		want     int
	}{
		{"2024-01-01", "2024-01-02", 1},
		{"2024-01-02", "2024-01-02", 0},
		{"2024-01-03", "2024-01-02", -1},
		{"2023-12-31", "2024-01-01", 1},
		{"2024-02-28", "2024-03-01", 2},
		{"2024-03-30", "2024-03-31", 1},
	}

	for _, tc := range cases {
		got := domain.MustParseDate(tc.to).DaysSince(domain.MustParseDate(tc.from))
		if got != tc.want {
			t.Errorf("%s.DaysSince(%s) = %d, want %d", tc.to, tc.from, got, tc.want)
		}
	}
}

func TestDateOf_UsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2024, 5, 1, 23, 30, 0, 0, loc)

	if got := domain.DateOf(ts).String(); got != "2024-05-01" {
		t.Errorf("DateOf = %q, want %q", got, "2024-05-01")
	}
}

func TestDate_TextRoundTrip(t *testing.T) {
	var d domain.Date
	if err := d.UnmarshalText([]byte("2024-06-15")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	b, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(b) != "2024-06-15" {
		t.Errorf("MarshalText = %q, want %q", b, "2024-06-15")
	}

	var zero domain.Date
	if err := zero.UnmarshalText(nil); err != nil || !zero.IsZero() {
		t.Errorf("empty input should give zero date, got %v (err %v)", zero, err)
	}
}
