package domain

import (
	"testing"
	"time"
)

func TestParseDayUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	day, err := ParseDay("2024-03-10", loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)
	if !day.Equal(want) {
		t.Fatalf("expected %s, got %s", want, day.UTC())
	}
	if got := CalendarDate(day); !got.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected calendar date %s", got)
	}

	if _, err := ParseDay("10/03/2024", loc); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}

func TestDisplayCode(t *testing.T) {
	if got := DisplayCode(42); got != "#000042" {
		t.Fatalf("unexpected code %s", got)
	}
}
