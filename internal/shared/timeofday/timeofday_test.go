package timeofday

import (
	"testing"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
)

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    string
		minutes int
		wantErr bool
	}{
		{raw: "15:30", want: "15:30", minutes: 930},
		{raw: "9:05", want: "09:05", minutes: 545},
		{raw: " 00:00 ", want: "00:00", minutes: 0},
		{raw: "23:59", want: "23:59", minutes: 1439},
		{raw: "1530", wantErr: true},
		{raw: "24:00", wantErr: true},
		{raw: "12:60", wantErr: true},
		{raw: "+1:30", wantErr: true},
		{raw: "12:5", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, minutes, err := Parse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error", tt.raw)
				}
				if !errors.IsValidation(err) {
					t.Fatalf("Parse(%q) error %v is not a validation error", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			if got != tt.want || minutes != tt.minutes {
				t.Fatalf("Parse(%q) = %q, %d; want %q, %d", tt.raw, got, minutes, tt.want, tt.minutes)
			}
		})
	}
}

func TestFormatUsesLocation(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	utc := time.Date(2026, 1, 2, 10, 0, 45, 0, time.UTC)
	if got := Format(utc, loc); got != "15:30" {
		t.Fatalf("Format = %q, want 15:30", got)
	}
}

func TestInWindow(t *testing.T) {
	t.Parallel()
	at := func(h, m int) time.Time { return time.Date(2026, 1, 2, h, m, 0, 0, time.UTC) }
	tests := []struct {
		name       string
		now        time.Time
		start, end string
		want       bool
	}{
		{name: "disabled", now: at(3, 0), want: true},
		{name: "inside", now: at(10, 0), start: "09:00", end: "17:00", want: true},
		{name: "start inclusive", now: at(9, 0), start: "09:00", end: "17:00", want: true},
		{name: "end inclusive", now: at(17, 0), start: "09:00", end: "17:00", want: true},
		{name: "outside", now: at(18, 0), start: "09:00", end: "17:00", want: false},
		{name: "wrap late", now: at(23, 30), start: "22:00", end: "06:00", want: true},
		{name: "wrap early", now: at(5, 0), start: "22:00", end: "06:00", want: true},
		{name: "wrap outside", now: at(12, 0), start: "22:00", end: "06:00", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := InWindow(tt.now, time.UTC, tt.start, tt.end)
			if err != nil {
				t.Fatalf("InWindow error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("InWindow = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := InWindow(at(1, 0), time.UTC, "9am", "17:00"); !errors.IsValidation(err) {
		t.Fatalf("expected validation error for malformed window, got %v", err)
	}
}
