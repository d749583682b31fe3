// Package timeofday handles the "HH:MM" strings used for scheduled posts and
// forwarding windows.
package timeofday

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/oops"
)

// Layout is the time.Format layout of a time-of-day string.
const Layout = "15:04"

var reHHMM = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// Parse validates a 24-hour time of day and returns it zero padded ("9:05" -> "09:05")
// together with the number of minutes since midnight.
func Parse(s string) (string, int, error) {
	s = strings.TrimSpace(s)
	m := reHHMM.FindStringSubmatch(s)
	if m == nil {
		return "", 0, oops.With("input", s).Wrap(errors.ErrInvalidTime)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return "", 0, oops.With("input", s).Wrap(errors.ErrInvalidTime)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), hour*60 + minute, nil
}

// Format renders t in loc with minute granularity.
func Format(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(Layout)
}

// InWindow reports whether t (in loc) falls inside [start, end]. Both bounds are
// inclusive. A window whose end is before its start wraps midnight. An empty
// bound disables the window.
func InWindow(t time.Time, loc *time.Location, start, end string) (bool, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return true, nil
	}
	_, from, err := Parse(start)
	if err != nil {
		return false, oops.With("bound", "start").Wrap(errors.ErrInvalidWindow)
	}
	_, to, err := Parse(end)
	if err != nil {
		return false, oops.With("bound", "end").Wrap(errors.ErrInvalidWindow)
	}
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	now := local.Hour()*60 + local.Minute()
	if from <= to {
		return now >= from && now <= to, nil
	}
	return now >= from || now <= to, nil
}
