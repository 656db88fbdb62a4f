// Package datekey produces and compares canonical calendar-day keys (YYYY-MM-DD).
package datekey

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key is a calendar day in YYYY-MM-DD form.
type Key string

// Layout is the time layout matching Key.
const Layout = "2006-01-02"

// Today returns the key for the local calendar date.
func Today() Key {
	return FromTime(time.Now())
}

// FromTime returns the key for t's calendar date in t's location.
func FromTime(t time.Time) Key {
	return Key(fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day()))
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return string(k)
}

// IsNextDay reports whether b is exactly one calendar day after a.
// Malformed keys yield false.
func IsNextDay(a, b Key) bool {
	ay, am, ad, ok := split(a)
	if !ok {
		return false
	}
	by, bm, bd, ok := split(b)
	if !ok {
		return false
	}
	// time.Date normalizes out-of-range components, so a value like
	// 2024-01-32 is read as 2024-02-01.
	next := time.Date(ay, time.Month(am), ad+1, 12, 0, 0, 0, time.UTC)
	cur := time.Date(by, time.Month(bm), bd, 12, 0, 0, 0, time.UTC)
	return next.Year() == cur.Year() && next.Month() == cur.Month() && next.Day() == cur.Day()
}

func split(k Key) (y, m, d int, ok bool) {
	parts := strings.Split(string(k), "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], true
}
