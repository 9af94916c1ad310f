package interval

import (
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
)

const secondsPerDay = 24 * 60 * 60

// DayKey identifies a civil date as the number of days since 1970-01-01.
// It depends only on the wall-clock date of an instant in its own location,
// so every instant of the same local day maps to the same key.
type DayKey int64

// KeyOf returns the DayKey of t's civil date in t's location.
func KeyOf(t time.Time) DayKey {
	y, m, d := t.Date()
	return DayKey(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// Date returns the first instant of the key's date in loc.
func (k DayKey) Date(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	utc := time.Unix(int64(k)*secondsPerDay, 0).UTC()
	return dateutil.StartOfDate(utc.Year(), utc.Month(), utc.Day(), loc)
}

// Add returns the key n days later (or earlier for negative n).
func (k DayKey) Add(n int) DayKey {
	return k + DayKey(n)
}

// String formats the key as YYYY-MM-DD.
func (k DayKey) String() string {
	return k.Date(time.UTC).Format("2006-01-02")
}
