package services

import (
	"strings"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

const civilDateLayout = "2006-01-02"

// ParseCivilDate parses a "YYYY-MM-DD" key. The weekday of the result is the
// calendar weekday of the date itself, independent of any time zone.
func ParseCivilDate(date string) (time.Time, error) {
	d, err := time.Parse(civilDateLayout, date)
	if err != nil {
		return time.Time{}, utils.NewValidationError("date", "must be YYYY-MM-DD")
	}
	return d, nil
}

// TodayIn returns today's civil date in the named zone, falling back to UTC.
func TodayIn(tz string, now time.Time) string {
	loc, err := time.LoadLocation(tz)
	if tz == "" || err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format(civilDateLayout)
}

func validateSlotInput(date, slotTime string) error {
	if _, err := ParseCivilDate(date); err != nil {
		return err
	}
	if strings.TrimSpace(slotTime) == "" {
		return utils.NewValidationError("time", "is required")
	}
	return nil
}
