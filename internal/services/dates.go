package services

import (
	"errors"
	"strings"
	"time"

	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

// Calendar days are Korean days. Stored times stay UTC.
var kst = time.FixedZone("KST", 9*60*60)

const dayLayout = "2006-01-02"

var (
	errDateFormat = errors.New("date must be YYYY-MM-DD")
	errDateOrder  = errors.New("start date after end date")
)

// DayRange is a half-open [From, To) interval of UTC instants. A nil bound is
// open.
type DayRange struct {
	From *time.Time
	To   *time.Time
}

// parseDayRange turns optional YYYY-MM-DD bounds into a range covering whole
// KST days, end date included.
func parseDayRange(startDate, endDate string) (DayRange, error) {
	var r DayRange
	if v := strings.TrimSpace(startDate); v != "" {
		day, err := time.ParseInLocation(dayLayout, v, kst)
		if err != nil {
			return DayRange{}, errDateFormat
		}
		from := day.UTC()
		r.From = &from
	}
	if v := strings.TrimSpace(endDate); v != "" {
		day, err := time.ParseInLocation(dayLayout, v, kst)
		if err != nil {
			return DayRange{}, errDateFormat
		}
		to := day.AddDate(0, 0, 1).UTC()
		r.To = &to
	}
	if r.From != nil && r.To != nil && !r.From.Before(*r.To) {
		return DayRange{}, errDateOrder
	}
	return r, nil
}

// kstDay returns the KST calendar day containing t and its UTC bounds.
func kstDay(t time.Time) (string, time.Time, time.Time) {
	local := t.In(kst)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, kst)
	return start.Format(dayLayout), start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// dateRangeErrors maps parse failures onto a caller's codes.
type dateRangeErrors struct {
	format *apperrors.AppError
	order  *apperrors.AppError
}

func (m dateRangeErrors) translate(err error) error {
	if errors.Is(err, errDateOrder) {
		return m.order
	}
	return m.format
}
