package core

import (
	"fmt"
	"time"
)

// Period is a calendar month, the unit of budgeting granularity.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a "YYYY-MM" string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start returns midnight UTC on the first day of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns midnight UTC on the last day of the month. time.Date
// normalizes month 13, so December rolls over into January correctly.
func (p Period) End() time.Time {
	return time.Date(p.Year, p.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// DateRange is an inclusive [Start, End] day range for reports.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return ErrInvalidDateRange
	}
	return nil
}

// TodayRange covers the single day containing now.
func TodayRange(now time.Time) DateRange {
	day := truncateToDay(now)
	return DateRange{Start: day, End: day}
}

// WeekRange covers Monday through Sunday of the week containing now.
func WeekRange(now time.Time) DateRange {
	day := truncateToDay(now)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	monday := day.AddDate(0, 0, -offset)
	return DateRange{Start: monday, End: monday.AddDate(0, 0, 6)}
}

// MonthToDateRange covers the first of the current month through today.
func MonthToDateRange(now time.Time) DateRange {
	day := truncateToDay(now)
	return DateRange{Start: PeriodOf(now).Start(), End: day}
}

// Range covers the whole calendar month.
func (p Period) Range() DateRange {
	return DateRange{Start: p.Start(), End: p.End()}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
