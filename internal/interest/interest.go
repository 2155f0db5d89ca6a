package interest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	// daily denominator: monthly rate is per 30 days, percentages are /100
	threeThousand = decimal.NewFromInt(3000)
)

// Result carries the computed interest for display. Days is the raw
// inclusive calendar span, not the floored accrual count.
type Result struct {
	Interest int64  `json:"interest"`
	Days     int    `json:"days"`
	Years    int    `json:"years"`
	Months   int    `json:"months"`
	DayPart  int    `json:"day_part"`
	Interval string `json:"formatted_interval"`
}

// NotComputable is the display fallback for missing or invalid inputs.
// The calculator never returns an error; a screen rendering a loan row
// must not fail because one field is unparseable.
func NotComputable() Result {
	return Result{Interest: 0, Days: 0, Interval: "N/A"}
}

// Compute accrues interest on principal from start to last (inclusive)
// at annualRatePercent, charging at least minDays accrual days.
//
// The inclusive span is decomposed into calendar years/months/days with
// borrow, normalized to a 360-day financial year (months count 30 days).
// Each full year compounds onto the running base; remaining months and
// days accrue simple interest on the compounded base. When the normalized
// accrual count falls below minDays the day leg is padded up to the floor,
// never down.
func Compute(principal, annualRatePercent decimal.Decimal, start, last time.Time, minDays int) Result {
	if principal.Sign() <= 0 || annualRatePercent.Sign() <= 0 {
		return NotComputable()
	}
	if start.IsZero() || last.IsZero() {
		return NotComputable()
	}
	startDay := truncateToDay(start)
	lastDay := truncateToDay(last)
	if lastDay.Before(startDay) {
		return NotComputable()
	}

	// +1 day makes the interval inclusive of the as-of date
	end := lastDay.AddDate(0, 0, 1)
	rawDays := int(end.Sub(startDay).Hours() / 24)

	years, months, days := dateDiff(startDay, end)
	accrual := years*360 + months*30 + days
	dayLeg := days
	if minDays > accrual {
		dayLeg += minDays - accrual
	}

	total := principal
	for i := 0; i < years; i++ {
		total = total.Add(total.Mul(annualRatePercent).Div(hundred))
	}
	monthlyRate := annualRatePercent.Div(twelve)
	if months > 0 {
		total = total.Add(total.Mul(monthlyRate).Mul(decimal.NewFromInt(int64(months))).Div(hundred))
	}
	if dayLeg > 0 {
		total = total.Add(total.Mul(monthlyRate).Mul(decimal.NewFromInt(int64(dayLeg))).Div(threeThousand))
	}

	return Result{
		Interest: total.Sub(principal).Round(0).IntPart(),
		Days:     rawDays,
		Years:    years,
		Months:   months,
		DayPart:  days,
		Interval: fmt.Sprintf("%dY/%dM/%dD", years, months, days),
	}
}

// ComputeFromStrings is the forgiving entry used by display paths, where
// amounts and rates arrive as numeric text from the database or request.
// Any missing or unparseable value degrades to the zero-interest sentinel.
func ComputeFromStrings(principal, annualRatePercent, startDate, lastDate string, policy Policy) Result {
	p, err := decimal.NewFromString(strings.TrimSpace(principal))
	if err != nil {
		return NotComputable()
	}
	r, err := decimal.NewFromString(strings.TrimSpace(annualRatePercent))
	if err != nil {
		return NotComputable()
	}
	start, err := parseDate(startDate)
	if err != nil {
		return NotComputable()
	}
	last, err := parseDate(lastDate)
	if err != nil {
		return NotComputable()
	}
	return Compute(p, r, start, last, policy.MinDays(r))
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

// dateDiff subtracts calendar fields with borrow: a negative day delta
// borrows the prior month's length, a negative month delta borrows a year.
func dateDiff(from, to time.Time) (years, months, days int) {
	years = to.Year() - from.Year()
	months = int(to.Month()) - int(from.Month())
	days = to.Day() - from.Day()
	if days < 0 {
		months--
		prevYear, prevMonth := to.Year(), to.Month()-1
		if prevMonth < time.January {
			prevMonth = time.December
			prevYear--
		}
		days += daysInMonth(prevYear, prevMonth)
	}
	if months < 0 {
		years--
		months += 12
	}
	return years, months, days
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
