package interest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeUsesDayCountFloor(t *testing.T) {
	p := decimal.NewFromInt(10000)
	r := decimal.NewFromInt(24)
	start := date(2024, time.January, 1)
	last := date(2024, time.January, 10)

	floored := Compute(p, r, start, last, 15)
	if floored.Days != 10 {
		t.Fatalf("expected raw day count 10, got %d", floored.Days)
	}
	// 15 accrual days at 2% monthly: 10000 * 2 * 15 / 3000
	if floored.Interest != 100 {
		t.Fatalf("expected interest 100 off the floored count, got %d", floored.Interest)
	}

	unfloored := Compute(p, r, start, last, 0)
	if unfloored.Interest != 67 {
		t.Fatalf("expected interest 67 off the raw count, got %d", unfloored.Interest)
	}
	if floored.Interest <= unfloored.Interest {
		t.Fatalf("floored interest %d must exceed unfloored %d", floored.Interest, unfloored.Interest)
	}
}

func TestComputeCompoundsFullYears(t *testing.T) {
	p := decimal.NewFromInt(100000)
	r := decimal.NewFromInt(12)

	res := Compute(p, r, date(2022, time.January, 1), date(2024, time.January, 1), 30)
	if res.Years != 2 || res.Months != 0 || res.DayPart != 1 {
		t.Fatalf("expected 2Y/0M/1D decomposition, got %s", res.Interval)
	}
	// 100000 -> 112000 -> 125440 over two full years, then one simple day
	// on the compounded base: 125440 * 1 * 1 / 3000 = 41.81
	if res.Interest != 25482 {
		t.Fatalf("expected interest 25482, got %d", res.Interest)
	}
	// naive simple interest for 24 months would be 24000
	if res.Interest == 24000 {
		t.Fatalf("interest must compound yearly, not accrue 24 simple months")
	}
}

func TestComputeSameDayChargesFloor(t *testing.T) {
	res := Compute(decimal.NewFromInt(12000), decimal.NewFromInt(24),
		date(2024, time.March, 5), date(2024, time.March, 5), 30)
	if res.Days != 1 {
		t.Fatalf("expected inclusive span of 1 day, got %d", res.Days)
	}
	// 30 floored days at 2% monthly: 12000 * 2 * 30 / 3000
	if res.Interest != 240 {
		t.Fatalf("expected interest 240, got %d", res.Interest)
	}
}

func TestComputeBorrowsAcrossMonthEnd(t *testing.T) {
	res := Compute(decimal.NewFromInt(10000), decimal.NewFromInt(12),
		date(2024, time.January, 31), date(2024, time.March, 1), 0)
	if res.Interval != "0Y/1M/0D" {
		t.Fatalf("expected 0Y/1M/0D after borrowing February, got %s", res.Interval)
	}
	if res.Days != 31 {
		t.Fatalf("expected raw day count 31, got %d", res.Days)
	}
	if res.Interest != 100 {
		t.Fatalf("expected one simple month of interest (100), got %d", res.Interest)
	}
}

func TestComputeInvalidInputsReturnSentinel(t *testing.T) {
	sentinel := NotComputable()
	cases := []Result{
		Compute(decimal.Zero, decimal.NewFromInt(24), date(2024, 1, 1), date(2024, 2, 1), 30),
		Compute(decimal.NewFromInt(-5), decimal.NewFromInt(24), date(2024, 1, 1), date(2024, 2, 1), 30),
		Compute(decimal.NewFromInt(1000), decimal.Zero, date(2024, 1, 1), date(2024, 2, 1), 30),
		Compute(decimal.NewFromInt(1000), decimal.NewFromInt(24), time.Time{}, date(2024, 2, 1), 30),
		Compute(decimal.NewFromInt(1000), decimal.NewFromInt(24), date(2024, 2, 1), date(2024, 1, 1), 30),
	}
	for i, res := range cases {
		if res != sentinel {
			t.Fatalf("case %d: expected sentinel %+v, got %+v", i, sentinel, res)
		}
	}
}

func TestComputeFromStrings(t *testing.T) {
	res := ComputeFromStrings("10000", "24", "2024-01-01", "2024-01-10", DefaultPolicy())
	if res.Interest != 100 || res.Days != 10 {
		t.Fatalf("expected promo floor of 15 days to apply, got %+v", res)
	}

	for _, bad := range []Result{
		ComputeFromStrings("", "24", "2024-01-01", "2024-01-10", DefaultPolicy()),
		ComputeFromStrings("10000", "", "2024-01-01", "2024-01-10", DefaultPolicy()),
		ComputeFromStrings("10000", "24", "not-a-date", "2024-01-10", DefaultPolicy()),
		ComputeFromStrings("10000", "24", "2024-01-01", "", DefaultPolicy()),
	} {
		if bad.Interest != 0 || bad.Days != 0 || bad.Interval != "N/A" {
			t.Fatalf("expected N/A sentinel for invalid input, got %+v", bad)
		}
	}
}

func TestComputeNonNegativeAndCountsAtLeastSpan(t *testing.T) {
	policy := DefaultPolicy()
	starts := []time.Time{date(2023, time.February, 28), date(2023, time.June, 15), date(2024, time.December, 31)}
	spans := []int{0, 1, 29, 90, 400}
	for _, s := range starts {
		for _, span := range spans {
			last := s.AddDate(0, 0, span)
			res := Compute(decimal.NewFromInt(50000), decimal.NewFromFloat(18.5), s, last, policy.MinDays(decimal.NewFromFloat(18.5)))
			if res.Interest < 0 {
				t.Fatalf("negative interest for span %d from %s", span, s)
			}
			if res.Days != span+1 {
				t.Fatalf("expected inclusive span %d, got %d", span+1, res.Days)
			}
		}
	}
}

func TestPolicyTable(t *testing.T) {
	p := DefaultPolicy()
	if got := p.MinDays(decimal.NewFromInt(24)); got != 15 {
		t.Fatalf("expected promo rate floor 15, got %d", got)
	}
	if got := p.MinDays(decimal.NewFromInt(12)); got != 30 {
		t.Fatalf("expected default floor 30, got %d", got)
	}

	parsed := ParsePolicy("24=15, 18=20, junk, 9=, =7", 45)
	if got := parsed.MinDays(decimal.NewFromInt(18)); got != 20 {
		t.Fatalf("expected parsed floor 20 for rate 18, got %d", got)
	}
	if got := parsed.MinDays(decimal.NewFromInt(33)); got != 45 {
		t.Fatalf("expected default floor 45, got %d", got)
	}
}
