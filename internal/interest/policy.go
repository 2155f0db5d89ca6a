package interest

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultMinDays = 30

// Policy maps specific annual rates to a minimum-chargeable-day floor.
// Historically this was a single hardcoded "rate 24 charges 15 days"
// check; it is kept as a table so promotional rates stay configurable.
type Policy struct {
	DefaultDays int
	floors      []rateFloor
}

type rateFloor struct {
	rate decimal.Decimal
	days int
}

func DefaultPolicy() Policy {
	return Policy{
		DefaultDays: DefaultMinDays,
		floors: []rateFloor{
			{rate: decimal.NewFromInt(24), days: 15},
		},
	}
}

// ParsePolicy reads a "rate=days" comma list, e.g. "24=15,18=20".
// Malformed entries are skipped; an empty spec yields only the default.
func ParsePolicy(raw string, defaultDays int) Policy {
	if defaultDays <= 0 {
		defaultDays = DefaultMinDays
	}
	p := Policy{DefaultDays: defaultDays}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(kv[0]))
		if err != nil {
			continue
		}
		days, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil || days <= 0 {
			continue
		}
		p.floors = append(p.floors, rateFloor{rate: rate, days: days})
	}
	return p
}

// MinDays returns the floor for a given annual rate.
func (p Policy) MinDays(rate decimal.Decimal) int {
	for _, f := range p.floors {
		if f.rate.Equal(rate) {
			return f.days
		}
	}
	if p.DefaultDays <= 0 {
		return DefaultMinDays
	}
	return p.DefaultDays
}
