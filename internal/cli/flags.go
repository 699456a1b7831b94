package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eshaffer321/coolingoff/internal/domain/cooling"
)

// ParseRange parses a --range flag value of the form min:max:days.
// An empty max ("500::7") means no upper bound.
func ParseRange(s string) (cooling.Range, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return cooling.Range{}, fmt.Errorf("invalid range %q: want min:max:days", s)
	}

	minAmount, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return cooling.Range{}, fmt.Errorf("invalid range %q: bad min: %w", s, err)
	}

	var maxAmount *float64
	if v := strings.TrimSpace(parts[1]); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cooling.Range{}, fmt.Errorf("invalid range %q: bad max: %w", s, err)
		}
		maxAmount = &parsed
	}

	days, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return cooling.Range{}, fmt.Errorf("invalid range %q: bad days: %w", s, err)
	}

	return cooling.Range{MinAmount: minAmount, MaxAmount: maxAmount, CoolingDays: days}, nil
}

// ParseRanges parses every --range value, keeping their order.
func ParseRanges(values []string) ([]cooling.Range, error) {
	ranges := make([]cooling.Range, 0, len(values))
	for _, v := range values {
		r, err := ParseRange(v)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}
