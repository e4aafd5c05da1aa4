package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dayWeekUnit = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)([dw])`)

// parseDurationExtended accepts Go durations plus d (24h) and w (7d) units,
// e.g. "36h", "7d", "1w2d", "-1.5d".
func parseDurationExtended(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("duration is required")
	}
	var convErr error
	expanded := dayWeekUnit.ReplaceAllStringFunc(raw, func(m string) string {
		parts := dayWeekUnit.FindStringSubmatch(m)
		n, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			convErr = err
			return m
		}
		hours := n * 24
		if parts[2] == "w" {
			hours *= 7
		}
		return strconv.FormatFloat(hours, 'f', -1, 64) + "h"
	})
	if convErr != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, convErr)
	}
	d, err := time.ParseDuration(expanded)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}
