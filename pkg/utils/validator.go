package utils

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the wire format for leave dates
const DateLayout = "2006-01-02"

// ValidateDateRange parses a start/end date pair and returns the inclusive
// duration in days
func ValidateDateRange(startDate, endDate string) (int, error) {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}

	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return 0, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}

	if end.Before(start) {
		return 0, fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}

	return int(end.Sub(start).Hours()/24) + 1, nil
}

// SanitizeString removes control characters from user-supplied text
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
