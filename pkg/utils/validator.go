package utils

import (
	"fmt"
	"regexp"
)

var (
	emailShapeRegex = regexp.MustCompile(`\S+@\S+\.\S+`)
	phoneRegex      = regexp.MustCompile(`^\d{10}$`)
	controlRegex    = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)
)

// IsEmailShape reports whether s looks like local@domain.tld
func IsEmailShape(s string) bool {
	return emailShapeRegex.MatchString(s)
}

// IsTenDigitPhone reports whether s is exactly 10 ASCII digits
func IsTenDigitPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// ValidatePercentage validates a rate expressed in percent
func ValidatePercentage(rate float64) error {
	if rate < 0 || rate > 100 {
		return fmt.Errorf("percentage out of range: %.2f", rate)
	}
	return nil
}

// SanitizeString removes control characters other than tab and newline
func SanitizeString(s string) string {
	return controlRegex.ReplaceAllString(s, "")
}
