package validate

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxDisplayNameLength bounds user-chosen display names.
const MaxDisplayNameLength = 32

// DisplayName checks an optional display name: at most 32 characters
// and not whitespace-only.
func DisplayName(name string) error {
	if name == "" {
		return nil
	}
	if len(name) > MaxDisplayNameLength {
		return fmt.Errorf("display name must be %d characters or less", MaxDisplayNameLength)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("display name cannot be only whitespace")
	}
	return nil
}

// AgeRange checks an optional age range in "18-25" form, bounded to
// 13..100 with start strictly below end.
func AgeRange(ageRange string) error {
	if ageRange == "" {
		return nil
	}
	parts := strings.Split(ageRange, "-")
	if len(parts) != 2 {
		return fmt.Errorf("age range must be in format '18-25'")
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return fmt.Errorf("age range must contain valid numbers")
	}
	if start < 13 || end > 100 {
		return fmt.Errorf("age range must be between 13 and 100")
	}
	if start >= end {
		return fmt.Errorf("start age must be less than end age")
	}
	return nil
}

// SanitizeText collapses runs of whitespace.
func SanitizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
