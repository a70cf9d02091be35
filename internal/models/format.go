package models

import (
	"strconv"
	"strings"
)

// none is how an absent value is rendered in display strings.
const none = "None"

// Ptr returns a pointer to v. Useful for populating optional fields.
func Ptr[T any](v T) *T {
	return &v
}

func optUint8(v *uint8) string {
	if v == nil {
		return none
	}
	return strconv.Itoa(int(*v))
}

func optInt(v *int) string {
	if v == nil {
		return none
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return none
	}
	return formatFloat(*v)
}

// formatFloat keeps at least one decimal so that 12 renders as "12.0".
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.ContainsAny(s, ".NI") {
		return s
	}
	return s + ".0"
}
