package grouping

import (
	"math"
	"strconv"
	"strings"
)

// Composite score weights.
const (
	gpaWeight  = 0.6
	markWeight = 0.4

	markScale = 10.0
	gpaScale  = 4.0
)

// CompositeScore derives the ranking score. Without a supplementary mark the
// GPA is used as is.
func CompositeScore(gpa, mark float64) float64 {
	if mark == 0 {
		return gpa
	}
	return gpaWeight*gpa + markWeight*RescaleMark(mark)
}

// RescaleMark converts a 10-point mark to the 4-point scale.
func RescaleMark(mark float64) float64 {
	return mark * gpaScale / markScale
}

// ParseMeasure reads a score value. Empty, malformed, NaN and infinite inputs
// become zero. A decimal comma is accepted.
func ParseMeasure(raw string) float64 {
	v, _ := LookupMeasure(raw)
	return v
}

// LookupMeasure is ParseMeasure that also reports whether raw held a usable
// number.
func LookupMeasure(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
