package utils

import "math"

// RoundToTwoDecimals rounds half away from zero.
func RoundToTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}
