package utils

import "math"

func Ptr[T any](v T) *T {
	return &v
}

func Val[T any](p *T) T {
	if p != nil {
		return *p
	}
	var zero T
	return zero
}

// RoundMoney rounds half away from zero to two decimals.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
