package util

import (
	"math"
	"strconv"
	"strings"
)

// ParseQuantity keeps only the ASCII digits of input and reads them as an integer.
// Empty or digit-free input is 0; values beyond the int range saturate.
func ParseQuantity(input string) int {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return math.MaxInt
	}
	return n
}
