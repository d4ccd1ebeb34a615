package profile

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Fixed formats x with digits decimals the way the dashboard's tooltips do:
// the exact binary value of x is rounded, and a tie goes away from zero.
// fmt's %f rounds the same tie to even, so 0.125 would print as 0.12.
func Fixed(x float64, digits int) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	case math.Abs(x) >= 1e21:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	digits = max(digits, 0)

	sign := ""
	if x < 0 {
		sign, x = "-", -x
	}
	r := new(big.Rat).SetFloat64(x)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))
	// r > 0, so truncation is floor(x*10^digits + 1/2)
	s := new(big.Int).Quo(r.Num(), r.Denom()).String()

	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	return sign + s
}
