/**
 * @description
 * Exact fixed-point money arithmetic for the betting engine.
 * All amounts are unsigned integers with 7 fractional decimal digits
 * (Scale = 10,000,000 smallest units = 1.0). Intermediate products are
 * computed in 128 bits via math/bits, so deposit*Scale never silently wraps.
 *
 * Overflow of a persisted amount is a fatal internal error: these functions
 * panic rather than wrap, and the API layer's recover middleware turns the
 * panic into a 500 with no partial commit.
 */

package betting

import (
	"fmt"
	"math/bits"
)

// Scale is the fixed-point denominator: 10,000,000 smallest units = 1.0.
const Scale uint64 = 10_000_000

// MinStake is the minimum prediction deposit, exactly 1.0 asset units.
const MinStake uint64 = 10_000_000

// mulDiv returns floor(a*b/div) with a 128-bit intermediate product.
func mulDiv(a, b, div uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if div == 0 || hi >= div {
		panic(fmt.Sprintf("fixedpoint: %d*%d/%d overflows", a, b, div))
	}
	q, _ := bits.Div64(hi, lo, div)
	return q
}

// mulDivCeil returns ceil(a*b/div) with a 128-bit intermediate product.
func mulDivCeil(a, b, div uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if div == 0 || hi >= div {
		panic(fmt.Sprintf("fixedpoint: %d*%d/%d overflows", a, b, div))
	}
	q, r := bits.Div64(hi, lo, div)
	if r > 0 {
		if q == ^uint64(0) {
			panic(fmt.Sprintf("fixedpoint: ceil(%d*%d/%d) overflows", a, b, div))
		}
		q++
	}
	return q
}

// checkedAdd returns a+b, panicking on wraparound.
func checkedAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		panic(fmt.Sprintf("fixedpoint: %d+%d overflows", a, b))
	}
	return sum
}

// FeeOf returns ceil(loserDeposit * feeRate / Scale): the commission retained
// from the losing side's pool. feeRate is itself Scale-denominated, so the
// 128-bit intermediate cannot overflow the divisor for any uint64 deposit.
func FeeOf(loserDeposit, feeRate uint64) uint64 {
	return mulDivCeil(loserDeposit, feeRate, Scale)
}

// ParticipationOf returns floor(deposit * Scale / sideTotal): the winner's
// Scale-denominated share of the winning pool. deposit <= sideTotal always
// holds, so the result is at most Scale.
func ParticipationOf(deposit, sideTotal uint64) uint64 {
	return mulDiv(deposit, Scale, sideTotal)
}

// RewardOf returns floor(prize * participation / Scale).
func RewardOf(prize, participation uint64) uint64 {
	return mulDiv(prize, participation, Scale)
}
