package thalex

import "github.com/shopspring/decimal"

// RoundToTick rounds price to the nearest multiple of tick. Ties round away
// from zero. A non-positive tick returns price unchanged.
func RoundToTick(price, tick float64) float64 {
	return roundTick(price, tick, decimal.Decimal.Round)
}

// RoundDownToTick rounds price down to a multiple of tick.
func RoundDownToTick(price, tick float64) float64 {
	return roundTick(price, tick, func(d decimal.Decimal, _ int32) decimal.Decimal { return d.Floor() })
}

// RoundUpToTick rounds price up to a multiple of tick.
func RoundUpToTick(price, tick float64) float64 {
	return roundTick(price, tick, func(d decimal.Decimal, _ int32) decimal.Decimal { return d.Ceil() })
}

func roundTick(price, tick float64, round func(decimal.Decimal, int32) decimal.Decimal) float64 {
	if tick <= 0 {
		return price
	}
	t := decimal.NewFromFloat(tick)
	steps := round(decimal.NewFromFloat(price).Div(t), 0)
	f, _ := steps.Mul(t).Float64()
	return f
}
