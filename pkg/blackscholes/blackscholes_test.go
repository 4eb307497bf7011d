package blackscholes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutCallParity(t *testing.T) {
	testCases := []struct {
		name                    string
		fwd, k, sigma, maturity float64
	}{
		{"atm", 30000, 30000, 0.5, 0.25},
		{"itm call", 32000, 30000, 0.6, 0.1},
		{"otm call", 28000, 30000, 0.8, 1},
		{"short dated", 1800, 2000, 0.7, 1.0 / 365},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			call := CallDiscount(tc.fwd, tc.k, tc.sigma, tc.maturity)
			put := PutDiscount(tc.fwd, tc.k, tc.sigma, tc.maturity)
			assert.InDelta(t, tc.fwd-tc.k, call-put, 1e-6)
			assert.Greater(t, call, 0.0)
			assert.Greater(t, put, 0.0)

			cd := CallDelta(tc.fwd, tc.k, tc.sigma, tc.maturity)
			assert.InDelta(t, cd-1, PutDelta(tc.fwd, tc.k, tc.sigma, tc.maturity), 1e-12)
		})
	}
}

func TestKnownValues(t *testing.T) {
	// atm with sigma*sqrt(T) = 0.2: d1 = 0.1
	fwd, k, sigma, maturity := 100.0, 100.0, 0.4, 0.25

	assert.InDelta(t, 7.965567, CallDiscount(fwd, k, sigma, maturity), 1e-5)
	assert.InDelta(t, 0.539828, CallDelta(fwd, k, sigma, maturity), 1e-5)
	assert.InDelta(t, 0.019848, Gamma(fwd, k, sigma, maturity), 1e-5)
	assert.InDelta(t, 0.198476, Vega(fwd, k, sigma, maturity), 1e-5)
}

func TestZeroVolTime(t *testing.T) {
	assert.Equal(t, 10.0, CallDiscount(110, 100, 0, 1))
	assert.Equal(t, 0.0, CallDiscount(90, 100, 0.5, 0))
	assert.Equal(t, 10.0, PutDiscount(110, 100, 0, 1))
	assert.Equal(t, 0.0, PutDiscount(90, 100, 0, 1))
	assert.Equal(t, 1.0, CallDelta(110, 100, 0, 1))
	assert.Equal(t, 0.0, CallDelta(90, 100, 0, 1))
	assert.Equal(t, -1.0, PutDelta(90, 100, 0, 1))
	assert.Equal(t, 0.0, Gamma(100, 100, 0, 1))
	assert.Equal(t, 0.0, Vega(100, 100, 0.5, 0))
}

func TestAllGreeks(t *testing.T) {
	fwd, k, sigma, maturity := 30000.0, 32000.0, 0.55, 0.3

	call := AllGreeks(fwd, k, sigma, maturity, false, nil)
	assert.InDelta(t, CallDelta(fwd, k, sigma, maturity), call.Delta, 1e-12)
	assert.InDelta(t, Gamma(fwd, k, sigma, maturity), call.Gamma, 1e-12)
	assert.InDelta(t, Vega(fwd, k, sigma, maturity), call.Vega, 1e-12)

	put := AllGreeks(fwd, k, sigma, maturity, true, nil)
	assert.InDelta(t, call.Delta-1, put.Delta, 1e-12)
	assert.InDelta(t, call.Gamma, put.Gamma, 1e-12)

	given := 0.42
	g := AllGreeks(fwd, k, sigma, maturity, false, &given)
	assert.Equal(t, 0.42, g.Delta)
	assert.Equal(t, 0.0, g.Theta)
}

func TestGreeksArithmetic(t *testing.T) {
	g := Greeks{Delta: 0.5, Gamma: 0.001, Vega: 10, Theta: -2}
	g.Add(Greeks{Delta: -0.25, Gamma: 0.001, Vega: 5, Theta: -1})
	assert.Equal(t, Greeks{Delta: 0.25, Gamma: 0.002, Vega: 15, Theta: -3}, g)

	g.Mult(-2)
	assert.Equal(t, Greeks{Delta: -0.5, Gamma: -0.004, Vega: -30, Theta: 6}, g)
	assert.Equal(t, "delta: -0.50, gamma: -0.00400, vega: -30.00, theta: 6.00", g.String())
}
