package ensemble

import (
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// exactDigits covers every fractional digit a float64 can carry.
const exactDigits = 1100

// Fixed2 renders x with two decimals. The exact binary value is rounded half
// away from zero, so 0.625 gives "0.63" and 1.005 (stored just below) gives "1.00".
func Fixed2(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', 2, 64)
	}
	exact := decimal.RequireFromString(new(big.Float).SetFloat64(x).Text('f', exactDigits))
	return exact.StringFixed(2)
}
