package schema

import (
	"encoding/json"
	"math"
	"math/big"
)

// NumberValue reports the float64 value of any Go numeric type, json.Number, *big.Int or
// *big.Float.
func NumberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case *big.Int:
		if n == nil {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	case *big.Float:
		if n == nil {
			return 0, false
		}
		f, _ := n.Float64()
		return f, true
	}
	return 0, false
}

// IsIntegral reports whether f has no fractional part. NaN and the infinities are not
// integral.
func IsIntegral(f float64) bool {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	return math.Trunc(f) == f
}
