package ir

import (
	"strconv"
)

// Text coerces a value to the text a pattern is matched against.
// Strings are used verbatim, numbers in their shortest decimal form, booleans
// as "true"/"false", and composite values as canonical JSON.
func Text(v IRValue) string {
	switch val := v.(type) {
	case nil, IRNull:
		return ""
	case IRString:
		return string(val)
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRFloat:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case IRBool:
		return strconv.FormatBool(bool(val))
	default:
		data, err := MarshalCanonical(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Numeric returns the value as a float64 when it is a number.
func Numeric(v IRValue) (float64, bool) {
	switch val := v.(type) {
	case IRInt:
		return float64(val), true
	case IRFloat:
		return float64(val), true
	default:
		return 0, false
	}
}

// Describe renders a value for diagnostics: strings quoted, everything else
// as canonical JSON.
func Describe(v IRValue) string {
	switch val := v.(type) {
	case nil:
		return "<absent>"
	case IRNull:
		return "null"
	case IRString:
		return strconv.Quote(string(val))
	default:
		return Text(val)
	}
}
