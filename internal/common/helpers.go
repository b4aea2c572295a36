package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	ALGODecimals = 6 // 1 ALGO = 1,000,000 microAlgos
)

// MicroToALGO converts microAlgos to ALGO string without float precision loss
func MicroToALGO(micro uint64) string {
	return formatWithDecimals(micro, ALGODecimals)
}

// ALGOToMicro converts ALGO string to microAlgos without float precision loss.
// Extra fractional digits are dropped (floor).
func ALGOToMicro(algo string) (uint64, error) {
	return parseWithDecimals(algo, ALGODecimals)
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(1500000, 6) = "1.500000"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("1.5", 6) = 1500000
func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if strings.Contains(frac, ".") {
		return 0, fmt.Errorf("invalid decimal format")
	}
	if whole == "" {
		whole = "0"
	}

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, err
	}

	scale := uint64(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	if w > math.MaxUint64/scale {
		return 0, fmt.Errorf("amount overflows")
	}

	var f uint64
	if hasFrac {
		// Pad or truncate fractional part to exact decimals
		if len(frac) < decimals {
			frac += strings.Repeat("0", decimals-len(frac))
		} else if len(frac) > decimals {
			frac = frac[:decimals]
		}
		if frac != "" {
			if f, err = strconv.ParseUint(frac, 10, 64); err != nil {
				return 0, err
			}
		}
	}

	if w*scale > math.MaxUint64-f {
		return 0, fmt.Errorf("amount overflows")
	}
	return w*scale + f, nil
}

// CompareALGOAmounts compares two ALGO decimal string amounts without float precision loss.
// Returns: -1 if a < b, 0 if a == b, 1 if a > b, and error if parsing fails
func CompareALGOAmounts(a, b string) (int, error) {
	aVal, err := parseWithDecimals(a, ALGODecimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", a, err)
	}

	bVal, err := parseWithDecimals(b, ALGODecimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", b, err)
	}

	if aVal < bVal {
		return -1, nil
	}
	if aVal > bVal {
		return 1, nil
	}
	return 0, nil
}
