package util

import (
	"fmt"
	"strings"
)

// FormatNumber renders token counts compactly: 950, 1.2K, 3.4M.
func FormatNumber(n int64) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 1000000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// FormatCurrency renders a dollar amount with thousands separators.
func FormatCurrency(amount float64) string {
	str := fmt.Sprintf("%.2f", amount)

	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	if len(intPart) > 3 {
		chars := []rune(intPart)
		result := []rune{}
		for i := len(chars) - 1; i >= 0; i-- {
			if len(result) > 0 && len(result)%4 == 3 {
				result = append([]rune{','}, result...)
			}
			result = append([]rune{chars[i]}, result...)
		}
		intPart = string(result)
	}

	return fmt.Sprintf("$%s.%s", intPart, decPart)
}
