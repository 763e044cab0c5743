package valuation

import "strings"

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
