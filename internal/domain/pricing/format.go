package pricing

import (
	"strconv"
	"strings"
)

// FormatTHB renders an amount the way the form shows it: thousands grouped,
// fraction only when non-zero. 1050 -> "1,050 THB", 1049.3 -> "1,049.3 THB".
func FormatTHB(amount float64) string {
	s := strconv.FormatFloat(roundSatang(amount), 'f', 2, 64)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	b.WriteString(" " + Currency)

	return b.String()
}
