// Package phone converts arbitrary phone number input into the local
// 0XXXXXXXXX form the payment gateway requires.
package phone

import "strings"

const localLength = 10

// Normalize strips everything but digits, rewrites a leading 254 country
// code to 0, prepends 0 when missing, and truncates to 10 digits. It is
// total: malformed input is returned as-is with ok=false so the caller can
// log a warning and decide whether to proceed.
func Normalize(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, "254") {
		digits = "0" + digits[3:]
	}
	if !strings.HasPrefix(digits, "0") {
		digits = "0" + digits
	}
	if len(digits) > localLength {
		digits = digits[:localLength]
	}

	return digits, len(digits) == localLength
}
