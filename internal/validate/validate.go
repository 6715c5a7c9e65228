package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Local mobile format: 11 digits, 09 prefix.
	phoneRe    = regexp.MustCompile(`^09\d{9}$`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// Email reports whether s looks like a deliverable address.
func Email(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// Phone reports whether s matches the 11-digit 09-prefixed local format.
func Phone(s string) bool {
	return phoneRe.MatchString(s)
}

// NormalizePhone is the best-effort input mask applied as the user types.
// It strips non-digits, restores a leading "09" for common partial inputs
// and truncates to 11 digits. Validity is still re-checked with Phone at
// step-gate time.
func NormalizePhone(s string) string {
	digits := nonDigitRe.ReplaceAllString(s, "")
	if strings.HasPrefix(digits, "9") && len(digits) <= 10 {
		digits = "0" + digits
	} else if !strings.HasPrefix(digits, "09") && digits != "" && digits != "0" && len(digits) < 9 {
		digits = "09" + digits
	}
	if len(digits) > 11 {
		digits = digits[:11]
	}
	return digits
}

// Cost reports whether v is a usable money amount.
func Cost(v float64) bool {
	return v >= 0
}

// DurationMinutes reports whether v is a usable appointment duration.
func DurationMinutes(v int) bool {
	return v > 0
}

// Quantity reports whether v is a usable line-item quantity.
func Quantity(v int) bool {
	return v >= 1
}

// ClampQuantity coerces arbitrary quantity input to the nearest valid value:
// anything below 1 or non-numeric becomes 1.
func ClampQuantity(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 {
		return 1
	}
	return v
}

// ClampQuantityInt applies the same floor to an already-numeric quantity.
func ClampQuantityInt(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// ClampCost coerces arbitrary cost input to the nearest valid value:
// anything below 0 or non-numeric becomes 0. ParseFloat accepts "NaN" and
// "Inf" spellings without error, so the float clamp runs on every parse.
func ClampCost(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return ClampCostFloat(v)
}

// ClampCostFloat applies the same floor to an already-numeric cost.
// Non-finite values are floored too; a NaN or Inf unit cost would otherwise
// spread through every recomputed total.
func ClampCostFloat(v float64) float64 {
	if v < 0 || v != v || math.IsInf(v, 1) {
		return 0
	}
	return v
}
