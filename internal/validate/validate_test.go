package validate

import (
	"math"
	"testing"
)

func TestPhoneGate(t *testing.T) {
	valid := []string{"09171234567", "09998887766"}
	for _, s := range valid {
		if !Phone(s) {
			t.Errorf("Phone(%q) = false, want true", s)
		}
	}

	invalid := []string{
		"9171234567",   // missing leading 0
		"639171234567", // country-code form
		"0917123456",   // 10 digits
		"091712345678", // 12 digits
		"0917-123-4567",
		"",
	}
	for _, s := range invalid {
		if Phone(s) {
			t.Errorf("Phone(%q) = true, want false", s)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9171234567", "09171234567"},   // leading 9, prefix 0
		{"0917-123-4567", "09171234567"}, // strip separators
		{"091712345678", "09171234567"}, // truncate to 11
		{"917", "0917"},
		{"1234", "091234"}, // short input gets the 09 prefix
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeThenValidate(t *testing.T) {
	// The mask is best effort: normalized output still has to pass the gate.
	if !Phone(NormalizePhone("9171234567")) {
		t.Error("normalized 10-digit 9-prefixed number should pass the gate")
	}
	if Phone(NormalizePhone("12345")) {
		t.Error("short junk should not pass the gate even after masking")
	}
}

func TestEmail(t *testing.T) {
	if !Email("maria@clinic.ph") {
		t.Error("valid address rejected")
	}
	for _, s := range []string{"maria", "maria@clinic", "@clinic.ph", "a b@clinic.ph", ""} {
		if Email(s) {
			t.Errorf("Email(%q) = true, want false", s)
		}
	}
}

func TestClampQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{"1", 1},
		{"0", 1},
		{"-5", 1},
		{"abc", 1},
		{"", 1},
	}
	for _, tc := range cases {
		if got := ClampQuantity(tc.in); got != tc.want {
			t.Errorf("ClampQuantity(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := ClampQuantityInt(-2); got != 1 {
		t.Errorf("ClampQuantityInt(-2) = %d, want 1", got)
	}
}

func TestClampCost(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"150.50", 150.50},
		{"0", 0},
		{"-20", 0},
		{"free", 0},
		{"", 0},
		// ParseFloat parses these without error; they must still floor to 0.
		{"NaN", 0},
		{"+Inf", 0},
		{"-Inf", 0},
		{"Infinity", 0},
	}
	for _, tc := range cases {
		if got := ClampCost(tc.in); got != tc.want {
			t.Errorf("ClampCost(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if got := ClampCostFloat(math.NaN()); got != 0 {
		t.Errorf("ClampCostFloat(NaN) = %v, want 0", got)
	}
	if got := ClampCostFloat(math.Inf(1)); got != 0 {
		t.Errorf("ClampCostFloat(+Inf) = %v, want 0", got)
	}
}
