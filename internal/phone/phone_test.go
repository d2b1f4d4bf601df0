package phone

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidate(t *testing.T) {
	cases := map[string]bool{
		"09123456789":    true,
		"+989123456789":  true,
		"00989123456789": true,
		"  09123456789 ": true,
		"":               false,
		"   ":            false,
		"0912345678":     false,
		"091234567890":   false,
		"08123456789":    false,
		"+98912345678a":  false,
		"0098912345678":  false,
		"+9891234567890": false,
		"9123456789":     false,
		"0912 345 6789":  false,
	}
	for in, want := range cases {
		if got := Validate(in); got != want {
			t.Fatalf("Validate(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"09123456789":      "09123456789",
		"+989123456789":    "09123456789",
		"00989123456789":   "09123456789",
		" +989123456789\t": "09123456789",
		" 09123456789 ":    "09123456789",
		"12345":            "12345",
		" not a number ":   " not a number ",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestNormalizeIdempotentOnValidInput(t *testing.T) {
	for _, in := range []string{"09120000000", "+989350000001", "00989990000002"} {
		once := Normalize(in)
		if !Validate(once) {
			t.Fatalf("normalized %q is not valid: %q", in, once)
		}
		if twice := Normalize(once); twice != once {
			t.Fatalf("expected idempotent normalize, got %q then %q", once, twice)
		}
		if shape, _ := Detect(once); shape != ShapeLocal {
			t.Fatalf("expected local shape for %q, got %s", once, shape)
		}
	}
}

func TestDetect(t *testing.T) {
	cases := map[string]Shape{
		"09123456789":    ShapeLocal,
		"+989123456789":  ShapeInternationalPlus,
		"00989123456789": ShapeInternationalZero,
	}
	for in, want := range cases {
		got, ok := Detect(in)
		if !ok || got != want {
			t.Fatalf("Detect(%q): expected %s, got %s (ok=%v)", in, want, got, ok)
		}
	}
	if _, ok := Detect("0912"); ok {
		t.Fatalf("expected no shape for short input")
	}
}

func TestRegisterValidation(t *testing.T) {
	v := validator.New()
	if err := RegisterValidation(v); err != nil {
		t.Fatalf("register: %v", err)
	}
	type form struct {
		Phone string `validate:"required,iranmobile"`
	}
	if err := v.Struct(form{Phone: "+989123456789"}); err != nil {
		t.Fatalf("expected valid phone, got %v", err)
	}
	if err := v.Struct(form{Phone: "12345"}); err == nil {
		t.Fatalf("expected validation error for bad phone")
	}
}
