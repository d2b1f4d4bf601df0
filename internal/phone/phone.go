// Package phone validates and normalizes Iranian mobile numbers.
//
// Only three shapes are accepted, each a fixed prefix followed by exactly
// nine digits:
//
//	09XXXXXXXXX      local
//	+989XXXXXXXXX    international, plus form
//	00989XXXXXXXXX   international, zero form
//
// The canonical form of every valid number is the local shape.
package phone

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Shape identifies which accepted format a number was written in.
type Shape int

const (
	ShapeLocal Shape = iota + 1
	ShapeInternationalPlus
	ShapeInternationalZero
)

func (s Shape) String() string {
	switch s {
	case ShapeLocal:
		return "local"
	case ShapeInternationalPlus:
		return "international_plus"
	case ShapeInternationalZero:
		return "international_zero"
	default:
		return "unknown"
	}
}

const subscriberDigits = 9

type format struct {
	shape  Shape
	prefix string
}

var formats = []format{
	{ShapeLocal, "09"},
	{ShapeInternationalPlus, "+989"},
	{ShapeInternationalZero, "00989"},
}

// Detect reports the shape of the trimmed input, if any.
func Detect(input string) (Shape, bool) {
	s := strings.TrimSpace(input)
	for _, f := range formats {
		if len(s) != len(f.prefix)+subscriberDigits {
			continue
		}
		if strings.HasPrefix(s, f.prefix) && allDigits(s[len(f.prefix):]) {
			return f.shape, true
		}
	}
	return 0, false
}

// Validate reports whether input, after trimming, is an accepted number.
func Validate(input string) bool {
	_, ok := Detect(input)
	return ok
}

// Normalize returns the local form of a valid number. Valid input is
// trimmed of surrounding whitespace, so a local number comes back as-is
// apart from that. Invalid input is returned unchanged, untrimmed.
func Normalize(input string) string {
	shape, ok := Detect(input)
	if !ok {
		return input
	}
	s := strings.TrimSpace(input)
	switch shape {
	case ShapeInternationalPlus:
		return "0" + s[len("+98"):]
	case ShapeInternationalZero:
		return "0" + s[len("0098"):]
	default:
		return s
	}
}

// ValidationTag is the struct tag registered by RegisterValidation.
const ValidationTag = "iranmobile"

// RegisterValidation adds the iranmobile tag to v.
func RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation(ValidationTag, func(fl validator.FieldLevel) bool {
		return Validate(fl.Field().String())
	})
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
