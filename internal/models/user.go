package models

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Avatar holds the three picture sizes of a user.
type Avatar struct {
	Large     string `json:"large" validate:"required"`
	Medium    string `json:"medium" validate:"required"`
	Thumbnail string `json:"thumbnail" validate:"required"`
}

// UserRecord is the identity persisted as the session.
type UserRecord struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Avatar    Avatar `json:"avatar"`
}

// Session is derived from the store on every read and never persisted.
type Session struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	User            *UserRecord `json:"user"`
}

// ErrNilRecord is returned when validating a nil record.
var ErrNilRecord = errors.New("nil user record")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate reports whether every field of the record is present.
func (u *UserRecord) Validate() error {
	if u == nil {
		return ErrNilRecord
	}
	return recordValidator().Struct(u)
}

// Valid is shorthand for Validate() == nil.
func (u *UserRecord) Valid() bool {
	return u != nil && u.Validate() == nil
}

// FullName joins first and last name.
func (u *UserRecord) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
