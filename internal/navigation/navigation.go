// Package navigation names the two views the login flow moves between.
package navigation

import "context"

// Destination is a logical view, reachable only by name.
type Destination string

const (
	Public    Destination = "login"
	Protected Destination = "dashboard"
)

// Path is the URL path of the destination on the web surface.
func (d Destination) Path() string { return "/" + string(d) }

// Navigator moves the user to a destination and reports whether it worked.
type Navigator interface {
	Navigate(ctx context.Context, to Destination) error
}
