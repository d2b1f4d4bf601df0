package auth

import (
	"fmt"

	"phonelogin/internal/autherr"
)

// Notice is what the user sees when a run fails.
type Notice struct {
	Kind      autherr.Kind   `json:"kind"`
	Reason    autherr.Reason `json:"reason,omitempty"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Remedy    string         `json:"remedy"`
	Status    int            `json:"status,omitempty"`
	Attempt   string         `json:"attempt,omitempty"`
	Retryable bool           `json:"retryable"`
	Exhausted bool           `json:"exhausted"`
}

// NewNotice renders err for display. retries is the number of failed
// attempts so far in this submission.
func NewNotice(err *autherr.Error, retries, max int) Notice {
	n := Notice{
		Kind:      err.Kind,
		Reason:    err.Reason,
		Message:   err.Message,
		Status:    err.Status,
		Retryable: err.Retryable,
	}
	n.Title, n.Remedy = describe(err)
	if err.Retryable {
		n.Attempt = fmt.Sprintf("attempt %d of %d", retries, max)
		if retries >= max {
			n.Exhausted = true
			n.Remedy = "No attempts left. Reset to start over."
		}
	}
	return n
}

func describe(err *autherr.Error) (title, remedy string) {
	switch err.Kind {
	case autherr.KindValidation:
		if err.Reason == autherr.ReasonEmptyInput {
			return "Phone number required", "Enter your mobile number to continue."
		}
		return "Invalid phone number", "Use the 09XXXXXXXXX format, or +989 / 00989 followed by nine digits."
	case autherr.KindNetwork:
		if err.Reason == autherr.ReasonTimeout {
			return "Request timed out", "The identity service took too long to answer. Check your connection and try again."
		}
		return "Network error", "Check your internet connection and try again."
	case autherr.KindAPI:
		if err.Status != 0 {
			return "Service error", fmt.Sprintf("The identity service answered with status %d. Try again in a moment.", err.Status)
		}
		return "Service error", "The identity service sent an incomplete answer. Try again in a moment."
	case autherr.KindStorage:
		if err.Reason == autherr.ReasonQuotaExceeded {
			return "Storage full", "Free up local storage space and try again."
		}
		return "Storage unavailable", "Your session could not be saved on this device. Try again."
	case autherr.KindRedirect:
		return "Could not open dashboard", "Try again to continue to your dashboard."
	default:
		return "Something went wrong", "Try again."
	}
}
