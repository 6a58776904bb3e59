// Package verifyerr provides the normalized failure taxonomy for portal
// verification. Stages raise these typed errors; the gateway is the single
// point converting them into fallback results.
package verifyerr

import (
	"errors"
	"fmt"
)

// Category classifies a verification failure.
type Category string

const (
	// CategoryTimeout indicates the portal took too long to respond.
	CategoryTimeout Category = "timeout"

	// CategoryNavigation indicates the page could not be driven as expected
	// (form never appeared, submit failed, content unreadable).
	CategoryNavigation Category = "navigation"

	// CategoryCaptchaUnsolvable indicates a captcha was present but the
	// solver is disabled or produced no solution. Never retried.
	CategoryCaptchaUnsolvable Category = "captcha_unsolvable"

	// CategoryCaptchaFailed indicates the solver errored mid-solve
	// (provider outage, solve timeout). Worth retrying with a fresh page.
	CategoryCaptchaFailed Category = "captcha_failed"

	// CategoryBadQuery indicates the query is malformed. Never retried.
	CategoryBadQuery Category = "bad_query"

	// CategoryPortalDown indicates the portal is unavailable.
	CategoryPortalDown Category = "portal_down"

	// CategoryInternal indicates an unexpected internal error.
	CategoryInternal Category = "internal"
)

// Error wraps a verification failure with normalized categorization.
type Error struct {
	Category   Category
	Portal     string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("portal %s [%s]: %s: %v", e.Portal, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("portal %s [%s]: %s", e.Portal, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates a categorized verification error. Retryability is derived from
// the category: transient portal conditions retry, malformed input and
// unsolvable captchas do not.
func New(category Category, portal, message string, underlying error) *Error {
	retryable := category == CategoryTimeout ||
		category == CategoryNavigation ||
		category == CategoryCaptchaFailed ||
		category == CategoryPortalDown

	return &Error{
		Category:   category,
		Portal:     portal,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable reports whether an attempt failure is worth retrying.
// Uncategorized errors are treated as transient; only an explicit
// non-retryable categorization aborts the retry loop.
func IsRetryable(err error) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Retryable
	}
	return true
}

// GetCategory extracts the category from an error.
func GetCategory(err error) Category {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Category
	}
	return CategoryInternal
}
