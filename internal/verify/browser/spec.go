package browser

import "time"

// Field is one form input, located through an ordered list of selector
// candidates tried until one succeeds. Portals A/B-test their markup, so a
// missing match is tolerated: some fields are optional per portal variant.
type Field struct {
	Name      string
	Selectors []string
}

// FormSpec describes how to drive one portal's search form. Selector slices
// are fallback chains; first match wins.
type FormSpec struct {
	// FormSelectors locate the search form; the session waits for the first
	// one that appears before interacting with the page.
	FormSelectors []string

	// ModeSelectors optionally switch the form into the right search mode
	// (e.g. "search by individual" vs "by legal entity").
	ModeSelectors []string

	Fields []Field

	// CaptchaImage and CaptchaInput locate the image challenge and its
	// answer input when the portal shows one.
	CaptchaImage []string
	CaptchaInput []string

	// SubmitSelectors locate the submit control. When none matches the
	// session falls back to submitting the form from script.
	SubmitSelectors []string

	// SettleInterval is how long to wait after submit before reading the
	// result page. Portals render results client-side with no reliable
	// completion signal.
	SettleInterval time.Duration
}
