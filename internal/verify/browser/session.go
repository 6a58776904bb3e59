// Package browser drives a headless-browser page through one portal search
// attempt: open form, select mode, fill fields, solve captcha, submit, wait.
// Pages come from the external PageProvider and are always released on exit.
package browser

import (
	"context"
	"log/slog"
	"time"

	"govgate/internal/verify/ports"
	"govgate/internal/verify/verifyerr"
)

const submitFallbackScript = `document.forms[0] && document.forms[0].submit()`

// Session executes single portal search attempts. One Session serves a
// gateway for the process lifetime; per-attempt state lives on the page.
type Session struct {
	portal string
	url    string
	spec   FormSpec
	pages  ports.PageProvider
	solver ports.CaptchaSolver
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithSleep overrides the settle wait. Used by tests.
func WithSleep(f func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Session) {
		s.sleep = f
	}
}

// New creates a session for one portal.
func New(portal, url string, spec FormSpec, pages ports.PageProvider, solver ports.CaptchaSolver, opts ...Option) *Session {
	s := &Session{
		portal: portal,
		url:    url,
		spec:   spec,
		pages:  pages,
		solver: solver,
		logger: slog.Default(),
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs one search attempt end to end and returns the result page
// HTML. The page is released on every exit path. Callers bound the attempt
// with a context deadline; a deadline hit surfaces as a retryable timeout.
func (s *Session) Execute(ctx context.Context, values map[string]string) (string, error) {
	page, release, err := s.pages.Acquire(ctx, s.url)
	if err != nil {
		return "", verifyerr.New(verifyerr.CategoryPortalDown, s.portal, "acquire page", err)
	}
	defer release()

	if err := s.waitForm(ctx, page); err != nil {
		return "", err
	}
	s.selectMode(ctx, page)
	s.fillFields(ctx, page, values)

	if err := s.solveCaptcha(ctx, page); err != nil {
		return "", err
	}
	if err := s.submit(ctx, page); err != nil {
		return "", err
	}

	if err := s.sleep(ctx, s.spec.SettleInterval); err != nil {
		return "", verifyerr.New(verifyerr.CategoryTimeout, s.portal, "settle wait interrupted", err)
	}

	html, err := page.Content(ctx)
	if err != nil {
		return "", verifyerr.New(verifyerr.CategoryNavigation, s.portal, "read result page", err)
	}
	return html, nil
}

func (s *Session) waitForm(ctx context.Context, page ports.Page) error {
	var lastErr error
	for _, sel := range s.spec.FormSelectors {
		if err := page.WaitVisible(ctx, sel); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return verifyerr.New(verifyerr.CategoryTimeout, s.portal, "search form never appeared", lastErr)
}

// selectMode clicks the first matching mode switch. Best effort: portals
// without sub-modes simply have no selector present.
func (s *Session) selectMode(ctx context.Context, page ports.Page) {
	for _, sel := range s.spec.ModeSelectors {
		if !page.Exists(ctx, sel) {
			continue
		}
		if err := page.Click(ctx, sel); err == nil {
			return
		}
	}
}

// fillFields fills each field through its fallback chain. A field with no
// matching selector is logged and skipped, not failed: optional fields vary
// by portal variant.
func (s *Session) fillFields(ctx context.Context, page ports.Page, values map[string]string) {
	for _, field := range s.spec.Fields {
		value, ok := values[field.Name]
		if !ok || value == "" {
			continue
		}
		filled := false
		for _, sel := range field.Selectors {
			if err := page.Fill(ctx, sel, value); err == nil {
				filled = true
				break
			}
		}
		if !filled {
			s.logger.WarnContext(ctx, "no selector matched form field",
				"portal", s.portal,
				"field", field.Name,
			)
		}
	}
}

// solveCaptcha detects an image challenge, delegates it to the solver, and
// injects the answer. A captcha with no usable solver aborts the whole check:
// retrying cannot help.
func (s *Session) solveCaptcha(ctx context.Context, page ports.Page) error {
	imageSel := ""
	for _, sel := range s.spec.CaptchaImage {
		if page.Exists(ctx, sel) {
			imageSel = sel
			break
		}
	}
	if imageSel == "" {
		return nil
	}

	if s.solver == nil || !s.solver.Enabled() {
		return verifyerr.New(verifyerr.CategoryCaptchaUnsolvable, s.portal,
			"captcha present but solver disabled", nil)
	}

	image, err := page.CaptureElement(ctx, imageSel)
	if err != nil {
		return verifyerr.New(verifyerr.CategoryNavigation, s.portal, "capture captcha image", err)
	}

	answer, err := s.solver.Solve(ctx, image)
	if err != nil {
		return verifyerr.New(verifyerr.CategoryCaptchaFailed, s.portal, "captcha solve failed", err)
	}
	if answer == "" {
		return verifyerr.New(verifyerr.CategoryCaptchaUnsolvable, s.portal,
			"solver returned no solution", nil)
	}

	for _, sel := range s.spec.CaptchaInput {
		if err := page.Fill(ctx, sel, answer); err == nil {
			return nil
		}
	}
	return verifyerr.New(verifyerr.CategoryNavigation, s.portal, "no captcha input matched", nil)
}

func (s *Session) submit(ctx context.Context, page ports.Page) error {
	for _, sel := range s.spec.SubmitSelectors {
		if err := page.Click(ctx, sel); err == nil {
			return nil
		}
	}
	if err := page.RunScript(ctx, submitFallbackScript); err != nil {
		return verifyerr.New(verifyerr.CategoryNavigation, s.portal, "form submit failed", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
