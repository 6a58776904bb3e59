// Package pagehttp implements the page provider over plain HTTP. It drives
// server-rendered portal forms with GET and POST and approximates selector
// matching on the raw markup. Portals that render results client-side or
// show an image captcha need a real browser behind the same port instead.
package pagehttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"govgate/internal/verify/ports"
)

const maxBodyBytes = 4 << 20

var (
	idPat         = regexp.MustCompile(`#([\w-]+)`)
	attrPat       = regexp.MustCompile(`\[(\w+)=["']?([\w.-]+)["']?\]`)
	classPat      = regexp.MustCompile(`\.([\w-]+)`)
	formActionPat = regexp.MustCompile(`(?is)<form[^>]*\baction=["']?([^"'\s>]+)`)
)

var errNoSuchElement = errors.New("no element matched selector")

// Provider hands out one stateful form page per Acquire call.
type Provider struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithClient sets the HTTP client.
func WithClient(client *http.Client) Option {
	return func(p *Provider) {
		p.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New creates a provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire fetches the portal page and returns it ready for form interaction.
// The release function is a no-op; pages here hold no pooled resources.
func (p *Provider) Acquire(ctx context.Context, rawURL string) (ports.Page, func(), error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse portal url: %w", err)
	}

	html, err := p.fetch(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}

	page := &formPage{
		provider: p,
		base:     base,
		html:     html,
		values:   url.Values{},
	}
	return page, func() {}, nil
}

func (p *Provider) fetch(ctx context.Context, method, rawURL string, form url.Values) (string, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

// formPage holds the current markup and the form values accumulated through
// Fill. Click on a submit control posts them back to the form action.
type formPage struct {
	provider *Provider
	base     *url.URL
	html     string
	values   url.Values
}

func (f *formPage) WaitVisible(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !f.match(selector) {
		return fmt.Errorf("%w: %s", errNoSuchElement, selector)
	}
	return nil
}

func (f *formPage) Exists(ctx context.Context, selector string) bool {
	return ctx.Err() == nil && f.match(selector)
}

// Click submits the form for submit controls and is a no-op for anything
// else that matches, such as mode switches the server-side form ignores.
func (f *formPage) Click(ctx context.Context, selector string) error {
	if !f.match(selector) {
		return fmt.Errorf("%w: %s", errNoSuchElement, selector)
	}
	if isSubmitControl(selector) {
		return f.submit(ctx)
	}
	return nil
}

func (f *formPage) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !f.match(selector) {
		return fmt.Errorf("%w: %s", errNoSuchElement, selector)
	}
	f.values.Set(fieldName(selector), value)
	return nil
}

// CaptureElement always fails: there is no rendering engine to screenshot
// with. Captcha-guarded portals cannot run in HTTP mode.
func (f *formPage) CaptureElement(ctx context.Context, selector string) ([]byte, error) {
	return nil, errors.New("element capture requires a browser-backed page")
}

// RunScript cannot execute scripts. The one script callers send is the
// form-submit fallback, so that is what it does.
func (f *formPage) RunScript(ctx context.Context, script string) error {
	if strings.Contains(script, "submit()") {
		return f.submit(ctx)
	}
	return errors.New("script execution requires a browser-backed page")
}

func (f *formPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.html, nil
}

func (f *formPage) submit(ctx context.Context) error {
	action := f.base.String()
	if m := formActionPat.FindStringSubmatch(f.html); m != nil {
		ref, err := url.Parse(m[1])
		if err == nil {
			action = f.base.ResolveReference(ref).String()
		}
	}

	html, err := f.provider.fetch(ctx, http.MethodPost, action, f.values)
	if err != nil {
		return err
	}
	f.html = html
	return nil
}

// match approximates CSS selector matching against raw markup. It resolves
// the id, attribute, or class component of the selector to an attribute
// substring test, which is enough for the fallback chains the form specs use.
func (f *formPage) match(selector string) bool {
	if m := idPat.FindStringSubmatch(selector); m != nil {
		return f.hasAttr("id", m[1])
	}
	if m := attrPat.FindStringSubmatch(selector); m != nil {
		return f.hasAttr(m[1], m[2])
	}
	if m := classPat.FindStringSubmatch(selector); m != nil {
		return strings.Contains(f.html, m[1])
	}
	tag := strings.TrimSpace(selector)
	return tag != "" && strings.Contains(f.html, "<"+tag)
}

func (f *formPage) hasAttr(attr, value string) bool {
	return strings.Contains(f.html, attr+`="`+value+`"`) ||
		strings.Contains(f.html, attr+`='`+value+`'`)
}

// fieldName derives the form parameter name to post a value under.
func fieldName(selector string) string {
	if m := attrPat.FindStringSubmatch(selector); m != nil && m[1] == "name" {
		return m[2]
	}
	if m := idPat.FindStringSubmatch(selector); m != nil {
		return m[1]
	}
	if m := attrPat.FindStringSubmatch(selector); m != nil {
		return m[2]
	}
	return selector
}

func isSubmitControl(selector string) bool {
	s := strings.ToLower(selector)
	return strings.Contains(s, "submit") || strings.Contains(s, "button") ||
		strings.Contains(s, "btn")
}
