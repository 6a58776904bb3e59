package service

import (
	"time"

	"govgate/internal/platform/config"
	"govgate/internal/verify/browser"
	"govgate/internal/verify/extract"
	"govgate/internal/verify/gateway"
	"govgate/internal/verify/models"
)

// GibddGateway checks a vehicle for unpaid traffic fines on the traffic
// police portal.
type GibddGateway = gateway.Gateway[models.GibddQuery, models.FinesResult]

// NewGibdd builds the GIBDD fines-check gateway.
func NewGibdd(cfg config.PortalConfig, deps Deps) *GibddGateway {
	return newGateway[models.GibddQuery, models.FinesResult](GibddPortal{}, gibddFormSpec(), cfg, deps)
}

// GibddPortal adapts the traffic police portal to the gateway contract.
type GibddPortal struct{}

func (GibddPortal) Name() string { return "gibdd" }

func (GibddPortal) Normalize(q models.GibddQuery) models.GibddQuery { return q.Normalize() }

func (GibddPortal) Validate(q models.GibddQuery) error { return q.Validate() }

func (GibddPortal) CacheKey(q models.GibddQuery) string { return q.CacheKey() }

func (GibddPortal) FormValues(q models.GibddQuery) map[string]string {
	return map[string]string{
		"regnum": q.Plate,
		"regreg": q.Certificate,
	}
}

func (GibddPortal) Parse(html string) gateway.Verdict[models.FinesResult] {
	result, meta := extract.ParseFines(html)
	return gateway.Verdict[models.FinesResult]{
		Payload:       result,
		Positive:      result.HasFines,
		LowConfidence: meta.LowConfidence,
	}
}

func (GibddPortal) Disabled(q models.GibddQuery) (models.FinesResult, string) {
	return models.FinesResult{Fines: []models.Fine{}}, disabledMessage
}

func (GibddPortal) Fallback() models.FinesResult {
	return models.FinesResult{Fines: []models.Fine{}}
}

func gibddFormSpec() browser.FormSpec {
	return browser.FormSpec{
		FormSelectors: []string{"#checkFines", "form.check-form", "form[action*=fines]"},
		Fields: []browser.Field{
			{Name: "regnum", Selectors: []string{"input#checkFinesRegnum", "input[name=regnum]"}},
			{Name: "regreg", Selectors: []string{"input#checkFinesRegreg", "input[name=regreg]"}},
		},
		CaptchaImage:    []string{"#captchaImage", "img.captcha-img"},
		CaptchaInput:    []string{"input#captchaUserInput", "input[name=captcha_num]"},
		SubmitSelectors: []string{"#checkFinesSubmit", "button.check-submit", "button[type=submit]"},
		SettleInterval:  3 * time.Second,
	}
}
