package service

import (
	"time"

	"govgate/internal/platform/config"
	"govgate/internal/verify/browser"
	"govgate/internal/verify/extract"
	"govgate/internal/verify/gateway"
	"govgate/internal/verify/models"
)

// passportTestSeries marks development queries: while the integration is
// disabled, this series gets a canned INVALID verdict so client teams can
// exercise the rejection path.
const passportTestSeries = "0000"

// PassportGateway checks an internal passport against the register of
// invalid passports.
type PassportGateway = gateway.Gateway[models.PassportQuery, models.PassportResult]

// NewPassport builds the passport-validity gateway.
func NewPassport(cfg config.PortalConfig, deps Deps) *PassportGateway {
	return newGateway[models.PassportQuery, models.PassportResult](PassportPortal{}, passportFormSpec(), cfg, deps)
}

// PassportPortal adapts the invalid-passport register to the gateway
// contract.
type PassportPortal struct{}

func (PassportPortal) Name() string { return "passport" }

func (PassportPortal) Normalize(q models.PassportQuery) models.PassportQuery { return q.Normalize() }

func (PassportPortal) Validate(q models.PassportQuery) error { return q.Validate() }

func (PassportPortal) CacheKey(q models.PassportQuery) string { return q.CacheKey() }

func (PassportPortal) FormValues(q models.PassportQuery) map[string]string {
	return map[string]string{
		"sr": q.Series,
		"nm": q.Number,
	}
}

func (PassportPortal) Parse(html string) gateway.Verdict[models.PassportResult] {
	result, meta := extract.ParsePassport(html)
	return gateway.Verdict[models.PassportResult]{
		Payload:       result,
		Positive:      result.Status == models.PassportInvalid,
		LowConfidence: meta.LowConfidence,
	}
}

func (PassportPortal) Disabled(q models.PassportQuery) (models.PassportResult, string) {
	if q.Series == passportTestSeries {
		return models.PassportResult{Status: models.PassportInvalid}, disabledMessage
	}
	return models.PassportResult{Status: models.PassportValid}, disabledMessage
}

func (PassportPortal) Fallback() models.PassportResult {
	return models.PassportResult{Status: models.PassportUnknown}
}

func passportFormSpec() browser.FormSpec {
	return browser.FormSpec{
		FormSelectors: []string{"form#form", "form[action*=info-service]"},
		Fields: []browser.Field{
			{Name: "sr", Selectors: []string{"input[name=sr]", "#sr"}},
			{Name: "nm", Selectors: []string{"input[name=nm]", "#nm"}},
		},
		CaptchaImage:    []string{"img#capimg", "img.captcha"},
		CaptchaInput:    []string{"input[name=captcha-input]", "#captcha-input"},
		SubmitSelectors: []string{"input[type=submit]", "button.submit"},
		SettleInterval:  2 * time.Second,
	}
}
