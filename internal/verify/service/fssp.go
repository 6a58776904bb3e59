package service

import (
	"strconv"
	"strings"
	"time"

	"govgate/internal/platform/config"
	"govgate/internal/verify/browser"
	"govgate/internal/verify/extract"
	"govgate/internal/verify/gateway"
	"govgate/internal/verify/models"
)

// fsspTestSurname marks development queries: while the integration is
// disabled, surnames containing it get a canned positive verdict so client
// teams can exercise the debt-found path.
const fsspTestSurname = "ТЕСТОВ"

// FsspGateway checks a person for open enforcement proceedings on the
// bailiff service portal.
type FsspGateway = gateway.Gateway[models.FsspQuery, models.DebtResult]

// NewFssp builds the FSSP debt-check gateway.
func NewFssp(cfg config.PortalConfig, deps Deps) *FsspGateway {
	return newGateway[models.FsspQuery, models.DebtResult](FsspPortal{}, fsspFormSpec(), cfg, deps)
}

// FsspPortal adapts the bailiff service to the gateway contract.
type FsspPortal struct{}

func (FsspPortal) Name() string { return "fssp" }

func (FsspPortal) Normalize(q models.FsspQuery) models.FsspQuery { return q.Normalize() }

func (FsspPortal) Validate(q models.FsspQuery) error { return q.Validate() }

func (FsspPortal) CacheKey(q models.FsspQuery) string { return q.CacheKey() }

func (FsspPortal) FormValues(q models.FsspQuery) map[string]string {
	values := map[string]string{
		"lastname":  q.LastName,
		"firstname": q.FirstName,
		"region":    strconv.Itoa(q.RegionCode),
	}
	if q.Patronymic != "" {
		values["patronymic"] = q.Patronymic
	}
	if q.BirthDate != "" {
		values["birthdate"] = toPortalDate(q.BirthDate)
	}
	return values
}

func (FsspPortal) Parse(html string) gateway.Verdict[models.DebtResult] {
	result, meta := extract.ParseDebt(html)
	return gateway.Verdict[models.DebtResult]{
		Payload:       result,
		Positive:      result.HasDebt,
		LowConfidence: meta.LowConfidence,
	}
}

func (FsspPortal) Disabled(q models.FsspQuery) (models.DebtResult, string) {
	if strings.Contains(q.LastName, fsspTestSurname) {
		return models.DebtResult{
			HasDebt: true,
			Proceedings: []models.Proceeding{{
				Number:     "00000/00/00000-ИП",
				Subject:    "Тестовое исполнительное производство",
				Department: "Тестовый отдел судебных приставов",
				Amount:     12345.67,
			}},
			TotalProceedings: 1,
			TotalAmount:      12345.67,
		}, disabledMessage
	}
	return models.DebtResult{Proceedings: []models.Proceeding{}}, disabledMessage
}

func (FsspPortal) Fallback() models.DebtResult {
	return models.DebtResult{Proceedings: []models.Proceeding{}}
}

// toPortalDate converts YYYY-MM-DD to the DD.MM.YYYY the portal form expects.
func toPortalDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}

func fsspFormSpec() browser.FormSpec {
	return browser.FormSpec{
		FormSelectors: []string{"#search-form", "form.b-form", "form[action*=iss]"},
		ModeSelectors: []string{"#tab-fiz", "a[data-tab=fiz]"},
		Fields: []browser.Field{
			{Name: "lastname", Selectors: []string{`input[name="is[last_name]"]`, "#input-lastname", "input[name=lastname]"}},
			{Name: "firstname", Selectors: []string{`input[name="is[first_name]"]`, "#input-firstname", "input[name=firstname]"}},
			{Name: "patronymic", Selectors: []string{`input[name="is[patronymic]"]`, "#input-patronymic", "input[name=patronymic]"}},
			{Name: "birthdate", Selectors: []string{`input[name="is[date]"]`, "#input-birthdate", "input[name=birthdate]"}},
			{Name: "region", Selectors: []string{`select[name="is[region_id][]"]`, "#region-select", "input[name=region]"}},
		},
		CaptchaImage:    []string{"img#capchaVisual", "img.captcha-img"},
		CaptchaInput:    []string{"input#captcha-popup-code", "input[name=code]"},
		SubmitSelectors: []string{"#btn-sbm", "button.search-submit", "input[type=submit]"},
		SettleInterval:  3 * time.Second,
	}
}
