package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govgate/internal/platform/config"
	"govgate/internal/verify/gateway"
	"govgate/internal/verify/models"
	"govgate/internal/verify/retry"
	"govgate/internal/verify/store"
)

const fsspResultsHTML = `
<html><body>
<table>
<tr><th>Должник</th><th>Исполнительное производство</th><th>Предмет</th><th>Сумма</th></tr>
<tr><td>ИВАНОВ ИВАН</td><td>12345/21/77001-ИП</td><td>Налог, сбор, пеня</td><td>5 000,50 руб.</td></tr>
<tr><td>ИВАНОВ ИВАН</td><td>67890/22/77001-ИП</td><td>Госпошлина</td><td>1500.00</td></tr>
</table>
</body></html>`

type htmlExec string

func (h htmlExec) Execute(ctx context.Context, values map[string]string) (string, error) {
	return string(h), nil
}

func disabledPortalConfig() config.PortalConfig {
	return config.PortalConfig{
		Enabled:             false,
		ServiceURL:          "https://portal.test",
		Timeout:             time.Second,
		RetryAttempts:       1,
		RetryBaseDelay:      time.Millisecond,
		CircuitThreshold:    5,
		CircuitResetTimeout: time.Minute,
		CacheTTL:            time.Hour,
	}
}

func TestFsspFormValues(t *testing.T) {
	query := models.FsspQuery{
		LastName:   "иванов",
		FirstName:  " иван ",
		BirthDate:  "1990-01-15",
		RegionCode: 77,
	}

	values := FsspPortal{}.FormValues(FsspPortal{}.Normalize(query))

	assert.Equal(t, "ИВАНОВ", values["lastname"])
	assert.Equal(t, "ИВАН", values["firstname"])
	assert.Equal(t, "15.01.1990", values["birthdate"], "portal wants DD.MM.YYYY")
	assert.Equal(t, "77", values["region"])
	assert.NotContains(t, values, "patronymic")
}

func TestFsspCheck_LiveThenCache(t *testing.T) {
	g := gateway.New[models.FsspQuery, models.DebtResult](
		FsspPortal{}, htmlExec(fsspResultsHTML),
		gateway.Config{Enabled: true, AttemptTimeout: time.Second, CacheTTL: time.Hour},
		gateway.WithCache[models.FsspQuery, models.DebtResult](store.NewMemoryCache()),
		gateway.WithRetryPolicy[models.FsspQuery, models.DebtResult](retry.New(1, time.Millisecond)),
	)
	query := models.FsspQuery{LastName: "Иванов", FirstName: "Иван", RegionCode: 77}

	first := g.Check(context.Background(), query)
	require.Equal(t, models.SourceLive, first.Source)
	assert.True(t, first.Payload.HasDebt)
	assert.Equal(t, 2, first.Payload.TotalProceedings)
	assert.InDelta(t, 6500.50, first.Payload.TotalAmount, 0.001)

	second := g.Check(context.Background(), query)
	assert.Equal(t, models.SourceCache, second.Source)
	assert.InDelta(t, 6500.50, second.Payload.TotalAmount, 0.001)
}

func TestFsspDisabled_TestSurnameGetsCannedDebt(t *testing.T) {
	g := NewFssp(disabledPortalConfig(), Deps{})

	result := g.Check(context.Background(), models.FsspQuery{
		LastName: "Тестов", FirstName: "Тест", RegionCode: 50,
	})

	require.Equal(t, models.SourceFallback, result.Source)
	assert.True(t, result.Payload.HasDebt)
	assert.Equal(t, 1, result.Payload.TotalProceedings)
	assert.NotEmpty(t, result.Message)
}

func TestFsspDisabled_OrdinarySurnameGetsCleanResult(t *testing.T) {
	g := NewFssp(disabledPortalConfig(), Deps{})

	result := g.Check(context.Background(), models.FsspQuery{
		LastName: "Иванов", FirstName: "Иван", RegionCode: 77,
	})

	require.Equal(t, models.SourceFallback, result.Source)
	assert.False(t, result.Payload.HasDebt)
	assert.NotNil(t, result.Payload.Proceedings)
}

func TestPassportDisabled_SentinelSeries(t *testing.T) {
	g := NewPassport(disabledPortalConfig(), Deps{})

	invalid := g.Check(context.Background(), models.PassportQuery{Series: "0000", Number: "123456"})
	require.Equal(t, models.SourceFallback, invalid.Source)
	assert.Equal(t, models.PassportInvalid, invalid.Payload.Status)

	valid := g.Check(context.Background(), models.PassportQuery{Series: "4509", Number: "123456"})
	assert.Equal(t, models.PassportValid, valid.Payload.Status)
}

func TestGibddDisabled_CleanResult(t *testing.T) {
	g := NewGibdd(disabledPortalConfig(), Deps{})

	result := g.Check(context.Background(), models.GibddQuery{
		Plate: "а123вс777", Certificate: "7777123456",
	})

	require.Equal(t, models.SourceFallback, result.Source)
	assert.False(t, result.Payload.HasFines)
	assert.NotNil(t, result.Payload.Fines)
}

func TestGibddParse_NoFinesPhrase(t *testing.T) {
	verdict := GibddPortal{}.Parse(`<html><body>Неуплаченных штрафов не найдено</body></html>`)

	assert.False(t, verdict.Payload.HasFines)
	assert.False(t, verdict.Positive)
	assert.False(t, verdict.LowConfidence)
}

func TestPassportParse_InvalidKeyword(t *testing.T) {
	verdict := PassportPortal{}.Parse(`<html><body>Паспорт недействителен</body></html>`)

	assert.Equal(t, models.PassportInvalid, verdict.Payload.Status)
	assert.True(t, verdict.Positive)
}

func TestInvalidQueryNeverReachesPortal(t *testing.T) {
	g := gateway.New[models.PassportQuery, models.PassportResult](
		PassportPortal{}, htmlExec("should not be fetched"),
		gateway.Config{Enabled: true, AttemptTimeout: time.Second, CacheTTL: time.Hour},
	)

	result := g.Check(context.Background(), models.PassportQuery{Series: "12", Number: "abc"})

	require.Equal(t, models.SourceFallback, result.Source)
	assert.Equal(t, models.PassportUnknown, result.Payload.Status)
	assert.Contains(t, result.Message, "invalid query")
}
