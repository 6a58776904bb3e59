package extract

import (
	"regexp"

	"govgate/internal/verify/models"
)

var fsspProfile = profile{
	noResultPhrases: []string{
		"по вашему запросу ничего не найдено",
		"ничего не найдено",
		"исполнительные производства не найдены",
		"отсутствует информация о возбужденных исполнительных производствах",
	},
	positiveKeywords: []string{
		"исполнительное производство",
		"исполнительного производства",
		"задолженность",
	},
	amountLabel: regexp.MustCompile(`(?:сумма|задолженность|итого)[^\d]{0,30}(\d[\d\s\x{00a0}]*(?:[.,]\d{1,2})?)\s*руб`),
}

// ParseDebt extracts the FSSP enforcement-proceedings verdict from portal
// HTML.
func ParseDebt(html string) (models.DebtResult, Meta) {
	res := scan(html, fsspProfile)

	out := models.DebtResult{
		HasDebt:     res.positive,
		Proceedings: []models.Proceeding{},
		TotalAmount: res.total,
	}
	for _, it := range res.items {
		out.Proceedings = append(out.Proceedings, models.Proceeding{
			Number:     it.caseNumber,
			UIN:        it.uin,
			Subject:    it.subject,
			Department: it.department,
			Officer:    it.officer,
			Date:       it.date,
			Amount:     it.amount,
		})
	}
	out.TotalProceedings = len(out.Proceedings)

	return out, Meta{Rule: res.rule, LowConfidence: res.lowConfidence}
}
