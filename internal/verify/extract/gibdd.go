package extract

import (
	"regexp"

	"govgate/internal/verify/models"
)

var gibddProfile = profile{
	noResultPhrases: []string{
		"штрафы не найдены",
		"неуплаченных штрафов не найдено",
		"в настоящее время неуплаченные штрафы отсутствуют",
		"по указанным данным ничего не найдено",
	},
	positiveKeywords: []string{
		"штраф",
		"постановление",
	},
	amountLabel: regexp.MustCompile(`(?:сумма|итого|к оплате)[^\d]{0,30}(\d[\d\s\x{00a0}]*(?:[.,]\d{1,2})?)\s*руб`),
}

// ParseFines extracts the GIBDD unpaid-fines verdict from portal HTML.
func ParseFines(html string) (models.FinesResult, Meta) {
	res := scan(html, gibddProfile)

	out := models.FinesResult{
		HasFines:    res.positive,
		Fines:       []models.Fine{},
		TotalAmount: res.total,
	}
	for _, it := range res.items {
		out.Fines = append(out.Fines, models.Fine{
			Ordinance: it.caseNumber,
			UIN:       it.uin,
			Article:   it.subject,
			Division:  it.department,
			Date:      it.date,
			Amount:    it.amount,
		})
	}
	out.TotalFines = len(out.Fines)

	return out, Meta{Rule: res.rule, LowConfidence: res.lowConfidence}
}
