package extract

import (
	"strings"

	"govgate/internal/verify/models"
)

// Passport responses are a status line rather than a result table, so the
// profile degenerates to two phrase lists. Order still matters: the "not
// listed as invalid" phrasing contains the word "недействительн", so the
// valid phrases must win before the keyword rule runs.
var (
	passportValidPhrases = []string{
		"в списке недействительных не значится",
		"среди недействительных не значится",
		"в статусе недействительного не значится",
		"паспорт действителен",
	}
	passportInvalidKeywords = []string{
		"недействителен",
		"не действителен",
		"признан недействительным",
		"значится в списке недействительных",
	}
)

// ParsePassport extracts the passport-validity verdict from portal HTML.
func ParsePassport(html string) (models.PassportResult, Meta) {
	text := plainText(html)

	for _, phrase := range passportValidPhrases {
		if strings.Contains(text, phrase) {
			return models.PassportResult{Status: models.PassportValid},
				Meta{Rule: RuleNoResultPhrase}
		}
	}
	for _, kw := range passportInvalidKeywords {
		if strings.Contains(text, kw) {
			return models.PassportResult{Status: models.PassportInvalid},
				Meta{Rule: RuleKeywordPresence}
		}
	}

	return models.PassportResult{Status: models.PassportUnknown},
		Meta{Rule: RuleDefaultNegative, LowConfidence: true}
}
