// Package extract turns raw portal HTML into structured verdicts using an
// ordered list of heuristic rules. Parsing is pure: no side effects, no
// network, and unparseable HTML never errors — it degrades to the negative
// verdict with a low-confidence mark.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// RuleKind tags which heuristic produced a verdict, so precedence is
// observable in logs and independently testable.
type RuleKind string

const (
	RuleNoResultPhrase  RuleKind = "no_result_phrase"
	RuleTableRows       RuleKind = "table_rows"
	RuleLabeledAmount   RuleKind = "labeled_amount"
	RuleKeywordPresence RuleKind = "keyword_presence"
	RuleDefaultNegative RuleKind = "default_negative"
)

// Meta reports how a verdict was derived. Verdicts from the weaker rules
// (keyword presence, default) are flagged low-confidence so callers can tell
// users to confirm on the official portal.
type Meta struct {
	Rule          RuleKind
	LowConfidence bool
}

// profile is the service-specific extraction vocabulary.
type profile struct {
	noResultPhrases  []string
	positiveKeywords []string
	amountLabel      *regexp.Regexp
}

// lineItem is one structured table row before portal-specific mapping.
// A row is kept only when it has a plausible identifying field: a case
// number, a UIN, or an amount.
type lineItem struct {
	caseNumber string
	uin        string
	subject    string
	department string
	officer    string
	date       string
	amount     float64
	hasAmount  bool
}

type scanResult struct {
	rule          RuleKind
	positive      bool
	items         []lineItem
	total         float64
	lowConfidence bool
}

var (
	tagPat        = regexp.MustCompile(`(?s)<[^>]*>`)
	rowPat        = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	cellPat       = regexp.MustCompile(`(?is)<t[dh][^>]*>(.*?)</t[dh]>`)
	headerCellPat = regexp.MustCompile(`(?i)<th[\s>]`)
	datePat       = regexp.MustCompile(`\b(\d{2})\.(\d{2})\.(\d{4})\b`)
	caseNumPat    = regexp.MustCompile(`\b\d{1,10}/\d{2}/\d{2,8}-[А-ЯЁA-Z]{2}\b`)
	uinPat        = regexp.MustCompile(`\b\d{20,25}\b`)
	amountPat     = regexp.MustCompile(`^\d{1,3}(?:[ \x{00a0}]?\d{3})*(?:[.,]\d{1,2})?$`)
	officerPat    = regexp.MustCompile(`[А-ЯЁ][а-яё]+\s+[А-ЯЁ]\.\s?[А-ЯЁ]\.`)
)

// scan applies the rules in strict precedence order; first match wins.
func scan(html string, p profile) scanResult {
	text := plainText(html)

	// Rule 1: an explicit "nothing found" phrase beats everything, including
	// stray amount-looking numbers elsewhere on the page.
	for _, phrase := range p.noResultPhrases {
		if strings.Contains(text, phrase) {
			return scanResult{rule: RuleNoResultPhrase}
		}
	}

	// Rule 2: structured table rows.
	if items := scanRows(html); len(items) > 0 {
		var total float64
		for _, it := range items {
			total += it.amount
		}
		return scanResult{rule: RuleTableRows, positive: true, items: items, total: total}
	}

	// Rule 3: a labeled total amount in free text.
	if p.amountLabel != nil {
		if m := p.amountLabel.FindStringSubmatch(text); m != nil {
			if amount, ok := parseAmount(m[1]); ok && amount > 0 {
				return scanResult{rule: RuleLabeledAmount, positive: true, total: amount}
			}
		}
	}

	// Rule 4: bare keyword presence. Weak signal, flagged low-confidence.
	for _, kw := range p.positiveKeywords {
		if strings.Contains(text, kw) {
			return scanResult{rule: RuleKeywordPresence, positive: true, lowConfidence: true}
		}
	}

	// Portals change their markup without notice; when nothing matched we
	// assume "not found" rather than fail, and mark the verdict accordingly.
	return scanResult{rule: RuleDefaultNegative, lowConfidence: true}
}

// scanRows extracts structured line items from HTML table rows. Header rows
// and rows without an identifying field are discarded as noise.
func scanRows(html string) []lineItem {
	var items []lineItem
	for _, row := range rowPat.FindAllStringSubmatch(html, -1) {
		if headerCellPat.MatchString(row[1]) {
			continue
		}
		item, ok := classifyRow(row[1])
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

func classifyRow(rowHTML string) (lineItem, bool) {
	var item lineItem
	for _, cell := range cellPat.FindAllStringSubmatch(rowHTML, -1) {
		classifyCell(collapseSpace(tagPat.ReplaceAllString(cell[1], " ")), &item)
	}
	ok := item.caseNumber != "" || item.uin != "" || item.hasAmount
	return item, ok
}

// classifyCell pattern-matches a single table cell into the first item slot
// it plausibly fills.
func classifyCell(cell string, item *lineItem) {
	if cell == "" {
		return
	}
	lower := strings.ToLower(cell)

	switch {
	case item.caseNumber == "" && caseNumPat.MatchString(cell):
		item.caseNumber = caseNumPat.FindString(cell)
	case item.uin == "" && uinPat.MatchString(cell):
		item.uin = uinPat.FindString(cell)
	case item.date == "" && datePat.MatchString(cell) && !amountCell(cell):
		m := datePat.FindStringSubmatch(cell)
		item.date = m[3] + "-" + m[2] + "-" + m[1]
	case !item.hasAmount && amountCell(cell):
		amount, _ := parseAmount(strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(lower, "."), "руб")))
		item.amount = amount
		item.hasAmount = true
	case item.department == "" && (strings.Contains(lower, "осп") || strings.Contains(lower, "отдел")):
		item.department = cell
	case item.officer == "" && officerPat.MatchString(cell):
		item.officer = officerPat.FindString(cell)
	case item.subject == "":
		item.subject = cell
	}
}

// amountCell accepts "5000.50", "5 000,50", "1500 руб." style cells.
func amountCell(cell string) bool {
	trimmed := strings.TrimSpace(cell)
	lower := strings.ToLower(trimmed)
	lower = strings.TrimSuffix(lower, ".")
	lower = strings.TrimSpace(strings.TrimSuffix(lower, "руб"))
	return amountPat.MatchString(lower)
}

func parseAmount(s string) (float64, bool) {
	s = strings.NewReplacer(" ", "", " ", "", ",", ".").Replace(strings.TrimSpace(s))
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// plainText strips tags, collapses whitespace, and lowercases, giving the
// normalized text the phrase and keyword rules scan.
func plainText(html string) string {
	return strings.ToLower(collapseSpace(tagPat.ReplaceAllString(html, " ")))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
