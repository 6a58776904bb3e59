// Package models defines the query and result types shared by the
// verification gateways and their HTTP surface.
package models

import "time"

// Source tags how a verification result was obtained. FALLBACK results are
// advisory only and always carry a user-facing message.
type Source string

const (
	SourceLive     Source = "LIVE"
	SourceCache    Source = "CACHE"
	SourceFallback Source = "FALLBACK"
)

// Result is the envelope every verification check returns. Payload carries
// the portal-specific verdict; LowConfidence marks verdicts produced by the
// weaker extraction heuristics.
type Result[T any] struct {
	Payload       T         `json:"payload"`
	Source        Source    `json:"source"`
	CheckedAt     time.Time `json:"checked_at"`
	LowConfidence bool      `json:"low_confidence,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// Proceeding is a single enforcement proceeding recorded with the bailiff
// service. Number or UIN identifies it; rows without either and without an
// amount are discarded as noise during extraction.
type Proceeding struct {
	Number     string  `json:"number,omitempty"`
	UIN        string  `json:"uin,omitempty"`
	Subject    string  `json:"subject,omitempty"`
	Department string  `json:"department,omitempty"`
	Officer    string  `json:"officer,omitempty"`
	Date       string  `json:"date,omitempty"` // ISO 8601 (YYYY-MM-DD)
	Amount     float64 `json:"amount"`
}

// DebtResult is the FSSP verdict.
type DebtResult struct {
	HasDebt          bool         `json:"has_debt"`
	Proceedings      []Proceeding `json:"proceedings"`
	TotalProceedings int          `json:"total_proceedings"`
	TotalAmount      float64      `json:"total_amount"`
}

// Fine is a single traffic fine found on the GIBDD portal.
type Fine struct {
	Ordinance string  `json:"ordinance,omitempty"`
	UIN       string  `json:"uin,omitempty"`
	Article   string  `json:"article,omitempty"`
	Division  string  `json:"division,omitempty"`
	Date      string  `json:"date,omitempty"`
	Amount    float64 `json:"amount"`
}

// FinesResult is the GIBDD verdict.
type FinesResult struct {
	HasFines    bool    `json:"has_fines"`
	Fines       []Fine  `json:"fines"`
	TotalFines  int     `json:"total_fines"`
	TotalAmount float64 `json:"total_amount"`
}

// PassportStatus is the passport validity verdict.
type PassportStatus string

const (
	PassportValid   PassportStatus = "VALID"
	PassportInvalid PassportStatus = "INVALID"
	PassportUnknown PassportStatus = "UNKNOWN"
)

// PassportResult is the passport-validity verdict.
type PassportResult struct {
	Status PassportStatus `json:"status"`
}
