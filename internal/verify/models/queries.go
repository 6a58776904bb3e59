package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Queries are normalized (uppercase, trimmed) before being used as cache keys
// or form input, so two logically-equal queries hit the same cache entry.

// FsspQuery identifies a person for the bailiff debt check.
type FsspQuery struct {
	LastName   string `json:"last_name"`
	FirstName  string `json:"first_name"`
	Patronymic string `json:"patronymic,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"` // YYYY-MM-DD
	RegionCode int    `json:"region_code"`
}

// Normalize returns a copy with all name fields uppercased and trimmed.
func (q FsspQuery) Normalize() FsspQuery {
	q.LastName = normalizeField(q.LastName)
	q.FirstName = normalizeField(q.FirstName)
	q.Patronymic = normalizeField(q.Patronymic)
	q.BirthDate = strings.TrimSpace(q.BirthDate)
	return q
}

// Validate checks the fields the FSSP form requires.
func (q FsspQuery) Validate() error {
	if q.LastName == "" {
		return fmt.Errorf("last name is required")
	}
	if q.FirstName == "" {
		return fmt.Errorf("first name is required")
	}
	if q.RegionCode <= 0 || q.RegionCode > 99 {
		return fmt.Errorf("region code must be between 1 and 99")
	}
	return nil
}

// CacheKey derives the deterministic cache key for this query.
func (q FsspQuery) CacheKey() string {
	return cacheKey("fssp",
		q.LastName, q.FirstName, q.Patronymic, q.BirthDate,
		strconv.Itoa(q.RegionCode))
}

// GibddQuery identifies a vehicle for the traffic-fines check.
type GibddQuery struct {
	Plate       string `json:"plate"`
	Certificate string `json:"certificate"` // registration certificate number
}

// Normalize returns a copy with plate and certificate uppercased and trimmed.
func (q GibddQuery) Normalize() GibddQuery {
	q.Plate = normalizeField(q.Plate)
	q.Certificate = normalizeField(q.Certificate)
	return q
}

// Validate checks the fields the GIBDD form requires.
func (q GibddQuery) Validate() error {
	if q.Plate == "" {
		return fmt.Errorf("plate is required")
	}
	if q.Certificate == "" {
		return fmt.Errorf("registration certificate number is required")
	}
	return nil
}

// CacheKey derives the deterministic cache key for this query.
func (q GibddQuery) CacheKey() string {
	return cacheKey("gibdd", q.Plate, q.Certificate)
}

// PassportQuery identifies an internal passport for the validity check.
type PassportQuery struct {
	Series string `json:"series"`
	Number string `json:"number"`
}

// Normalize returns a copy with series and number trimmed.
func (q PassportQuery) Normalize() PassportQuery {
	q.Series = normalizeField(q.Series)
	q.Number = normalizeField(q.Number)
	return q
}

// Validate checks series and number are digit strings of the expected width.
func (q PassportQuery) Validate() error {
	if len(q.Series) != 4 || !digitsOnly(q.Series) {
		return fmt.Errorf("passport series must be 4 digits")
	}
	if len(q.Number) != 6 || !digitsOnly(q.Number) {
		return fmt.Errorf("passport number must be 6 digits")
	}
	return nil
}

// CacheKey derives the deterministic cache key for this query.
func (q PassportQuery) CacheKey() string {
	return cacheKey("passport", q.Series, q.Number)
}

func normalizeField(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// cacheKey joins normalized fields under a portal prefix. Kept in one place
// so key shapes do not drift between gateways.
func cacheKey(portal string, fields ...string) string {
	return "verify:" + portal + ":" + strings.Join(fields, ":")
}
