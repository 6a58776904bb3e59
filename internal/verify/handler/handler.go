// Package handler exposes the verification gateways over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"govgate/internal/verify/circuit"
	"govgate/internal/verify/history"
	"govgate/internal/verify/models"
	"govgate/pkg/platform/httputil"
)

// FsspChecker runs FSSP debt checks.
type FsspChecker interface {
	Check(ctx context.Context, query models.FsspQuery) models.Result[models.DebtResult]
	BreakerSnapshot() circuit.Snapshot
}

// GibddChecker runs GIBDD fines checks.
type GibddChecker interface {
	Check(ctx context.Context, query models.GibddQuery) models.Result[models.FinesResult]
	BreakerSnapshot() circuit.Snapshot
}

// PassportChecker runs passport validity checks.
type PassportChecker interface {
	Check(ctx context.Context, query models.PassportQuery) models.Result[models.PassportResult]
	BreakerSnapshot() circuit.Snapshot
}

// HistoryReader lists recorded checks.
type HistoryReader interface {
	ListRecent(ctx context.Context, portal string, limit int) ([]history.Record, error)
}

// Handler wires verification endpoints to the portal gateways.
type Handler struct {
	fssp     FsspChecker
	gibdd    GibddChecker
	passport PassportChecker
	history  HistoryReader
	logger   *slog.Logger
}

// New constructs a verification handler.
func New(fssp FsspChecker, gibdd GibddChecker, passport PassportChecker, checkHistory HistoryReader, logger *slog.Logger) *Handler {
	return &Handler{
		fssp:     fssp,
		gibdd:    gibdd,
		passport: passport,
		history:  checkHistory,
		logger:   logger,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/fssp", h.HandleFssp)
	r.Post("/verify/gibdd", h.HandleGibdd)
	r.Post("/verify/passport", h.HandlePassport)
	r.Get("/verify/{portal}/breaker", h.HandleBreaker)
	r.Get("/verify/{portal}/history", h.HandleHistory)
}

// HandleFssp handles POST /verify/fssp requests.
func (h *Handler) HandleFssp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	query, err := httputil.Decode[models.FsspQuery](r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result := h.fssp.Check(ctx, query)

	h.logger.InfoContext(ctx, "fssp check served",
		"source", result.Source,
		"has_debt", result.Payload.HasDebt,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleGibdd handles POST /verify/gibdd requests.
func (h *Handler) HandleGibdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	query, err := httputil.Decode[models.GibddQuery](r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result := h.gibdd.Check(ctx, query)

	h.logger.InfoContext(ctx, "gibdd check served",
		"source", result.Source,
		"has_fines", result.Payload.HasFines,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandlePassport handles POST /verify/passport requests.
func (h *Handler) HandlePassport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	query, err := httputil.Decode[models.PassportQuery](r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result := h.passport.Check(ctx, query)

	h.logger.InfoContext(ctx, "passport check served",
		"source", result.Source,
		"status", result.Payload.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// BreakerResponse reports the circuit state of one portal gateway.
type BreakerResponse struct {
	Portal   string `json:"portal"`
	State    string `json:"state"`
	Failures int    `json:"failures"`
}

// HandleBreaker handles GET /verify/{portal}/breaker requests.
func (h *Handler) HandleBreaker(w http.ResponseWriter, r *http.Request) {
	portal := chi.URLParam(r, "portal")

	var snapshot circuit.Snapshot
	switch portal {
	case "fssp":
		snapshot = h.fssp.BreakerSnapshot()
	case "gibdd":
		snapshot = h.gibdd.BreakerSnapshot()
	case "passport":
		snapshot = h.passport.BreakerSnapshot()
	default:
		httputil.WriteError(w, http.StatusNotFound, "unknown_portal", "no such portal: "+portal)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, BreakerResponse{
		Portal:   portal,
		State:    snapshot.State.String(),
		Failures: snapshot.Failures,
	})
}

// HistoryEntry is one recorded check as returned by the history endpoint.
type HistoryEntry struct {
	ID            string    `json:"id"`
	Portal        string    `json:"portal"`
	QueryHash     string    `json:"query_hash"`
	Source        string    `json:"source"`
	Positive      bool      `json:"positive"`
	LowConfidence bool      `json:"low_confidence"`
	Attempts      int       `json:"attempts"`
	Message       string    `json:"message,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
}

// HistoryResponse lists recent checks for one portal.
type HistoryResponse struct {
	Portal string         `json:"portal"`
	Checks []HistoryEntry `json:"checks"`
}

const defaultHistoryLimit = 50

// HandleHistory handles GET /verify/{portal}/history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	portal := chi.URLParam(r, "portal")

	switch portal {
	case "fssp", "gibdd", "passport":
	default:
		httputil.WriteError(w, http.StatusNotFound, "unknown_portal", "no such portal: "+portal)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			httputil.WriteError(w, http.StatusBadRequest, "bad_request", "limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	records, err := h.history.ListRecent(ctx, portal, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "history lookup failed", "portal", portal, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	checks := make([]HistoryEntry, 0, len(records))
	for _, record := range records {
		checks = append(checks, HistoryEntry{
			ID:            record.ID.String(),
			Portal:        record.Portal,
			QueryHash:     record.QueryHash,
			Source:        record.Source,
			Positive:      record.Positive,
			LowConfidence: record.LowConfidence,
			Attempts:      record.Attempts,
			Message:       record.Message,
			CheckedAt:     record.CheckedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{Portal: portal, Checks: checks})
}
