package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/report"
)

func (a *API) sessionRoutes(r chi.Router) {
	r.Get("/", a.handleListSessions)
	r.Post("/", a.handleOpenSession)
	r.Get("/current", a.handleCurrentSession)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", a.handleGetSession)
		r.Get("/summary", a.handleSessionSummary)
		r.Get("/expected", a.handleExpectedCash)
		r.Get("/movements", a.handleListMovements)
		r.Get("/counts", a.handleListCounts)
		r.Get("/report.xlsx", a.handleSessionReport)

		r.Post("/suspend", a.handleTransition(a.service.SuspendSession))
		r.Post("/resume", a.handleTransition(a.service.ResumeSession))
		r.Post("/begin-count", a.handleTransition(a.service.BeginCount))
		r.Post("/close", a.handleCloseSession)
		r.Post("/transfer", a.handleTransferSession)
		r.Post("/deposits", a.handleDeposit)
		r.Post("/withdrawals", a.handleWithdraw)
		r.Post("/adjustments", a.handleAdjust)
		r.Post("/counts", a.handleRecordCount)
	})
}

func sessionID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.SessionFilter{
		TillID:    strings.TrimSpace(query.Get("till_id")),
		CashierID: strings.TrimSpace(query.Get("cashier_id")),
		Status:    domain.SessionStatus(strings.ToUpper(strings.TrimSpace(query.Get("status")))),
		Limit:     parsePositiveLimit(query.Get("limit"), 50, 200),
	}

	sessions, err := a.service.ListSessions(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (a *API) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req domain.OpenSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	session, err := a.service.OpenSession(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (a *API) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.service.CurrentSession(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.service.GetSession(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.Summary(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleExpectedCash(w http.ResponseWriter, r *http.Request) {
	resp, err := a.service.ExpectedCash(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := a.service.ListMovements(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"movements": movements})
}

func (a *API) handleListCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := a.service.ListCounts(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

func (a *API) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sessionID(r)

	session, err := a.service.GetSession(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	summary, err := a.service.Summary(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	movements, err := a.service.ListMovements(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	counts, err := a.service.ListCounts(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := a.reports.Write(&buf, report.SessionReport{
		Session:   session,
		Summary:   summary,
		Movements: movements,
		Counts:    counts,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(session)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type transitionFunc func(ctx context.Context, sessionID string) (domain.CashSession, error)

func (a *API) handleTransition(apply transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := apply(r.Context(), sessionID(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func (a *API) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	var req domain.CloseSessionRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.CloseSession(r.Context(), sessionID(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleTransferSession(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.TransferSession(r.Context(), sessionID(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req domain.DepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	movement, err := a.service.Deposit(r.Context(), sessionID(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, movement)
}

func (a *API) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req domain.WithdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	movement, err := a.service.Withdraw(r.Context(), sessionID(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, movement)
}

func (a *API) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req domain.AdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	movement, err := a.service.Adjust(r.Context(), sessionID(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, movement)
}

func (a *API) handleRecordCount(w http.ResponseWriter, r *http.Request) {
	var req domain.CountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.RecordCount(r.Context(), sessionID(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
