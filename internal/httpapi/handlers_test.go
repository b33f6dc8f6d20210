package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cianbox-pos/backend/internal/domain"
	"cianbox-pos/backend/internal/report"
	"cianbox-pos/backend/internal/service"
	"cianbox-pos/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, memory.DemoTenantID, time.Minute)
	auth := NewAuthManager("test-secret-key", time.Hour, memory.DemoTenantID, repo)

	return New(svc, auth, nil, "*")
}

// mustHashPassword generates a bcrypt hash of the given password or fails the test.
func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
	token   string
	csrf    string
}

func newClient(t *testing.T, api *API, username string, password string) *apiClient {
	t.Helper()
	return &apiClient{
		t:       t,
		handler: api.Handler(),
		token:   login(t, api, username, password),
		csrf:    fetchCSRFToken(t, api),
	}
}

func (c *apiClient) do(method string, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-CSRF-Token", c.csrf)
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d (body: %s)", status, rec.Code, rec.Body.String())
	}
}

func login(t *testing.T, api *API, username string, password string) string {
	t.Helper()

	body, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("%s login failed, status %d", username, res.Code)
	}

	var payload domain.LoginResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login response failed: %v", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		t.Fatalf("expected access token in login response")
	}
	return payload.AccessToken
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusOK)
	body := decodeBody[map[string]any](t, rec)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_InvalidPassword(t *testing.T) {
	api := newTestAPI(t)

	payload, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cash-sessions", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestCashSessionLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	cashier := newClient(t, api, "cashier", "cashier123")

	rec := cashier.do(http.MethodPost, "/api/v1/cash-sessions", domain.OpenSessionRequest{TillID: "till-01", OpeningCents: 500000})
	expectStatus(t, rec, http.StatusCreated)
	session := decodeBody[domain.CashSession](t, rec)
	if session.Status != domain.SessionOpen || session.CashierID != "user-cashier" {
		t.Fatalf("unexpected session %+v", session)
	}
	base := "/api/v1/cash-sessions/" + session.ID

	rec = cashier.do(http.MethodPost, "/api/v1/sales", domain.RecordSaleRequest{
		TillID:   "till-01",
		Payments: []domain.Payment{{Method: domain.TenderCash, AmountCents: 120000}},
	})
	expectStatus(t, rec, http.StatusCreated)

	rec = cashier.do(http.MethodGet, base+"/expected", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[domain.ExpectedCashResponse](t, rec).ExpectedCents; got != 620000 {
		t.Fatalf("expected 620000, got %d", got)
	}

	rec = cashier.do(http.MethodPost, base+"/withdrawals", domain.WithdrawRequest{
		AmountCents:  100000,
		Reason:       domain.ReasonSafeDeposit,
		AuthorizedBy: "user-supervisor",
	})
	expectStatus(t, rec, http.StatusCreated)

	rec = cashier.do(http.MethodGet, "/api/v1/cash-sessions/current", nil)
	expectStatus(t, rec, http.StatusOK)
	if current := decodeBody[domain.CashSession](t, rec); current.ID != session.ID {
		t.Fatalf("expected current session %s, got %s", session.ID, current.ID)
	}

	var count domain.DenominationCount
	count.Bills[domain.Bill2000] = 2
	count.Bills[domain.Bill1000] = 1
	count.Bills[domain.Bill200] = 1
	rec = cashier.do(http.MethodPost, base+"/close", domain.CloseSessionRequest{Count: &count})
	expectStatus(t, rec, http.StatusOK)
	closed := decodeBody[domain.CloseSessionResponse](t, rec)
	if closed.Session.Status != domain.SessionClosed || closed.Summary.DifferenceCents != 0 || closed.Summary.ClosingCents != 520000 {
		t.Fatalf("unexpected close response %+v", closed)
	}

	rec = cashier.do(http.MethodGet, base+"/summary", nil)
	expectStatus(t, rec, http.StatusOK)
	if summary := decodeBody[domain.SessionSummary](t, rec); summary.ExpectedCents != 520000 || summary.WithdrawalsCents != 100000 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rec = cashier.do(http.MethodGet, base+"/movements", nil)
	expectStatus(t, rec, http.StatusOK)
	movements := decodeBody[map[string][]domain.CashMovement](t, rec)["movements"]
	if len(movements) != 1 || movements[0].Type != domain.MovementWithdrawal {
		t.Fatalf("unexpected movements %+v", movements)
	}

	rec = cashier.do(http.MethodGet, base+"/report.xlsx", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Content-Type"); got != report.ContentType {
		t.Fatalf("unexpected report content type %q", got)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), session.SequenceNumber) {
		t.Fatalf("expected filename to carry the sequence, got %q", rec.Header().Get("Content-Disposition"))
	}

	rec = cashier.do(http.MethodPost, base+"/close", nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestErrorStatusMapping(t *testing.T) {
	api := newTestAPI(t)
	cashier := newClient(t, api, "cashier", "cashier123")
	other := newClient(t, api, "cashier2", "cashier123")

	rec := cashier.do(http.MethodPost, "/api/v1/cash-sessions", domain.OpenSessionRequest{TillID: "till-01", OpeningCents: 1000})
	expectStatus(t, rec, http.StatusCreated)
	session := decodeBody[domain.CashSession](t, rec)
	base := "/api/v1/cash-sessions/" + session.ID

	cases := []struct {
		name   string
		client *apiClient
		method string
		path   string
		body   any
		status int
	}{
		{"busy till", other, http.MethodPost, "/api/v1/cash-sessions", domain.OpenSessionRequest{TillID: "till-01"}, http.StatusConflict},
		{"negative opening", other, http.MethodPost, "/api/v1/cash-sessions", domain.OpenSessionRequest{TillID: "till-02", OpeningCents: -5}, http.StatusBadRequest},
		{"unknown field", other, http.MethodPost, "/api/v1/cash-sessions", map[string]any{"till_id": "till-02", "drawer": 1}, http.StatusBadRequest},
		{"unknown session", cashier, http.MethodGet, "/api/v1/cash-sessions/cs-missing", nil, http.StatusNotFound},
		{"resume open session", cashier, http.MethodPost, base + "/resume", nil, http.StatusUnprocessableEntity},
		{"withdraw without authorizer", cashier, http.MethodPost, base + "/withdrawals", domain.WithdrawRequest{AmountCents: 100, Reason: domain.ReasonExpense}, http.StatusForbidden},
		{"another cashier's session", other, http.MethodPost, base + "/suspend", nil, http.StatusForbidden},
		{"closing count type", cashier, http.MethodPost, base + "/counts", domain.CountRequest{Type: domain.CountClosing}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := tc.client.do(tc.method, tc.path, tc.body)
			expectStatus(t, rec, tc.status)
			if body := decodeBody[map[string]string](t, rec); body["error"] == "" {
				t.Fatalf("expected error message in body")
			}
		})
	}
}

func TestTransferOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	cashier := newClient(t, api, "cashier", "cashier123")
	receiving := newClient(t, api, "cashier2", "cashier123")

	rec := cashier.do(http.MethodPost, "/api/v1/cash-sessions", domain.OpenSessionRequest{TillID: "till-01", OpeningCents: 520000})
	expectStatus(t, rec, http.StatusCreated)
	session := decodeBody[domain.CashSession](t, rec)

	rec = cashier.do(http.MethodPost, "/api/v1/cash-sessions/"+session.ID+"/transfer", domain.TransferSessionRequest{
		ToCashierID:   "user-cashier2",
		TransferCents: 520000,
	})
	expectStatus(t, rec, http.StatusOK)
	resp := decodeBody[domain.TransferSessionResponse](t, rec)
	if resp.ClosedSession.Status != domain.SessionTransferred || resp.NewSession.PreviousSessionID != session.ID {
		t.Fatalf("unexpected transfer response %+v", resp)
	}

	rec = receiving.do(http.MethodGet, "/api/v1/cash-sessions/current", nil)
	expectStatus(t, rec, http.StatusOK)
	if current := decodeBody[domain.CashSession](t, rec); current.ID != resp.NewSession.ID || current.OpeningCents != 520000 {
		t.Fatalf("unexpected receiving session %+v", current)
	}

	rec = receiving.do(http.MethodGet, "/api/v1/cash-sessions/"+resp.NewSession.ID+"/expected", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[domain.ExpectedCashResponse](t, rec).ExpectedCents; got != 520000 {
		t.Fatalf("expected 520000 on receiving drawer, got %d", got)
	}
}

func TestCashierListSeesOnlyOwnSessions(t *testing.T) {
	api := newTestAPI(t)
	cashier := newClient(t, api, "cashier", "cashier123")
	other := newClient(t, api, "cashier2", "cashier123")
	supervisor := newClient(t, api, "supervisor", "supervisor123")

	expectStatus(t, cashier.do(http.MethodPost, "/api/v1/cash-sessions", domain.OpenSessionRequest{TillID: "till-01"}), http.StatusCreated)
	expectStatus(t, other.do(http.MethodPost, "/api/v1/cash-sessions", domain.OpenSessionRequest{TillID: "till-02"}), http.StatusCreated)

	rec := cashier.do(http.MethodGet, "/api/v1/cash-sessions", nil)
	expectStatus(t, rec, http.StatusOK)
	if sessions := decodeBody[map[string][]domain.CashSession](t, rec)["sessions"]; len(sessions) != 1 || sessions[0].CashierID != "user-cashier" {
		t.Fatalf("cashier must only see own sessions, got %+v", sessions)
	}

	rec = supervisor.do(http.MethodGet, "/api/v1/cash-sessions?status=open", nil)
	expectStatus(t, rec, http.StatusOK)
	if sessions := decodeBody[map[string][]domain.CashSession](t, rec)["sessions"]; len(sessions) != 2 {
		t.Fatalf("supervisor must see both open sessions, got %d", len(sessions))
	}
}

func TestAuditLogsRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	cashier := newClient(t, api, "cashier", "cashier123")
	admin := newClient(t, api, "admin", "admin123")

	expectStatus(t, cashier.do(http.MethodPost, "/api/v1/cash-sessions", domain.OpenSessionRequest{TillID: "till-01"}), http.StatusCreated)

	expectStatus(t, cashier.do(http.MethodGet, "/api/v1/audit-logs", nil), http.StatusForbidden)

	rec := admin.do(http.MethodGet, "/api/v1/audit-logs?date="+time.Now().UTC().Format("2006-01-02"), nil)
	expectStatus(t, rec, http.StatusOK)
	logs := decodeBody[map[string][]domain.AuditLog](t, rec)["logs"]
	if len(logs) == 0 || logs[0].Action != "cash_session_open" {
		t.Fatalf("expected open to be audited, got %+v", logs)
	}
}

func TestDenominationsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/denominations", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusOK)
	var body struct {
		Currency string  `json:"currency"`
		Bills    []int64 `json:"bills"`
		Coins    []int64 `json:"coins"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Currency != "ARS" || len(body.Bills) != domain.NumBills || len(body.Coins) != domain.NumCoins {
		t.Fatalf("unexpected denominations %+v", body)
	}
	if body.Bills[0] != 20000 {
		t.Fatalf("expected bills ordered from the largest face value, got %v", body.Bills)
	}
}
