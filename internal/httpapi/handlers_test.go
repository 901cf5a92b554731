package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"sareepos/backend/internal/domain"
	"sareepos/backend/internal/service"
	"sareepos/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, service.Options{})
	return New(svc, newTestAuth(t), Options{AllowedOrigin: "*"})
}

func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

type testSession struct {
	t       *testing.T
	handler http.Handler
	token   string
	csrf    string
}

func newSession(t *testing.T, api *API) *testSession {
	t.Helper()
	return &testSession{
		t:       t,
		handler: api.Handler(),
		token:   loginAs(t, api, "Putty", "putty-pass-123"),
		csrf:    fetchCSRFToken(t, api),
	}
}

func (s *testSession) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("X-CSRF-Token", s.csrf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("decode body: %v (body: %s)", err, rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLoginSetsSessionCookie(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(domain.LoginRequest{Username: "Sony", Password: "sony-pass-123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly session cookie, got %+v", cookie)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected cookie session to authorize, got %d", rec.Code)
	}
	var me map[string]string
	decodeBody(t, rec, &me)
	if me["username"] != "Sony" {
		t.Fatalf("expected Sony, got %q", me["username"])
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	api := newTestAPI(t)
	csrf := fetchCSRFToken(t, api)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %+v", cookies)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestListAndSearchItems(t *testing.T) {
	s := newSession(t, newTestAPI(t))

	rec := s.do(http.MethodGet, "/api/v1/items?q=silk", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Items []domain.Item `json:"items"`
	}
	decodeBody(t, rec, &body)
	if len(body.Items) != 4 {
		t.Fatalf("expected 4 silk sarees, got %d", len(body.Items))
	}

	rec = s.do(http.MethodGet, "/api/v1/items/3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if rec := s.do(http.MethodGet, "/api/v1/items/999", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/v1/items/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCheckoutReverseFlow(t *testing.T) {
	s := newSession(t, newTestAPI(t))

	checkout := domain.CheckoutRequest{
		Cart:          []domain.CartLine{{ItemID: 1, Quantity: 1}},
		PaymentMethod: domain.PaymentUPI,
	}
	rec := s.do(http.MethodPost, "/api/v1/checkout", checkout)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp domain.CheckoutResponse
	decodeBody(t, rec, &resp)
	if resp.Sale.Status != domain.SaleStatusCompleted {
		t.Fatalf("expected completed sale, got %s", resp.Sale.Status)
	}

	if rec := s.do(http.MethodPost, "/api/v1/checkout", checkout); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for sold item, got %d", rec.Code)
	}

	reversePath := fmt.Sprintf("/api/v1/sales/%d/reverse", resp.Sale.ID)
	if rec := s.do(http.MethodPost, reversePath, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on reverse, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, reversePath, nil); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second reverse, got %d", rec.Code)
	}

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/v1/sales/%d", resp.Sale.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Sale domain.Sale `json:"sale"`
	}
	decodeBody(t, rec, &got)
	if got.Sale.Status != domain.SaleStatusRefunded || len(got.Sale.Items) != 1 {
		t.Fatalf("unexpected sale %+v", got.Sale)
	}

	if rec := s.do(http.MethodPost, "/api/v1/sales/999/reverse", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sale, got %d", rec.Code)
	}
}

func TestCheckoutErrors(t *testing.T) {
	s := newSession(t, newTestAPI(t))

	rec := s.do(http.MethodPost, "/api/v1/checkout", domain.CheckoutRequest{Cart: []domain.CartLine{{ItemID: 4242, Quantity: 1}}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown item, got %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/v1/checkout", map[string]any{"cart": []any{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", rec.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	decodeBody(t, rec, &body)
	if _, ok := body.Fields["cart"]; !ok {
		t.Fatalf("expected cart field error, got %v", body.Fields)
	}

	rec = s.do(http.MethodPost, "/api/v1/checkout", map[string]any{"cart": []any{}, "tip": 5})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestReturnItemHidesItFromInventory(t *testing.T) {
	s := newSession(t, newTestAPI(t))

	if rec := s.do(http.MethodPost, "/api/v1/items/2/return", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec := s.do(http.MethodGet, "/api/v1/items", nil)
	var body struct {
		Items []domain.Item `json:"items"`
	}
	decodeBody(t, rec, &body)
	for _, item := range body.Items {
		if item.ID == 2 {
			t.Fatalf("returned item listed")
		}
	}

	rec = s.do(http.MethodPost, "/api/v1/checkout", domain.CheckoutRequest{Cart: []domain.CartLine{{ItemID: 2, Quantity: 1}}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 when selling returned item, got %d", rec.Code)
	}
}

func TestCreateItemsMultipart(t *testing.T) {
	api := newTestAPI(t)
	s := newSession(t, api)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for field, value := range map[string]string{
		"name":     "Pochampally Ikat",
		"price":    "6800",
		"cost":     "4100.50",
		"quantity": "2",
		"category": "Indigo",
	} {
		if err := form.WriteField(field, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("X-CSRF-Token", s.csrf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp domain.ItemCreateResponse
	decodeBody(t, rec, &resp)
	if len(resp.Items) != 2 || len(resp.Codes) != 2 {
		t.Fatalf("expected 2 items, got %+v", resp)
	}
	if !strings.HasPrefix(resp.Codes[0], "#0000") {
		t.Fatalf("unexpected display code %s", resp.Codes[0])
	}

	rec = s.do(http.MethodPost, "/api/v1/items", map[string]any{"name": "", "price": 10, "cost": 5, "quantity": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", rec.Code)
	}
}

func TestReportsEndpoints(t *testing.T) {
	s := newSession(t, newTestAPI(t))

	if rec := s.do(http.MethodPost, "/api/v1/checkout", domain.CheckoutRequest{Cart: []domain.CartLine{{ItemID: 1, Quantity: 1}}}); rec.Code != http.StatusCreated {
		t.Fatalf("checkout failed: %d", rec.Code)
	}

	for _, path := range []string{
		"/api/v1/reports/summary",
		"/api/v1/reports/trending",
		"/api/v1/reports/trends/materials",
		"/api/v1/reports/trends/categories",
		"/api/v1/reports/trends/sources",
		"/api/v1/reports/slow-moving",
		"/api/v1/reports/balance-sheet",
		"/api/v1/reports/profit-loss",
	} {
		if rec := s.do(http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := s.do(http.MethodGet, "/api/v1/reports/summary", nil)
	var summary domain.SalesSummary
	decodeBody(t, rec, &summary)
	if summary.TotalTransactions != 1 || summary.TotalItemsSold != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if rec := s.do(http.MethodGet, "/api/v1/reports/trends/colours", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown dimension, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/v1/reports/profit-loss?start=2024-05-01&end=2024-04-01", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", rec.Code)
	}
}

func TestBalanceSheetExports(t *testing.T) {
	s := newSession(t, newTestAPI(t))

	rec := s.do(http.MethodGet, "/api/v1/reports/balance-sheet?as_of=2024-03-31&format=csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Total assets,") {
		t.Fatalf("expected total assets row, got %s", rec.Body.String())
	}

	rec = s.do(http.MethodGet, "/api/v1/reports/balance-sheet?as_of=2024-03-31&format=html", nil)
	if !strings.Contains(rec.Body.String(), "Balance Sheet as of 2024-03-31") {
		t.Fatalf("expected printable title")
	}

	rec = s.do(http.MethodGet, "/api/v1/reports/profit-loss?start=2024-01-01&end=2024-01-31&format=xlsx", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected xlsx zip payload")
	}
}

func TestLedgerEndpoints(t *testing.T) {
	s := newSession(t, newTestAPI(t))

	rec := s.do(http.MethodGet, "/api/v1/partners", nil)
	var partners struct {
		Partners []domain.Partner `json:"partners"`
	}
	decodeBody(t, rec, &partners)
	if len(partners.Partners) != 2 {
		t.Fatalf("expected seeded partners, got %d", len(partners.Partners))
	}

	rec = s.do(http.MethodPost, "/api/v1/contributions", map[string]any{
		"partner_id":        partners.Partners[0].ID,
		"amount":            "50000",
		"contribution_date": "2024-02-01",
		"notes":             "opening capital",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodPost, "/api/v1/expenses", map[string]any{
		"description":  "Shop rent",
		"amount":       12000,
		"expense_date": "2024-02-05",
		"category":     "rent",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodGet, "/api/v1/expenses?from=2024-02-01&to=2024-02-28", nil)
	var expenses struct {
		Expenses []domain.Expense `json:"expenses"`
	}
	decodeBody(t, rec, &expenses)
	if len(expenses.Expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses.Expenses))
	}

	rec = s.do(http.MethodGet, "/api/v1/contributions", nil)
	var contributions struct {
		Contributions []domain.Contribution `json:"contributions"`
	}
	decodeBody(t, rec, &contributions)
	if len(contributions.Contributions) != 1 || contributions.Contributions[0].PartnerName == "" {
		t.Fatalf("expected contribution with partner name, got %+v", contributions.Contributions)
	}

	rec = s.do(http.MethodPost, "/api/v1/contributions", map[string]any{
		"partner_id":        999,
		"amount":            "10",
		"contribution_date": "2024-02-01",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown partner, got %d", rec.Code)
	}
}
