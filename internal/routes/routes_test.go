package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"FINTRACK_BACK-END/internal/config"
	"FINTRACK_BACK-END/internal/handlers"
	"FINTRACK_BACK-END/internal/query"
	"FINTRACK_BACK-END/internal/services"
	"FINTRACK_BACK-END/internal/store"
)

type RoutesTestSuite struct {
	suite.Suite
	st     *store.SQLiteStore
	server *httptest.Server
	token  string
}

func (s *RoutesTestSuite) SetupTest() {
	st, err := store.NewSQLiteStore(":memory:")
	s.Require().NoError(err)
	s.st = st

	jwtCfg := &config.JWTConfig{Secret: "routes-secret", AccessTokenTTL: time.Hour}
	authService := services.NewAuthService(st, jwtCfg, nil)
	txService := services.NewTransactionService(st, query.Builder{}, nil, nil)

	mux := http.NewServeMux()
	SetupRoutes(mux,
		handlers.NewAuthHandler(authService),
		handlers.NewHealthHandler(st, config.DriverSQLite),
		handlers.NewGoogleAuthHandler(authService, &config.GoogleOAuthConfig{}),
		handlers.NewTransactionsHandler(txService),
		jwtCfg,
	)
	s.server = httptest.NewServer(mux)
	s.token = s.register("owner@example.com")
}

func (s *RoutesTestSuite) TearDownTest() {
	s.server.Close()
	s.st.Close()
}

func (s *RoutesTestSuite) do(method, path, token string, body any) (*http.Response, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.ContentLength != 0 {
		dec := json.NewDecoder(resp.Body)
		dec.UseNumber()
		_ = dec.Decode(&out)
	}
	return resp, out
}

func (s *RoutesTestSuite) register(email string) string {
	resp, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": email, "password": "secret1",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	token, ok := body["token"].(string)
	s.Require().True(ok)
	return token
}

func (s *RoutesTestSuite) create(token string, payload map[string]any) map[string]any {
	resp, body := s.do(http.MethodPost, "/api/transactions", token, payload)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, body)
	tx, ok := body["transaction"].(map[string]any)
	s.Require().True(ok)
	return tx
}

func (s *RoutesTestSuite) TestHealth() {
	resp, body := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", body["status"])
	s.Equal("sqlite", body["backend"])

	resp, body = s.do(http.MethodGet, "/readyz", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ready", body["status"])
}

func (s *RoutesTestSuite) TestRequiresToken() {
	resp, _ := s.do(http.MethodGet, "/api/transactions", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/transactions", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RoutesTestSuite) TestCreateTransaction() {
	tx := s.create(s.token, map[string]any{
		"montant": "12,50", "type": "Expense", "category": "food",
		"date": "05-03-2024", "reference": "REF-1",
		"user": uuid.NewString(),
	})
	s.Equal(json.Number("12.5"), tx["montant"])
	s.Equal("expense", tx["type"])
	s.Equal("2024-03-05", tx["date"])
	s.Equal("", tx["description"])

	resp, body := s.do(http.MethodGet, "/api/auth/profile", s.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(body["id"], tx["user"])

	resp, _ = s.do(http.MethodPost, "/api/transactions", s.token, map[string]any{
		"montant": 3, "type": "expense", "category": "food",
		"date": "06-03-2024", "reference": "REF-1",
	})
	s.Equal(http.StatusConflict, resp.StatusCode)

	resp, body = s.do(http.MethodPost, "/api/transactions", s.token, map[string]any{
		"montant": 3, "type": "expense", "category": "food",
		"date": "31-02-2024", "reference": "REF-2",
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.NotEmpty(body["error"])

	resp, _ = s.do(http.MethodPost, "/api/transactions", s.token, map[string]any{
		"montant": -3, "type": "expense", "category": "food",
		"date": "06-03-2024", "reference": "REF-3",
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *RoutesTestSuite) TestListAndSummary() {
	s.create(s.token, map[string]any{"montant": 1000, "type": "income", "category": "salary", "date": "01-03-2024", "reference": "S-1"})
	s.create(s.token, map[string]any{"montant": 30, "type": "expense", "category": "food", "date": "02-03-2024", "reference": "F-1"})
	s.create(s.token, map[string]any{"montant": 10, "type": "expense", "category": "medical", "date": "03-03-2024", "reference": "M-1"})

	resp, body := s.do(http.MethodGet, "/api/transactions?type=expense&limit=1&sort=montant", s.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["success"])
	s.Equal(json.Number("2"), body["total"])
	s.Equal(json.Number("1"), body["page"])
	s.Equal(json.Number("2"), body["pages"])
	items := body["transactions"].([]any)
	s.Require().Len(items, 1)
	s.Equal("M-1", items[0].(map[string]any)["reference"])

	resp, body = s.do(http.MethodGet, "/api/transactions?page=9", s.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal([]any{}, body["transactions"])

	resp, _ = s.do(http.MethodGet, "/api/transactions?freq=2w", s.token, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/transactions/summary", s.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(json.Number("3"), body["total"])
	s.Equal(json.Number("1"), body["revenusCount"])
	s.Equal(json.Number("2"), body["depensesCount"])
	s.Equal(json.Number("1000"), body["revenus"])
	s.Equal(json.Number("40"), body["depenses"])
	s.Equal(json.Number("1040"), body["totalMontant"])
	revenus, err := decimal.NewFromString(string(body["revenus"].(json.Number)))
	s.Require().NoError(err)
	depenses, err := decimal.NewFromString(string(body["depenses"].(json.Number)))
	s.Require().NoError(err)
	total, err := decimal.NewFromString(string(body["totalMontant"].(json.Number)))
	s.Require().NoError(err)
	s.True(revenus.Add(depenses).Equal(total))
	expenses := body["categoriesDepenses"].([]any)
	s.Require().Len(expenses, 2)
	first := expenses[0].(map[string]any)
	s.Equal("food", first["category"])
	s.Equal(json.Number("75"), first["percentage"])
}

func (s *RoutesTestSuite) TestOwnership() {
	tx := s.create(s.token, map[string]any{"montant": 5, "type": "expense", "category": "food", "date": "01-03-2024", "reference": "OWN-1"})
	id := tx["id"].(string)
	other := s.register("other@example.com")

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		resp, _ := s.do(method, "/api/transactions/"+id, other, map[string]any{"montant": 1})
		s.Equal(http.StatusNotFound, resp.StatusCode, method)
	}

	resp, _ := s.do(http.MethodGet, "/api/transactions/not-an-id", s.token, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, body := s.do(http.MethodPut, "/api/transactions/"+id, s.token, map[string]any{"montant": "7.25", "description": "lunch"})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	updated := body["transaction"].(map[string]any)
	s.Equal(json.Number("7.25"), updated["montant"])
	s.Equal("lunch", updated["description"])
	s.Equal("OWN-1", updated["reference"])

	resp, body = s.do(http.MethodDelete, "/api/transactions/"+id, s.token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Transaction deleted", body["message"])

	resp, _ = s.do(http.MethodGet, "/api/transactions/"+id, s.token, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *RoutesTestSuite) TestGoogleLoginDisabled() {
	resp, _ := s.do(http.MethodGet, "/api/auth/google/login", "", nil)
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRoutesTestSuite(t *testing.T) {
	suite.Run(t, new(RoutesTestSuite))
}

func TestRootRoute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rootHandler)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "running")
}
