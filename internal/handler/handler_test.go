package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daily-ledger/internal/config"
	"github.com/daily-ledger/internal/events"
	"github.com/daily-ledger/internal/handler"
	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/internal/repository"
	"github.com/daily-ledger/internal/service"
	"github.com/daily-ledger/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// envelope mirrors pkg/response.Response with the payload left raw
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testApp struct {
	t      *testing.T
	router *gin.Engine
	store  *repository.Store
	bus    *events.MemoryAuditBus
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := repository.NewStore(testutil.NewDB(t))
	bus := events.NewMemoryAuditBus()

	audit := service.NewAuditService(store, bus, config.AuditConfig{DefaultLimit: 1000, MaxLimit: 5000})
	users := service.NewUserService(store, audit, nil)
	ledger := service.NewLedgerService(store, audit)
	auth := service.NewAuthService(users, store, audit, nil, config.JWTConfig{
		Secret:        "handler-test-secret-handler-test-secret",
		ExpireMinutes: 480,
		Issuer:        "daily-ledger",
	})

	_, _, err := users.EnsureAdmin(context.Background(), "root", "adminpw", "Root")
	require.NoError(t, err)

	router := handler.NewRouter(handler.Services{
		Auth:   auth,
		Users:  users,
		Ledger: ledger,
		Audit:  audit,
		Bus:    bus,
	}, handler.BuildInfo{Version: "test"})

	return &testApp{t: t, router: router, store: store, bus: bus}
}

func (a *testApp) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (a *testApp) login(userid, password string) string {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"userid": userid, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	var token service.TokenResponse
	require.NoError(a.t, json.Unmarshal(env.Data, &token))
	return token.AccessToken
}

func (a *testApp) createUser(adminToken, userid, password string) {
	a.t.Helper()
	w, _ := a.do(http.MethodPost, "/api/v1/admin/users", adminToken, gin.H{"userid": userid, "password": password})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
}

func (a *testApp) auditCount() int64 {
	a.t.Helper()
	entries, err := a.store.Audit.List(context.Background(), repository.AuditFilter{Limit: 10000})
	require.NoError(a.t, err)
	return int64(len(entries))
}

func (a *testApp) auditEntries(action models.AuditAction) []models.AuditLog {
	a.t.Helper()
	entries, err := a.store.Audit.List(context.Background(), repository.AuditFilter{Action: action, Limit: 100})
	require.NoError(a.t, err)
	return entries
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}
