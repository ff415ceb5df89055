package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/savebridge/internal/api"
	"github.com/mcoot/savebridge/internal/api/apierr"
	"github.com/mcoot/savebridge/internal/api/response"
	"github.com/mcoot/savebridge/internal/factory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		AuthService:       app.AuthService,
		SavedGamesService: app.SavedGamesService,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[response.Health](t, rr).Status)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	// Register
	registerBody := map[string]string{
		"username":     "alice",
		"password":     "secret123",
		"display_name": "Alice",
	}
	rr := ts.request(http.MethodPost, "/api/v1/accounts/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	registerResp := decode[response.AuthResponse](t, rr)
	assert.Equal(t, "Alice", registerResp.Account.DisplayName)
	assert.NotEmpty(t, registerResp.SessionToken)

	// Login
	loginBody := map[string]string{
		"username": "alice",
		"password": "secret123",
	}
	rr = ts.request(http.MethodPost, "/api/v1/accounts/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	loginResp := decode[response.AuthResponse](t, rr)
	assert.Equal(t, registerResp.Account.ID, loginResp.Account.ID)
	assert.NotEqual(t, registerResp.SessionToken, loginResp.SessionToken)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/accounts/register", map[string]string{"password": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decode[apierr.ErrorResponse](t, rr).Error.Code)

	registerAccount(t, ts, "alice")
	rr = ts.request(http.MethodPost, "/api/v1/accounts/register", map[string]string{"username": "alice", "password": "other"}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeUsernameExists, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	registerAccount(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/accounts/login", map[string]string{"username": "alice", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestGetMeAndLogout(t *testing.T) {
	ts := newTestServer(t)
	token := registerAccount(t, ts, "bob")

	rr := ts.request(http.MethodGet, "/api/v1/accounts/me", nil, token)
	assert.Equal(t, http.StatusOK, rr.Code)
	me := decode[response.Account](t, rr)
	assert.Equal(t, "bob", me.Username)
	assert.Equal(t, "bob", me.DisplayName)

	rr = ts.request(http.MethodPost, "/api/v1/accounts/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/accounts/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/accounts/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/slots", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/slots/SaveGame/open", nil, "bogus")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSlotSaveAndLoad(t *testing.T) {
	ts := newTestServer(t)
	token := registerAccount(t, ts, "alice")

	// Open a fresh slot
	meta := openSlot(t, ts, token, "SaveGame", nil)
	assert.Equal(t, "SaveGame", meta.Name)
	assert.Equal(t, int64(0), meta.Version)
	assert.True(t, meta.IsOpen)

	// Fresh slot has no data
	rr := ts.request(http.MethodGet, "/api/v1/slots/SaveGame/data?version=0", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.SlotData](t, rr).Data)

	// Commit
	commit := map[string]any{
		"version":        meta.Version,
		"description":    "first save",
		"played_time_ms": 60000,
		"data":           []byte("3,4"),
	}
	rr = ts.request(http.MethodPut, "/api/v1/slots/SaveGame", commit, token)
	require.Equal(t, http.StatusOK, rr.Code)
	committed := decode[response.SlotMetadata](t, rr)
	assert.Equal(t, int64(1), committed.Version)
	assert.Equal(t, "first save", committed.Description)
	assert.Equal(t, int64(60000), committed.PlayedTimeMs)
	assert.False(t, committed.IsOpen)
	assert.False(t, committed.Conflicted)

	// Reopen and read back
	meta = openSlot(t, ts, token, "SaveGame", map[string]string{"source": "read_network_only"})
	assert.Equal(t, int64(1), meta.Version)
	rr = ts.request(http.MethodGet, "/api/v1/slots/SaveGame/data?version=1", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []byte("3,4"), decode[response.SlotData](t, rr).Data)

	// List
	rr = ts.request(http.MethodGet, "/api/v1/slots", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[response.SlotList](t, rr)
	require.Len(t, list.Slots, 1)
	assert.Equal(t, "first save", list.Slots[0].Description)
}

func TestStaleCommitConflicts(t *testing.T) {
	ts := newTestServer(t)
	token := registerAccount(t, ts, "alice")
	openSlot(t, ts, token, "SaveGame", nil)

	rr := ts.request(http.MethodPut, "/api/v1/slots/SaveGame", map[string]any{"version": 0, "played_time_ms": 1000, "data": []byte("1,1")}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPut, "/api/v1/slots/SaveGame", map[string]any{"version": 0, "played_time_ms": 5000, "data": []byte("2,2")}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.SlotMetadata](t, rr).Conflicted)

	meta := openSlot(t, ts, token, "SaveGame", map[string]string{"strategy": "longest_playtime"})
	assert.Equal(t, int64(2), meta.Version)
	assert.Equal(t, int64(5000), meta.PlayedTimeMs)
	assert.False(t, meta.Conflicted)
}

func TestReadWithStaleVersion(t *testing.T) {
	ts := newTestServer(t)
	token := registerAccount(t, ts, "alice")
	openSlot(t, ts, token, "SaveGame", nil)

	rr := ts.request(http.MethodPut, "/api/v1/slots/SaveGame", map[string]any{"version": 0, "data": []byte("1,1")}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/slots/SaveGame/data?version=0", nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeStaleSlotHandle, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodGet, "/api/v1/slots/SaveGame/data?version=1", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []byte("1,1"), decode[response.SlotData](t, rr).Data)
}

func TestSlotErrors(t *testing.T) {
	ts := newTestServer(t)
	token := registerAccount(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/slots/bad%20name/open", nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidSlotName, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodPost, "/api/v1/slots/SaveGame/open", map[string]string{"strategy": "coin_flip"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeUnknownStrategy, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodPost, "/api/v1/slots/SaveGame/open", map[string]string{"source": "carrier_pigeon"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeUnknownDataSource, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodGet, "/api/v1/slots/Missing/data?version=0", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeSlotNotFound, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodGet, "/api/v1/slots/Missing/data?version=-1", nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/slots/Missing/data", nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/slots/Missing", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSlotsAreScopedToAccount(t *testing.T) {
	ts := newTestServer(t)
	alice := registerAccount(t, ts, "alice")
	bob := registerAccount(t, ts, "bob")

	openSlot(t, ts, alice, "SaveGame", nil)

	rr := ts.request(http.MethodGet, "/api/v1/slots", nil, bob)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.SlotList](t, rr).Slots)

	rr = ts.request(http.MethodDelete, "/api/v1/slots/SaveGame", nil, bob)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/slots/SaveGame", nil, alice)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

// Helper functions

func registerAccount(t *testing.T, ts *testServer, username string) string {
	t.Helper()

	body := map[string]string{"username": username, "password": "secret123"}
	rr := ts.request(http.MethodPost, "/api/v1/accounts/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	return decode[response.AuthResponse](t, rr).SessionToken
}

func openSlot(t *testing.T, ts *testServer, token, name string, body any) response.SlotMetadata {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/slots/"+name+"/open", body, token)
	require.Equal(t, http.StatusOK, rr.Code)

	return decode[response.SlotMetadata](t, rr)
}
