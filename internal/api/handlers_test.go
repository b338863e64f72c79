package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/socialchef/lru/internal/cache"
	"github.com/socialchef/lru/internal/config"
	apperrors "github.com/socialchef/lru/internal/errors"
)

// Mocks

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Set(key, value string, ttlSeconds int64) {
	m.Called(key, value, ttlSeconds)
}

func (m *MockCache) Get(key string) (string, bool) {
	args := m.Called(key)
	return args.String(0), args.Bool(1)
}

func (m *MockCache) Delete(key string) {
	m.Called(key)
}

func (m *MockCache) Len() int {
	return m.Called().Int(0)
}

func (m *MockCache) Capacity() int {
	return m.Called().Int(0)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SetDefaults()
	return cfg
}

func newTestRouter(c Cache) http.Handler {
	return NewRouter(NewServer(testConfig(), c, nil), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleSet_NumericExpiration(t *testing.T) {
	c := new(MockCache)
	c.On("Set", "greeting", "hello", int64(60)).Return()

	rr := do(t, newTestRouter(c), http.MethodPost, "/set", `{"key":"greeting","value":"hello","expiration":60}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp SetResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, SetResponse{Key: "greeting", Value: "hello", Expiration: 60}, resp)
	c.AssertExpectations(t)
}

func TestHandleSet_StringExpiration(t *testing.T) {
	c := new(MockCache)
	c.On("Set", "k", "v", int64(15)).Return()

	rr := do(t, newTestRouter(c), http.MethodPost, "/set", `{"key":"k","value":"v","expiration":"15"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	c.AssertExpectations(t)
}

func TestHandleSet_DegenerateInputAccepted(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
	}{
		{"missing expiration", `{"key":"k","value":"v"}`, "k"},
		{"non-numeric expiration", `{"key":"k","value":"v","expiration":"abc"}`, "k"},
		{"empty key", `{"key":"","value":"v","expiration":10}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(MockCache)
			ttl := int64(0)
			if tt.key == "" {
				ttl = 10
			}
			c.On("Set", tt.key, "v", ttl).Return()

			rr := do(t, newTestRouter(c), http.MethodPost, "/set", tt.body)
			assert.Equal(t, http.StatusOK, rr.Code)
			c.AssertExpectations(t)
		})
	}
}

func TestHandleSet_InvalidBody(t *testing.T) {
	c := new(MockCache)

	rr := do(t, newTestRouter(c), http.MethodPost, "/set", `{"key":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var appErr apperrors.AppError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &appErr))
	assert.Equal(t, "INVALID_BODY", appErr.ErrorCode)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleSet_BodyTooLarge(t *testing.T) {
	c := new(MockCache)
	cfg := testConfig()
	cfg.Server.MaxBodyBytes = 32
	h := NewRouter(NewServer(cfg, c, nil), slog.New(slog.NewTextHandler(io.Discard, nil)))

	body := `{"key":"k","value":"` + strings.Repeat("x", 64) + `","expiration":5}`
	rr := do(t, h, http.MethodPost, "/set", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleGet_Found(t *testing.T) {
	c := new(MockCache)
	c.On("Get", "greeting").Return("hello", true)

	rr := do(t, newTestRouter(c), http.MethodGet, "/get/greeting", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var resp GetResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, GetResponse{Key: "greeting", Value: "hello"}, resp)
}

func TestHandleGet_NotFound(t *testing.T) {
	c := new(MockCache)
	c.On("Get", "missing").Return("", false)

	rr := do(t, newTestRouter(c), http.MethodGet, "/get/missing", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var appErr apperrors.AppError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &appErr))
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
	assert.Equal(t, "KEY_NOT_FOUND", appErr.ErrorCode)
}

func TestHandleGet_EscapedKey(t *testing.T) {
	c := new(MockCache)
	c.On("Get", "a/b c").Return("v", true)
	c.On("Get", "100%").Return("p", true)

	h := newTestRouter(c)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/get/a%2Fb%20c", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/get/100%25", "").Code)
	c.AssertExpectations(t)
}

func TestHandleDelete(t *testing.T) {
	c := new(MockCache)
	c.On("Delete", "k").Return()

	rr := do(t, newTestRouter(c), http.MethodDelete, "/delete/k", "")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	c.AssertExpectations(t)
}

func TestHandleStats(t *testing.T) {
	c := new(MockCache)
	c.On("Len").Return(3)
	c.On("Capacity").Return(10)

	rr := do(t, newTestRouter(c), http.MethodGet, "/stats", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, StatsResponse{Len: 3, Capacity: 10}, resp)
}

func TestHealth(t *testing.T) {
	rr := do(t, newTestRouter(new(MockCache)), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rr := do(t, newTestRouter(new(MockCache)), http.MethodGet, "/set", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/set", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()

	newTestRouter(new(MockCache)).ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RealCacheLRU(t *testing.T) {
	c, err := cache.New(cache.Config{Capacity: 2})
	require.NoError(t, err)
	h := newTestRouter(c)

	for _, k := range []string{"A", "B"} {
		body, _ := json.Marshal(map[string]any{"key": k, "value": strings.ToLower(k), "expiration": 3600})
		rr := do(t, h, http.MethodPost, "/set", string(bytes.TrimSpace(body)))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/get/A", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/set", `{"key":"C","value":"c","expiration":3600}`).Code)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/get/B", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/get/A", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/get/C", "").Code)
}
