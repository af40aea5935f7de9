package security_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/security"
)

func TestBodyLimitAllowsWithinLimit(t *testing.T) {
	var captured string
	handler := security.BodyLimit{Max: 10}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader("hello")))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "hello", captured)
}

func TestBodyLimitRejectsOversized(t *testing.T) {
	handler := security.BodyLimit{Max: 5}.Middleware(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader("excessive"))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, security.CodePayloadTooLarge, body.Error.Code)
}

func TestBodyLimitRejectsDeclaredContentLength(t *testing.T) {
	handler := security.BodyLimit{Max: 5}.Middleware(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader("content"))
	req.ContentLength = 100
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
