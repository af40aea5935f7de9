package security_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/security"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	handler := security.Headers{Enable: true, EnableHSTS: true, HSTSIncludeSubdomains: true}.Middleware(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodGet, "https://quotes.example/api/v1/quotes", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareSkipsHSTSWithoutTLS(t *testing.T) {
	handler := security.Headers{Enable: true, EnableHSTS: true}.Middleware(http.HandlerFunc(ok))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://quotes.example", nil))
	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	handler := security.Headers{Enable: false, EnableHSTS: true}.Middleware(http.HandlerFunc(ok))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://quotes.example", nil))
	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}
