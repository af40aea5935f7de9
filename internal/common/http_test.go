package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/common"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:53211"
	require.Equal(t, "10.0.0.7", common.ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	require.Equal(t, "198.51.100.4", common.ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	require.Equal(t, "203.0.113.9", common.ClientIP(req))

	require.Empty(t, common.ClientIP(nil))
}
