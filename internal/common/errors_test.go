package common_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/common"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorBody {
	t.Helper()
	var body struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestWriteErrorKeepsAppErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := fmt.Errorf("load: %w", common.NotFound("quote not found", errors.New("redis nil")))

	common.WriteError(rec, wrapped)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, common.CodeNotFound, body.Code)
	require.Equal(t, "quote not found", body.Message)
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()

	common.WriteError(rec, errors.New("dial tcp 10.0.0.1:6379: refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, common.CodeInternal, body.Code)
	require.Equal(t, "internal error", body.Message)
}

func TestBadRequestCarriesDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	common.WriteError(rec, common.BadRequest("invalid payload", map[string]string{"quantity": "min"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":{"code":"VALIDATION_FAILED","message":"invalid payload","details":{"quantity":"min"}}}`, rec.Body.String())
	require.True(t, common.IsAppError(common.Conflict("stale", nil)))
}
