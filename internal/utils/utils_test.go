package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FINTRACK_BACK-END/internal/dto"
)

func TestWriteErrorResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteErrorResponse(rr, http.StatusNotFound, "Not Found", "Transaction not found")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "Not Found", body.Error)
	assert.Equal(t, "Transaction not found", body.Message)
}

func TestDecodeJSONRequest(t *testing.T) {
	type payload struct {
		Montant any    `json:"montant"`
		Type    string `json:"type"`
	}

	t.Run("numbers are kept exact", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"montant": 10.10, "type": "income"}`))
		var p payload
		require.NoError(t, DecodeJSONRequest(rr, req, &p))
		assert.Equal(t, json.Number("10.10"), p.Montant)
	})

	t.Run("empty body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var p payload
		assert.Error(t, DecodeJSONRequest(rr, req, &p))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "must not be empty")
	})

	t.Run("wrong type", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type": 5}`))
		var p payload
		assert.Error(t, DecodeJSONRequest(rr, req, &p))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `\"type\"`)
	})
}

func TestUserContext(t *testing.T) {
	_, ok := GetUserIDFromContext(context.Background())
	assert.False(t, ok)

	id := uuid.New()
	ctx := WithUser(context.Background(), id)
	got, ok := GetUserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = GetUserIDFromContext(WithUser(context.Background(), uuid.Nil))
	assert.False(t, ok)
}
