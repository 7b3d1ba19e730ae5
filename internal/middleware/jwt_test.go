package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FINTRACK_BACK-END/internal/config"
	"FINTRACK_BACK-END/internal/utils"
)

var testJWT = &config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour}

func TestGenerateAndValidateToken(t *testing.T) {
	id := uuid.New()
	token, err := GenerateToken(id, "alice@example.com", testJWT)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testJWT)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)

	_, err = ValidateToken(token, &config.JWTConfig{Secret: "other"})
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "a@b.co", &config.JWTConfig{Secret: testJWT.Secret, AccessTokenTTL: -time.Minute})
	require.NoError(t, err)
	_, err = ValidateToken(token, testJWT)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, JWTClaims{UserID: uuid.New()})
	signed, err := token.SignedString([]byte(testJWT.Secret))
	require.NoError(t, err)
	_, err = ValidateToken(signed, testJWT)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	id := uuid.New()
	token, err := GenerateToken(id, "alice@example.com", testJWT)
	require.NoError(t, err)

	var got uuid.UUID
	h := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		got, _ = utils.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}, testJWT)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
	assert.Equal(t, id, got)
}
