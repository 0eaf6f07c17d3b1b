package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestAuthHandlerGenerateBearerToken(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Auth.JWTSecret = "testsecret"
	h := NewAuthHandler(cfg, testLogger)

	t.Run("issues a signed bearer token", func(t *testing.T) {
		body, _ := json.Marshal(dto.TokenRequest{Username: "credit-engine-client"})
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewBuffer(body))
		rec := httptest.NewRecorder()

		h.GenerateBearerToken(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.TokenResponse
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, strings.HasPrefix(resp.Token, "Bearer "))

		tokenString := strings.TrimPrefix(resp.Token, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return []byte("testsecret"), nil
		})
		assert.NoError(t, err)
		assert.True(t, token.Valid)

		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, "credit-engine-client", claims["username"])
	})

	t.Run("missing username answers 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()

		h.GenerateBearerToken(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body answers 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewBufferString(`not-json`))
		rec := httptest.NewRecorder()

		h.GenerateBearerToken(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
