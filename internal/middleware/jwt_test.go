package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"motormart/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key-for-hs256"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return signed
}

func runAuthenticated(t *testing.T, authHeader string) (*httptest.ResponseRecorder, string, error) {
	t.Helper()

	m, err := NewAuthMiddleware("", testSecret)
	assert.NoError(t, err)

	var gotSubject string
	handler := m.Authenticate()(func(c echo.Context) error {
		gotSubject = common.GetSubjectFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/cars", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()

	return rec, gotSubject, handler(e.NewContext(req, rec))
}

func TestAuthenticate_ValidTokenPutsSubjectOnContext(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "idp_user_123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec, subject, err := runAuthenticated(t, "Bearer "+token)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "idp_user_123", subject)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	_, _, err := runAuthenticated(t, "")
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_NotBearer(t *testing.T) {
	_, _, err := runAuthenticated(t, "Basic dXNlcjpwYXNz")
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "idp_user_123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, _, err := runAuthenticated(t, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "idp_user_123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("a-different-secret"))
	assert.NoError(t, err)

	_, _, err = runAuthenticated(t, "Bearer "+signed)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_RejectsUnexpectedAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "idp_user_123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, _, err = runAuthenticated(t, "Bearer "+signed)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticate_MissingSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, _, err := runAuthenticated(t, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
