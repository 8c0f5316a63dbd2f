package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

func TestExtractAccessToken(t *testing.T) {
	t.Run("Cookie Preferred", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie_token"})
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "cookie_token", ExtractAccessToken(req))
	})

	t.Run("Header Fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "header_token", ExtractAccessToken(req))
	})

	t.Run("Empty Cookie Falls Back to Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: ""})
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "header_token", ExtractAccessToken(req))
	})

	t.Run("No Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		assert.Empty(t, ExtractAccessToken(req))
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic user:pass")

		assert.Empty(t, ExtractAccessToken(req))
	})
}

func TestIssueAndParseAdminToken(t *testing.T) {
	now := time.Now()
	token, err := IssueAdminToken("admin-1", "admin", testSecret, time.Hour, now)
	require.NoError(t, err)

	claims, err := ParseAdminToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssueAdminToken_Errors(t *testing.T) {
	_, err := IssueAdminToken("admin-1", "admin", nil, time.Hour, time.Now())
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = IssueAdminToken("", "admin", testSecret, time.Hour, time.Now())
	assert.ErrorIs(t, err, ErrEmptySubject)
}

func TestParseAdminToken_Rejects(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := ParseAdminToken("", testSecret)
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token, err := IssueAdminToken("admin-1", "admin", []byte("other"), time.Hour, time.Now())
		require.NoError(t, err)

		_, err = ParseAdminToken(token, testSecret)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := IssueAdminToken("admin-1", "admin", testSecret, time.Hour, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		_, err = ParseAdminToken(token, testSecret)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("No Expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "admin-1", "role": "admin"}).SignedString(testSecret)
		require.NoError(t, err)

		_, err = ParseAdminToken(token, testSecret)
		assert.Error(t, err)
	})

	t.Run("HS512", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
			"sub": "admin-1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(testSecret)
		require.NoError(t, err)

		_, err = ParseAdminToken(token, testSecret)
		assert.Error(t, err)
	})
}

func TestServiceKey(t *testing.T) {
	hash, err := HashServiceKey("svc-key")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)

	assert.True(t, CheckServiceKey([]byte(hash), "svc-key"))
	assert.False(t, CheckServiceKey([]byte(hash), "svc-kez"))
	assert.False(t, CheckServiceKey([]byte(hash), ""))
	assert.False(t, CheckServiceKey(nil, "svc-key"))
}
