package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatehub/auth-service/internal/testutil"
	"github.com/estatehub/auth-service/internal/token"
)

type parserStub struct {
	subject string
	err     error
}

func (p parserStub) Parse(tokenString string) (*token.Claims, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &token.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: p.subject}}, nil
}

func serveWith(t *testing.T, parser TokenParser, authHeader string) (*httptest.ResponseRecorder, *int64) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	m := NewAuthenticate(parser, testutil.MakeNoopLogger())

	var gotID int64
	engine := gin.New()
	engine.GET("/protected", m.Handler(), func(c *gin.Context) {
		id, ok := UserIDFromContext(c)
		require.True(t, ok)
		gotID = id
		c.Status(http.StatusOK)
	})

	req, err := http.NewRequest(http.MethodGet, "/protected", nil)
	require.NoError(t, err)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec, &gotID
}

func TestAuthenticate_ValidToken(t *testing.T) {
	t.Parallel()

	rec, gotID := serveWith(t, parserStub{subject: "7"}, "Bearer some.jwt")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), *gotID)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	t.Parallel()

	rec, _ := serveWith(t, parserStub{subject: "7"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")
}

func TestAuthenticate_WrongScheme(t *testing.T) {
	t.Parallel()

	rec, _ := serveWith(t, parserStub{subject: "7"}, "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	t.Parallel()

	rec, _ := serveWith(t, parserStub{err: errors.New("bad signature")}, "Bearer some.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid bearer token")
}

func TestAuthenticate_MalformedSubject(t *testing.T) {
	t.Parallel()

	rec, _ := serveWith(t, parserStub{subject: "not-a-number"}, "Bearer some.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserIDFromContext_Unset(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := UserIDFromContext(c)
	assert.False(t, ok)
}
