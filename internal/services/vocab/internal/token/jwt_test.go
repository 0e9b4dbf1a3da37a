package token

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gamma-omg/lexi-spell/internal/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *Issuer {
	return NewIssuer(Config{
		Secret: NewSecretString("test_secret"),
		Issuer: "test-issuer",
		TTL:    time.Hour,
	})
}

func TestIssuer(t *testing.T) {
	issuer := newTestIssuer()

	tk, err := issuer.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, tk)

	uid, err := issuer.Validate(tk)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
}

func TestIssuer_Expired(t *testing.T) {
	issuer := newTestIssuer()
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tk, err := issuer.Issue(42)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Validate(tk)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_WrongSecret(t *testing.T) {
	tk, err := newTestIssuer().Issue(42)
	require.NoError(t, err)

	other := NewIssuer(Config{
		Secret: NewSecretString("other_secret"),
		Issuer: "test-issuer",
		TTL:    time.Hour,
	})

	_, err = other.Validate(tk)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_WrongIssuer(t *testing.T) {
	tk, err := newTestIssuer().Issue(42)
	require.NoError(t, err)

	other := NewIssuer(Config{
		Secret: NewSecretString("test_secret"),
		Issuer: "someone-else",
		TTL:    time.Hour,
	})

	_, err = other.Validate(tk)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_AcceptedByAuthMiddleware(t *testing.T) {
	issuer := newTestIssuer()
	foreign := NewIssuer(Config{
		Secret: NewSecretString("test_secret"),
		Issuer: "someone-else",
		TTL:    time.Hour,
	})

	h := middleware.Auth(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := middleware.UserIDFromContext(r.Context())
		fmt.Fprint(w, uid)
	}))

	serve := func(tk string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+tk)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	tk, err := issuer.Issue(7)
	require.NoError(t, err)
	rec := serve(tk)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Body.String())

	tk, err = foreign.Issue(7)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(tk).Code)
}

func TestIssuer_RejectsBadSubject(t *testing.T) {
	issuer := newTestIssuer()

	for _, sub := range []string{"", "user-1", "0", "-3"} {
		tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("test_secret"))
		require.NoError(t, err)

		_, err = issuer.Validate(tk)
		assert.ErrorIs(t, err, ErrInvalidToken, "subject %q", sub)
	}
}
