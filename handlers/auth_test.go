package handlers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashResetTokenIsDeterministicHex(t *testing.T) {
	a := HashResetToken("abc123")
	b := HashResetToken("abc123")

	assert.Equal(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), a)
	assert.NotEqual(t, a, HashResetToken("abc124"))
}

func TestGenerateResetToken(t *testing.T) {
	first, err := generateResetToken()
	require.NoError(t, err)
	second, err := generateResetToken()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}

func TestSignupRequestValidation(t *testing.T) {
	validate := newValidate()

	valid := SignupRequest{
		Name:            "Ayla Cornell",
		Email:           "ayla@example.com",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	}
	assert.NoError(t, validate.Struct(&valid))

	mismatch := valid
	mismatch.PasswordConfirm = "pass12345"
	assert.Error(t, validate.Struct(&mismatch))

	short := valid
	short.Password = "pass"
	short.PasswordConfirm = "pass"
	assert.Error(t, validate.Struct(&short))
}

func TestPasswordPairValidation(t *testing.T) {
	validate := newValidate()

	assert.NoError(t, validate.Struct(&passwordPair{Password: "newpass123", PasswordConfirm: "newpass123"}))
	assert.Error(t, validate.Struct(&passwordPair{Password: "newpass123", PasswordConfirm: "other"}))
	assert.Error(t, validate.Struct(&passwordPair{}))
}

func TestLogoutOverwritesCookie(t *testing.T) {
	h := &AuthHandler{}
	rec := httptest.NewRecorder()

	require.NoError(t, h.Logout(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/logout", nil)))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "jwt", cookies[0].Name)
	assert.Equal(t, "loggedout", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestRequestScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "http", requestScheme(req))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https", requestScheme(req))
}
