package handler

import (
	"fmt"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hris-auth/internal/utils"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestRequestResetCode(t *testing.T) {
	f := newFixture(t)

	c, rec := newJSONCtx(http.MethodPost, "/api/auth/reset-password",
		`{"email":"bob@corp.com"}`)
	require.NoError(t, f.h.RequestResetCode(c))
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown user gets no code")
	assert.Empty(t, f.pub.events)

	c, rec = newJSONCtx(http.MethodPost, "/api/auth/reset-password",
		`{"email":"alice@corp.com"}`)
	require.NoError(t, f.h.RequestResetCode(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// exactly one delivery job, carrying a 6-digit code
	require.Len(t, f.pub.events, 1)
	ev := f.pub.events[0]
	assert.Equal(t, "alice@corp.com", ev.Email)
	assert.Regexp(t, sixDigits, ev.Code)

	// the code travels only over the mail channel
	assert.NotContains(t, rec.Body.String(), ev.Code)
}

func TestVerifyResetCodeFlow(t *testing.T) {
	f := newFixture(t)

	c, _ := newJSONCtx(http.MethodPost, "/api/auth/reset-password", `{"email":"alice@corp.com"}`)
	require.NoError(t, f.h.RequestResetCode(c))
	require.Len(t, f.pub.events, 1)
	code := f.pub.events[0].Code

	// wrong code first
	c, rec := newJSONCtx(http.MethodPost, "/api/auth/reset-password/verify",
		`{"email":"alice@corp.com","code":"000000"}`)
	if code == "000000" {
		t.Skip("drew the one colliding code")
	}
	require.NoError(t, f.h.VerifyResetCode(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// right code yields a fresh, working token pair
	c, rec = newJSONCtx(http.MethodPost, "/api/auth/reset-password/verify",
		fmt.Sprintf(`{"email":"alice@corp.com","code":%q}`, code))
	require.NoError(t, f.h.VerifyResetCode(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeAuthResp(t, rec)
	assert.Equal(t, f.alice.ID, resp.User.ID)
	claims, err := utils.ParseAccess(f.h.Cfg.AccessSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, claims.UserID())

	// the code was burned on success
	c, rec = newJSONCtx(http.MethodPost, "/api/auth/reset-password/verify",
		fmt.Sprintf(`{"email":"alice@corp.com","code":%q}`, code))
	require.NoError(t, f.h.VerifyResetCode(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResetCodeExpires(t *testing.T) {
	f := newFixture(t)

	c, _ := newJSONCtx(http.MethodPost, "/api/auth/reset-password", `{"email":"alice@corp.com"}`)
	require.NoError(t, f.h.RequestResetCode(c))
	code := f.pub.events[0].Code

	f.mr.FastForward(6 * time.Minute) // past the 5-minute window

	c, rec := newJSONCtx(http.MethodPost, "/api/auth/reset-password/verify",
		fmt.Sprintf(`{"email":"alice@corp.com","code":%q}`, code))
	require.NoError(t, f.h.VerifyResetCode(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecondCodeInvalidatesFirst(t *testing.T) {
	f := newFixture(t)

	c, _ := newJSONCtx(http.MethodPost, "/api/auth/reset-password", `{"email":"alice@corp.com"}`)
	require.NoError(t, f.h.RequestResetCode(c))
	c, _ = newJSONCtx(http.MethodPost, "/api/auth/reset-password", `{"email":"alice@corp.com"}`)
	require.NoError(t, f.h.RequestResetCode(c))

	require.Len(t, f.pub.events, 2)
	first, second := f.pub.events[0].Code, f.pub.events[1].Code
	if first == second {
		t.Skip("consecutive draws collided")
	}

	c, rec := newJSONCtx(http.MethodPost, "/api/auth/reset-password/verify",
		fmt.Sprintf(`{"email":"alice@corp.com","code":%q}`, first))
	require.NoError(t, f.h.VerifyResetCode(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newJSONCtx(http.MethodPost, "/api/auth/reset-password/verify",
		fmt.Sprintf(`{"email":"alice@corp.com","code":%q}`, second))
	require.NoError(t, f.h.VerifyResetCode(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)

	// target email must match the token subject
	c, rec := newJSONCtx(http.MethodPut, "/api/auth/reset-password",
		`{"email":"boss@corp.com","new_password":"NewPass@456"}`)
	f.authenticate(t, c, f.alice)
	require.NoError(t, f.h.ChangePassword(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newJSONCtx(http.MethodPut, "/api/auth/reset-password",
		`{"email":"alice@corp.com","new_password":"NewPass@456"}`)
	f.authenticate(t, c, f.alice)
	require.NoError(t, f.h.ChangePassword(c))
	require.Equal(t, http.StatusOK, rec.Code)

	stored := f.users.users[f.alice.ID].PasswordHash
	assert.True(t, utils.VerifyPassword(stored, "NewPass@456"))
	assert.False(t, utils.VerifyPassword(stored, testPassword))
}
