package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens

	"github.com/iliyamo/hris-auth/internal/model"
)

// Sentinel errors surfaced by token verification.  Both mean "unauthorized"
// to a client, but callers log them separately: a flood of ErrTokenInvalid
// looks like probing, a flood of ErrTokenExpired looks like a misbehaving
// client clock or TTL.
var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
	ErrEmptySecret  = errors.New("signing secret is empty")
)

// AccessClaims is the payload embedded in access tokens.  It carries just
// enough of the user to authenticate a request and rebuild a session
// snapshot on a cache miss.  It is deliberately not the full user entity:
// anything beyond these fields must be loaded from storage.
type AccessClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject of the token.
func (c AccessClaims) UserID() uint64 {
	id, _ := strconv.ParseUint(c.Subject, 10, 64)
	return id
}

// RefreshClaims is the payload embedded in refresh tokens.  Only the
// subject is carried; everything else is reloaded from storage when the
// token is exchanged.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the numeric subject of the token.
func (c RefreshClaims) UserID() uint64 {
	id, _ := strconv.ParseUint(c.Subject, 10, 64)
	return id
}

// SignedToken pairs a serialized JWT with its expiration time so handlers
// can report expiry to clients without re-decoding the token.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 access token for a user.  The
// claims embed the display name, email and role so request authentication
// can proceed without a storage round-trip.  An empty secret is refused:
// signing with it would make every forged token verify.
func NewAccessToken(secret string, u model.User, ttlMin int) (SignedToken, error) {
	if secret == "" {
		return SignedToken{}, ErrEmptySecret
	}
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := AccessClaims{
		Name:  u.FullName(),
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 refresh token carrying only the
// subject id.  It must be signed with a different secret than access
// tokens so that a leaked access key cannot forge refresh tokens.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (SignedToken, error) {
	if secret == "" {
		return SignedToken{}, ErrEmptySecret
	}
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseAccess verifies an access token's signature and expiry and returns
// its claims.  ErrTokenExpired means the signature checked out but the
// token is past its exp claim; every other failure is ErrTokenInvalid.
func ParseAccess(secret, raw string) (AccessClaims, error) {
	var claims AccessClaims
	if err := parseInto(secret, raw, &claims); err != nil {
		return AccessClaims{}, err
	}
	return claims, nil
}

// ParseRefresh is ParseAccess for the refresh key class.
func ParseRefresh(secret, raw string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := parseInto(secret, raw, &claims); err != nil {
		return RefreshClaims{}, err
	}
	return claims, nil
}

func parseInto(secret, raw string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC; an attacker-chosen
		// algorithm must never pick the verification key.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !tok.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// TokenRemainingTTL decodes a token without verifying it and returns the
// time left until its exp claim.  Zero or negative means the token has
// already expired naturally and needs no denylist entry.  Signature
// verification is the caller's business; revocation only needs the expiry.
func TokenRemainingTTL(raw string, now time.Time) time.Duration {
	parser := jwt.NewParser()
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Time.Sub(now)
}
