package mockapi

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-portal/users"
)

const (
	tokenIssuer      = "hr-portal-mockapi"
	tokenTypeSession = "session"
	tokenTypePayment = "payment"
)

var (
	errTokenExpired = errors.New("token expired")
	errTokenInvalid = errors.New("token invalid")
)

type tokenClaims struct {
	Type string         `json:"typ"`
	Role users.RoleType `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

// tokenManager signs and verifies the stub's HS256 tokens. Session and
// payment tokens share a key but are told apart by the typ claim.
type tokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	paymentTTL time.Duration
	now        func() time.Time
}

func newTokenManager(secret string, sessionTTL, paymentTTL time.Duration, now func() time.Time) (*tokenManager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	return &tokenManager{secret: key, sessionTTL: sessionTTL, paymentTTL: paymentTTL, now: now}, nil
}

func (tm *tokenManager) issueSession(p users.Principal) (string, time.Time, error) {
	return tm.issue(tokenTypeSession, p.ID, p.Role, tm.sessionTTL)
}

func (tm *tokenManager) issuePayment(userID string) (string, time.Time, error) {
	return tm.issue(tokenTypePayment, userID, "", tm.paymentTTL)
}

func (tm *tokenManager) issue(typ, subject string, role users.RoleType, ttl time.Duration) (string, time.Time, error) {
	now := tm.now()
	exp := now.Add(ttl)
	claims := tokenClaims{
		Type: typ,
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(exp),
			ID:        uuid.New().String(),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

// parse verifies raw and checks its typ. Expiry is reported as
// errTokenExpired, every other failure as errTokenInvalid.
func (tm *tokenManager) parse(raw, typ string) (*tokenClaims, error) {
	var claims tokenClaims
	_, err := jwtlib.ParseWithClaims(raw, &claims,
		func(*jwtlib.Token) (any, error) { return tm.secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(tokenIssuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(tm.now),
	)
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return nil, errTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", errTokenInvalid, err)
	case claims.Type != typ:
		return nil, fmt.Errorf("%w: expected %s token, got %q", errTokenInvalid, typ, claims.Type)
	}
	return &claims, nil
}
