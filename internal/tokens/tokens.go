package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tasklight/tasklight/internal/models"
)

const (
	// TypeAccess and TypeRefresh are the values of the "type" claim. A token
	// of one kind is never accepted where the other is expected.
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	// ErrInvalidToken covers bad signature, expiry, and type-claim mismatch.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidSubject means the token parsed but its subject is not a
	// positive integer id, or its role claim is unknown.
	ErrInvalidSubject = errors.New("invalid token subject")
)

// Claims is the shared claim set for both token kinds. Refresh tokens
// additionally carry jti (in RegisteredClaims.ID), familyId and deviceId.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
	FamilyID  string `json:"familyId,omitempty"`
	DeviceID  string `json:"deviceId,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the decoded content of a verified refresh token.
type RefreshClaims struct {
	User      models.AuthUser
	JTI       string
	FamilyID  string
	DeviceID  string
	ExpiresAt time.Time
}

// Codec signs and verifies access and refresh tokens with a shared HS256
// secret. It is stateless and safe for concurrent use.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCodec builds a Codec. A missing or short secret is a configuration
// error: callers must treat it as fatal at startup, not per request.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// SignAccess issues a short-lived access token for the user.
func (c *Codec) SignAccess(u models.AuthUser) (string, error) {
	now := c.now()
	claims := Claims{
		Email:     u.Email,
		Role:      string(u.Role),
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// SignRefresh issues a long-lived refresh token bound to a session jti, a
// rotation family and a device. It returns the token and its absolute expiry
// so the session row can record the same instant.
func (c *Codec) SignRefresh(u models.AuthUser, jti, familyID, deviceID string) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.refreshTTL)
	claims := Claims{
		Email:     u.Email,
		Role:      string(u.Role),
		TokenType: TypeRefresh,
		FamilyID:  familyID,
		DeviceID:  deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// VerifyAccess validates an access token and returns the asserted identity.
func (c *Codec) VerifyAccess(token string) (models.AuthUser, error) {
	claims, err := c.verify(token, TypeAccess)
	if err != nil {
		return models.AuthUser{}, err
	}
	return c.authUser(claims)
}

// VerifyRefresh validates a refresh token and returns its full claim set.
func (c *Codec) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims, err := c.verify(token, TypeRefresh)
	if err != nil {
		return nil, err
	}
	user, err := c.authUser(claims)
	if err != nil {
		return nil, err
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &RefreshClaims{
		User:      user,
		JTI:       claims.ID,
		FamilyID:  claims.FamilyID,
		DeviceID:  claims.DeviceID,
		ExpiresAt: expiresAt,
	}, nil
}

func (c *Codec) verify(token, expectedType string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expectedType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) authUser(claims *Claims) (models.AuthUser, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return models.AuthUser{}, ErrInvalidSubject
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		return models.AuthUser{}, ErrInvalidSubject
	}
	return models.AuthUser{ID: id, Email: claims.Email, Role: role}, nil
}
