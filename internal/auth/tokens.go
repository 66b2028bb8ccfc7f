package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"snapgram/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrExpiredToken is wrapped together with domain.ErrInvalidToken for expired tokens.
var ErrExpiredToken = errors.New("token has expired")

// Claims carried by both token kinds; Type tells them apart.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Type     string `json:"type"`
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = 5 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     "snapgram",
		now:        time.Now,
	}, nil
}

// Issue creates an access/refresh pair for user.
func (i *Issuer) Issue(user *domain.User) (TokenPair, error) {
	now := i.now()
	pair := TokenPair{
		AccessExpiresAt:  now.Add(i.accessTTL),
		RefreshExpiresAt: now.Add(i.refreshTTL),
	}

	var err error
	pair.Access, err = i.sign(user.ID, user.Username, tokenTypeAccess, now, pair.AccessExpiresAt)
	if err != nil {
		return TokenPair{}, err
	}
	pair.Refresh, err = i.sign(user.ID, user.Username, tokenTypeRefresh, now, pair.RefreshExpiresAt)
	if err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Verify resolves an access token to the actor it was issued for.
func (i *Issuer) Verify(token string) (domain.Actor, error) {
	claims, err := i.parse(token, tokenTypeAccess)
	if err != nil {
		return domain.Actor{}, err
	}
	return actorFromClaims(claims)
}

// Refresh mints a new access token from a valid refresh token.
func (i *Issuer) Refresh(refreshToken string) (string, time.Time, error) {
	claims, err := i.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return "", time.Time{}, err
	}
	actor, err := actorFromClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	now := i.now()
	exp := now.Add(i.accessTTL)
	access, err := i.sign(actor.UserID, actor.Username, tokenTypeAccess, now, exp)
	if err != nil {
		return "", time.Time{}, err
	}
	return access, exp, nil
}

func (i *Issuer) sign(userID int64, username, typ string, now, exp time.Time) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: username,
		Type:     typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (i *Issuer) parse(token, wantType string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", domain.ErrInvalidToken)
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, ErrExpiredToken)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: malformed claims", domain.ErrInvalidToken)
	}
	if claims.Type != wantType {
		return nil, fmt.Errorf("%w: expected %s token", domain.ErrInvalidToken, wantType)
	}
	return claims, nil
}

func actorFromClaims(claims *Claims) (domain.Actor, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.Actor{}, fmt.Errorf("%w: bad subject", domain.ErrInvalidToken)
	}
	return domain.Actor{UserID: id, Username: claims.Username}, nil
}
