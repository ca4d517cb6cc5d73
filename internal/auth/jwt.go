package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"educontrol/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongKind    = errors.New("wrong token kind")
)

// Token kinds. A refresh token cannot be used to call the API.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	AccessExp    time.Time `json:"accessExpiresAt"`
	RefreshExp   time.Time `json:"refreshExpiresAt"`
}

// Claims is the JWT payload. The registered subject is the user id.
type Claims struct {
	Role model.Role `json:"role"`
	Kind string     `json:"kind"`
	jwt.RegisteredClaims
}

// UserID returns the id of the user the token was issued to.
func (c Claims) UserID() string { return c.Subject }

// Signer issues and validates HS256 tokens.
type Signer struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewSigner(key, issuer string, accessTTL, refreshTTL time.Duration) *Signer {
	return &Signer{
		key:        []byte(key),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue signs an access and a refresh token for the user.
func (s *Signer) Issue(userID string, role model.Role) (TokenPair, error) {
	now := s.now()
	pair := TokenPair{
		AccessExp:  now.Add(s.accessTTL),
		RefreshExp: now.Add(s.refreshTTL),
	}
	var err error
	if pair.AccessToken, err = s.sign(userID, role, KindAccess, now, pair.AccessExp); err != nil {
		return TokenPair{}, err
	}
	if pair.RefreshToken, err = s.sign(userID, role, KindRefresh, now, pair.RefreshExp); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (s *Signer) sign(userID string, role model.Role, kind string, now, exp time.Time) (string, error) {
	claims := Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse validates a token of the given kind and returns its claims.
func (s *Signer) Parse(tokenStr, kind string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	if claims.Kind != kind {
		return Claims{}, ErrWrongKind
	}
	return *claims, nil
}
