package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scheme is the literal prefix clients send before the token in the
// Authorization header, and the prefix on tokens returned at signin.
const Scheme = "JWT "

var (
	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token is expired")
	// ErrTokenMalformed indicates a token with a bad signature or structure.
	ErrTokenMalformed = errors.New("token is malformed")
)

// Claims is the identity claim embedded in issued tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}

// TokenService issues and verifies signed bearer tokens. The secret and TTL
// are fixed at construction; rotating the secret invalidates all outstanding
// tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

// Issue signs a token binding the user identity and username, expiring after
// the service TTL.
func (s *TokenService) Issue(userID int64, username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   userID,
		Username: username,
	})
	return token.SignedString(s.secret)
}

// Verify checks the token signature and expiry and returns the embedded
// claims. It returns ErrTokenExpired for well-formed tokens past expiry and
// ErrTokenMalformed for everything else that fails verification.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
