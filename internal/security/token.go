package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService wraps JWT creation and validation. Tokens are minted by the
// identity layer; the chat core only verifies them at connect time.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
}

func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
	}
}

// CreateForUser creates a JWT whose subject is the given external user ID.
func (t *TokenService) CreateForUser(externalID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": externalID,
		"iat": now.Unix(),
		"exp": now.Add(t.expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates a token and returns its claims.
func (t *TokenService) Parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		return claims, nil
	}
	return nil, jwt.ErrTokenMalformed
}

// VerifyForUser validates the token and checks that its subject matches the
// claimed external user ID.
func (t *TokenService) VerifyForUser(tokenStr, externalID string) error {
	claims, err := t.Parse(tokenStr)
	if err != nil {
		return err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" || sub != externalID {
		return jwt.ErrTokenInvalidSubject
	}
	return nil
}
