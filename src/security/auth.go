package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// APISubject is the single principal the API serves. Reports are personal
// data, so every endpoint behind the auth middleware requires a token minted
// for this subject.
const APISubject = "bitgains-api"

type AuthService struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func NewAuthService(secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		JWTSecret: secret,
		TokenTTL:  tokenTTL,
	}
}

func (a *AuthService) GenerateToken() (string, error) {
	claims := jwt.MapClaims{
		"sub": APISubject,
		"exp": time.Now().Add(a.TokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.JWTSecret))
}

func (a *AuthService) ValidateToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.JWTSecret), nil
	})

	if err != nil {
		return err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok {
			return errors.New("invalid token: 'sub' claim missing or not a string")
		}
		if sub != APISubject {
			return errors.New("invalid token: unknown subject")
		}
		return nil
	}

	return errors.New("invalid token")
}
