package auth

import (
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"trinity-schools/app/config"
)

const (
	issuer    = "trinity-schools"
	devSecret = "trinity-schools-secret-key"
)

// ErrMissingSecret is returned at startup when JWT_SECRET is unset outside local development.
var ErrMissingSecret = errors.New("JWT_SECRET is not set")

type JWTClaims struct {
	ClientID string   `json:"client_id"`
	Name     string   `json:"name"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries role.
func (c *JWTClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CheckSecret refuses the development signing secret unless LOCAL_DB is set,
// in which case it only warns.
func CheckSecret() error {
	if config.Conf.GetString("jwt_secret") != "" {
		return nil
	}
	if !config.Conf.GetBool("local_db") {
		return errors.Wrap(ErrMissingSecret, "export JWT_SECRET or LOCAL_DB=true")
	}
	log.Println("Warning: JWT_SECRET is not set, using the development secret")
	return nil
}

func getJWTSecret() []byte {
	secret := config.Conf.GetString("jwt_secret")
	if secret == "" {
		secret = devSecret
	}
	return []byte(secret)
}

// GenerateJWT mints a token for an API client valid for ttl.
func GenerateJWT(clientID, name string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		ClientID: clientID,
		Name:     name,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTSecret())
}

func ValidateJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return getJWTSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
