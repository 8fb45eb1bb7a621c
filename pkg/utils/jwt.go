package utils

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

func CreateJWTToken(subject string, role string, ttl time.Duration, jwtSecretKey string, jwtKid string) (string, error) {
	claims := jwt.MapClaims{}
	claims["authorized"] = true
	claims["sub"] = subject
	claims["role"] = role
	claims["exp"] = time.Now().Add(ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = jwtKid

	return token.SignedString([]byte(jwtSecretKey))
}

func ExtractTokenClaims(c echo.Context) (subject string, role string) {
	user, ok := c.Get("user").(*jwt.Token)
	if !ok || !user.Valid {
		return "", ""
	}

	claims, ok := user.Claims.(jwt.MapClaims)
	if !ok {
		return "", ""
	}

	subject, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	return subject, role
}
