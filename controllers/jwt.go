package controllers

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func getJWTSecret() string {
	if jwtSecret != "" {
		return jwtSecret
	}
	return getenv("JWT_SECRET", "CHANGE_ME")
}

type tenantClaims struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

func signTenantToken(tenantID, email string) (string, error) {
	claims := tenantClaims{
		TenantID: tenantID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenantID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(getJWTSecret()))
}

func parseTenantToken(raw string) (*tenantClaims, bool) {
	var claims tenantClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(getJWTSecret()), nil
	})
	if err != nil || !token.Valid || claims.TenantID == "" {
		return nil, false
	}
	return &claims, true
}
