package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Subject valores de alcance de la sesión del cajero que viajan en el token.
type Subject struct {
	UserID         string
	OrganizationID string
	BranchID       string
	Role           string
}

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// Role permite que el middleware RBAC decida sin consultar la DB.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	BranchID       string `json:"branch_id"`
	Role           string `json:"role"` // "admin" | "supervisor" | "cajero"
}

// Generate genera un token JWT firmado (HS256) para el sujeto.
func Generate(secret, issuer string, expMinutes int, sub Subject) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:         sub.UserID,
		OrganizationID: sub.OrganizationID,
		BranchID:       sub.BranchID,
		Role:           sub.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve el sujeto.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (*Subject, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.OrganizationID == "" {
		return nil, fmt.Errorf("claims inválidos: falta organization_id")
	}
	return &Subject{
		UserID:         claims.UserID,
		OrganizationID: claims.OrganizationID,
		BranchID:       claims.BranchID,
		Role:           claims.Role,
	}, nil
}
