// Package jwt emite y valida los tokens de sesión de la API. Cada token liga
// al usuario con su empresa y rol, de modo que el middleware HTTP puede
// resolver el multi-tenant sin consultar la base de datos en cada petición.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session identidad transportada dentro del token.
type Session struct {
	UserID    string
	CompanyID string
	Role      string // entity.RoleAdmin | entity.RoleFacturas
}

// El UserID viaja en el claim estándar Subject; empresa y rol son claims
// propios.
type claims struct {
	jwt.RegisteredClaims
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
}

// Generate firma un token HS256 para la sesión con la caducidad indicada.
func Generate(secret, issuer string, ttlMinutes int, s Session) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMinutes) * time.Minute)),
		},
		CompanyID: s.CompanyID,
		Role:      s.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// Parse valida firma y caducidad y reconstruye la sesión. Solo se admite
// HS256: cualquier otro algoritmo (incluido "none") se rechaza, y un token
// sin caducidad es inválido.
func Parse(secret, tokenString string) (Session, error) {
	if secret == "" {
		return Session{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &claims{},
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("jwt: token inválido: %w", err)
	}
	c, ok := token.Claims.(*claims)
	if !ok {
		return Session{}, fmt.Errorf("jwt: claims inesperados")
	}
	return Session{UserID: c.Subject, CompanyID: c.CompanyID, Role: c.Role}, nil
}
