// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// JwtCustomClaims is the identity object the external auth service encodes
// into bearer tokens. Handlers read it from the request context; nothing in
// this repo issues tokens for end users.
type JwtCustomClaims struct {
	EmpCode string `json:"empCode"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Region  string `json:"region"`
	Branch  string `json:"branch"`
	jwt.StandardClaims
}

// Valid implements the Claims interface for Echo's JWT middleware
func (c JwtCustomClaims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return errors.New("token is expired")
	}
	if c.NotBefore > 0 && time.Now().Unix() < c.NotBefore {
		return errors.New("token used before valid")
	}
	return nil
}

// GetJWTSecret returns the JWT secret from environment variables
func GetJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
	return secret
}

// Protect returns the configured JWT middleware
func Protect() echo.MiddlewareFunc {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("Warning: JWT_SECRET environment variable is not set")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "JWT configuration error")
			}
		}
	}

	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey: []byte(secret),
		Claims:     &JwtCustomClaims{},
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)
			claims := user.Claims.(*JwtCustomClaims)

			// Store claims in context for easy access
			c.Set("empCode", claims.EmpCode)
			c.Set("role", claims.Role)
			c.Set("region", claims.Region)
			c.Set("branch", claims.Branch)
		},
		ErrorHandler: func(err error) error {
			log.Printf("JWT middleware error: %v", err)
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
		},
	})
}

// GenerateToken signs an identity token. Kept for tooling and tests; the
// production issuer lives in the auth service.
func GenerateToken(empCode, name, role, region, branch string) (string, error) {
	claims := &JwtCustomClaims{
		EmpCode: empCode,
		Name:    name,
		Role:    role,
		Region:  region,
		Branch:  branch,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET environment variable is required")
	}
	return token.SignedString([]byte(secret))
}

// CurrentUser extracts the identity claims from the request context
func CurrentUser(c echo.Context) *JwtCustomClaims {
	user := c.Get("user")
	if user == nil {
		return nil
	}

	token, ok := user.(*jwt.Token)
	if !ok {
		return nil
	}

	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// ExtractRole safely extracts the role from the context
func ExtractRole(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok && role != "" {
		return role
	}
	if claims := CurrentUser(c); claims != nil {
		return claims.Role
	}
	return ""
}

// ExtractEmpCode safely extracts the employee code from the context
func ExtractEmpCode(c echo.Context) string {
	if empCode, ok := c.Get("empCode").(string); ok && empCode != "" {
		return empCode
	}
	if claims := CurrentUser(c); claims != nil {
		return claims.EmpCode
	}
	return ""
}
