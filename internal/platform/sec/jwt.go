// Copyright (c) 2026 Intravine. All rights reserved.

// Package sec provides verification of platform identity tokens.
//
// # Architecture
//
// The Kudos service does not manage credentials. The intranet platform signs
// an RS256 JWT for each logged-in user; this package verifies those tokens
// and exposes the embedded claims to the middleware layer via the
// [middleware.TokenVerifier] interface.
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a platform identity token.
//
// # Why custom claims?
//
// By embedding the user id, extranet partition and role directly inside the
// JWT, the authentication middleware can reconstruct the active user context
// WITHOUT querying the directory on every single API request.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID      int    `json:"uid"`
	DisplayName string `json:"dnm"`
	ExtranetID  int    `json:"ext"`
	Role        string `json:"rol"`
}

// IsAdmin reports whether the claims grant recognition administration rights.
func (c *AuthClaims) IsAdmin() bool {
	return UserRole(c.Role).AtLeast(RoleAdmin)
}

// TokenService verifies RS256 JWTs issued by the intranet platform.
type TokenService struct {
	publicKey *rsa.PublicKey
	issuer    string
}

// NewTokenService creates a new TokenService.
// It reads the platform's RSA public key from the provided filesystem path.
func NewTokenService(publicKeyPath, issuer string) (*TokenService, error) {
	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return &TokenService{
		publicKey: publicKey,
		issuer:    issuer,
	}, nil
}

// VerifyToken checks the signature and validity of a JWT string.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	}, jwt.WithIssuer(service.issuer))

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
