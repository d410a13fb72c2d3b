package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/util"
	"go.uber.org/zap"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errMissingUser  = errors.New("token has no user_id claim")
)

// Authenticator verifies HS256 bearer tokens issued by the auth service
// and exposes the caller's ID to handlers under util.UserIDKey.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for tokens signed with secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// RequireAuth rejects requests without a valid token with AUTHENTICATION_REQUIRED
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := a.authenticate(c.GetHeader("Authorization"))
		if err != nil {
			logger.Log.Debug("Authentication failed",
				zap.String("path", c.FullPath()),
				zap.Error(err))
			util.RespondUnauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.UserIDKey, userID)
		c.Next()
	}
}

// OptionalAuth sets the caller's ID when a valid token is present and
// otherwise lets the request through anonymously
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, err := a.authenticate(c.GetHeader("Authorization")); err == nil {
			c.Set(util.UserIDKey, userID)
		}
		c.Next()
	}
}

// authenticate parses "Bearer <token>" and returns the user_id claim
func (a *Authenticator) authenticate(header string) (string, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(tokenString) == "" {
		return "", errMissingToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errMissingUser
	}
	return userID, nil
}
