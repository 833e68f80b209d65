package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ownerIDKey = "owner_id"

// JWTClaims - токен выпускает внешний auth-сервис.
// owner_id - аккаунт, к которому относятся отзывы; без него берется user_id
type JWTClaims struct {
	OwnerID string `json:"owner_id"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware проверяет JWT и кладет owner_id в контекст Gin
type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(m.jwtSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		owner := claims.OwnerID
		if owner == "" {
			owner = claims.UserID
		}
		if owner == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token has no owner"})
			return
		}

		c.Set(ownerIDKey, owner)
		c.Next()
	}
}

// ownerID достает owner_id, положенный AuthMiddleware
func ownerID(c *gin.Context) (string, bool) {
	value, exists := c.Get(ownerIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	owner, ok := value.(string)
	if !ok || owner == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid owner ID"})
		return "", false
	}
	return owner, true
}
